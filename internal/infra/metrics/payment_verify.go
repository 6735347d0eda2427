package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(PaymentVerifyRequests)
}

// Count of verify calls grouped by result and bounded reason.
// result: ok|fail
// reason (fail only): bad_json|missing_params|invalid_signature
var PaymentVerifyRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_verify_requests_total",
		Help: "Count of /api/razorpay-verify calls by result and reason.",
	},
	[]string{"result", "reason"},
)

func IncVerify(result, reason string) {
	PaymentVerifyRequests.WithLabelValues(norm(result), norm(reason)).Inc()
}
