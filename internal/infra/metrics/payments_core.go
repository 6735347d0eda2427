package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		ordersTotal,
		orderDuration,
		ordersAmountTotal,
	)
}

var (
	// result: created|failed|invalid
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "razorpay_orders_total",
			Help: "Order creation attempts by result.",
		},
		[]string{"result"},
	)

	orderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "razorpay_order_duration_seconds",
			Help:    "Latency of the provider order creation call in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"result"},
	)

	ordersAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "razorpay_orders_amount_minor_total",
			Help: "Sum of created order amounts in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncOrder(result string) {
	ordersTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveOrder(result string, d time.Duration) {
	ordersTotal.WithLabelValues(norm(result)).Inc()
	orderDuration.WithLabelValues(norm(result)).Observe(d.Seconds())
}

// currencyLabels bounds the currency label; anything else is counted as "other".
var currencyLabels = map[string]struct{}{
	"inr": {}, "usd": {}, "eur": {}, "gbp": {}, "sgd": {}, "aed": {},
	"aud": {}, "cad": {}, "jpy": {}, "chf": {}, "hkd": {}, "myr": {},
}

func currencyLabel(currency string) string {
	c := norm(currency)
	if _, ok := currencyLabels[c]; ok {
		return c
	}
	return "other"
}

func AddOrderAmount(currency string, minor int64) {
	ordersAmountTotal.WithLabelValues(currencyLabel(currency)).Add(float64(minor))
}
