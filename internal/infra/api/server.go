package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"razorpay-relay/internal/domain"
	"razorpay-relay/internal/domain/model"
	"razorpay-relay/internal/infra/logging"
	"razorpay-relay/internal/infra/metrics"
	"razorpay-relay/internal/usecase"
)

const (
	PathRoot   = "/"
	PathHealth = "/health"
	PathCORS   = "/test-cors"
	PathOrder  = "/api/razorpay-order"
	PathVerify = "/api/razorpay-verify"
	PathMetric = "/metrics"

	maxBodyBytes = 1 << 20

	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}

// Server wires the relay routes to PaymentUseCase.
type Server struct {
	payUC   usecase.PaymentUseCase
	appName string
	log     *zerolog.Logger
	now     func() time.Time
}

// NewServer constructs the HTTP layer. appName is reported by the root endpoint.
func NewServer(payUC usecase.PaymentUseCase, appName string, logger *zerolog.Logger) *Server {
	return &Server{payUC: payUC, appName: appName, log: logger, now: time.Now}
}

// Routes returns the fully wrapped router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.middleware)

	r.Get(PathRoot, s.handleRoot)
	r.Get(PathHealth, s.handleHealth)
	r.Get(PathCORS, s.handleTestCORS)
	r.Post(PathOrder, s.handleCreateOrder)
	r.Post(PathVerify, s.handleVerify)
	r.Method(http.MethodGet, PathMetric, metrics.Handler())
	return r
}

// middleware runs inside the mux so RequestLog can read the matched route.
func (s *Server) middleware(next http.Handler) http.Handler {
	return Chain(next,
		TraceID(s.log),
		RequestLog(s.log),
		CORS(),
		Recover(s.log),
	)
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   s.appName,
		"status": "online",
		"endpoints": map[string]string{
			"health":         PathHealth,
			"razorpayOrder":  PathOrder,
			"razorpayVerify": PathVerify,
		},
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"timestamp":           s.timestamp(),
		"razorpayInitialized": s.payUC != nil && s.payUC.GatewayReady(),
	})
}

func (s *Server) handleTestCORS(w http.ResponseWriter, r *http.Request) {
	l := logging.With(r.Context(), s.log)
	l.Info().Str("origin", r.Header.Get("Origin")).Msg("CORS test request received")

	reqHeaders := make(map[string]string, len(r.Header)+1)
	if r.Host != "" {
		reqHeaders["host"] = r.Host
	}
	for k, v := range r.Header {
		reqHeaders[strings.ToLower(k)] = strings.Join(v, ", ")
	}

	h := w.Header()
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "CORS test successful",
		"headers": map[string]string{
			"allowOrigin":  h.Get("Access-Control-Allow-Origin"),
			"allowMethods": h.Get("Access-Control-Allow-Methods"),
			"allowHeaders": h.Get("Access-Control-Allow-Headers"),
		},
		"requestHeaders": reqHeaders,
	})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeBody(w, r, &req); err != nil {
		metrics.IncOrder("invalid")
		writeError(w, r, http.StatusBadRequest, envelope{Error: "Invalid request body"})
		return
	}

	order, err := s.payUC.CreateOrder(r.Context(), req)
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			writeError(w, r, http.StatusBadRequest, envelope{Error: ve.Msg})
		default:
			writeError(w, r, http.StatusInternalServerError, envelope{
				Error:   "Failed to create order",
				Details: err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: order})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req model.VerificationRequest
	if err := decodeBody(w, r, &req); err != nil {
		metrics.IncVerify("fail", "bad_json")
		writeError(w, r, http.StatusBadRequest, envelope{Error: "Invalid request body"})
		return
	}

	res, err := s.payUC.VerifyPayment(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: res.Message})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrSignatureMismatch):
		writeError(w, r, http.StatusBadRequest, envelope{Error: res.Message})
	default:
		writeError(w, r, http.StatusInternalServerError, envelope{
			Error:   "Failed to verify payment",
			Details: err.Error(),
		})
	}
}

// decodeBody reads a JSON object into dst. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// writeError stamps the request trace id on a failure envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, env envelope) {
	env.Success = false
	env.TraceID = logging.TraceID(r.Context())
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
