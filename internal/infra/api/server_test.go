//go:build !integration

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"razorpay-relay/internal/domain"
	"razorpay-relay/internal/domain/model"
	"razorpay-relay/internal/infra/api"
	"razorpay-relay/internal/infra/security"
	"razorpay-relay/internal/usecase"
)

//
// ---------------- in-memory gateway ----------------
//

type recordingGateway struct {
	mu    sync.Mutex
	calls []model.ProviderOrderRequest
	err   error
}

func (g *recordingGateway) Name() string { return "recording" }

func (g *recordingGateway) CreateOrder(ctx context.Context, req model.ProviderOrderRequest) (model.ProviderOrder, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	if g.err != nil {
		return nil, domain.NewUpstreamError(g.Name(), g.err)
	}
	return model.ProviderOrder{
		"id":       "order_TEST1",
		"entity":   "order",
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"status":   "created",
		"notes":    req.Notes,
	}, nil
}

//
// -------------------- test helpers --------------------
//

const testSecret = "rzp_test_secret"

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func newRouter(gw *recordingGateway) (http.Handler, *security.SignatureVerifier) {
	verifier := security.NewSignatureVerifier(testSecret)
	uc := usecase.NewPaymentUseCase(gw, verifier, newLogger())
	return api.NewServer(uc, "PostSync Payment API", newLogger()).Routes(), verifier
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details string          `json:"details"`
	TraceID string          `json:"traceId"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v, body=%s", err, rec.Body.String())
	}
	return env
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	h := rec.Header()
	if h.Get("Access-Control-Allow-Origin") != "*" ||
		h.Get("Access-Control-Allow-Methods") != "GET, POST, OPTIONS" ||
		h.Get("Access-Control-Allow-Headers") != "Content-Type" {
		t.Fatalf("missing CORS headers: %v", h)
	}
}

//
// -------------------- tests --------------------
//

func TestCreateOrder_AllPaths(t *testing.T) {
	t.Run("200 relays provider order and sends amount*100", func(t *testing.T) {
		gw := &recordingGateway{}
		r, _ := newRouter(gw)

		rec := do(r, http.MethodPost, api.PathOrder, `{"amount": 500, "orderId": "ord_1"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		assertCORS(t, rec)

		env := decodeEnvelope(t, rec)
		if !env.Success {
			t.Fatalf("want success, body=%s", rec.Body.String())
		}
		var order map[string]any
		if err := json.Unmarshal(env.Data, &order); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if order["id"] != "order_TEST1" || order["amount"].(float64) != 50000 {
			t.Fatalf("order not relayed verbatim: %v", order)
		}

		if len(gw.calls) != 1 {
			t.Fatalf("want 1 provider call, got %d", len(gw.calls))
		}
		got := gw.calls[0]
		if got.Amount != 50000 || got.Currency != "INR" || got.Receipt != "ord_1" || len(got.Notes) != 0 || got.Notes == nil {
			t.Fatalf("unexpected provider request: %+v", got)
		}
	})

	t.Run("400 missing amount never calls provider", func(t *testing.T) {
		for _, body := range []string{
			`{"orderId":"ord_1"}`, `{"amount":0}`, `{"amount":null}`, "",
			`{"amount":""}`, `{"amount":false}`, `{"amount":"0"}`,
		} {
			gw := &recordingGateway{}
			r, _ := newRouter(gw)

			rec := do(r, http.MethodPost, api.PathOrder, body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("body %q: want 400, got %d", body, rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Success || env.Error != "Amount is required" {
				t.Fatalf("body %q: unexpected envelope %+v", body, env)
			}
			if len(gw.calls) != 0 {
				t.Fatalf("body %q: provider must not be called", body)
			}
		}
	})

	t.Run("400 oversized notes", func(t *testing.T) {
		gw := &recordingGateway{}
		r, _ := newRouter(gw)

		body := `{"amount":1,"notes":{"k":"` + strings.Repeat("x", model.MaxNoteValLen+1) + `"}}`
		rec := do(r, http.MethodPost, api.PathOrder, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
		if len(gw.calls) != 0 {
			t.Fatal("provider must not be called")
		}
	})

	t.Run("400 out of range amount is rejected quickly", func(t *testing.T) {
		for _, body := range []string{`{"amount":1e20000000}`, `{"amount":"1e-20000000"}`} {
			gw := &recordingGateway{}
			r, _ := newRouter(gw)

			start := time.Now()
			rec := do(r, http.MethodPost, api.PathOrder, body)
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Fatalf("body %q: took %s", body, elapsed)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("body %q: want 400, got %d", body, rec.Code)
			}
			if len(gw.calls) != 0 {
				t.Fatalf("body %q: provider must not be called", body)
			}
		}
	})

	t.Run("400 malformed json", func(t *testing.T) {
		r, _ := newRouter(&recordingGateway{})

		rec := do(r, http.MethodPost, api.PathOrder, `{"amount":`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Error != "Invalid request body" {
			t.Fatalf("unexpected envelope %+v", env)
		}
	})

	t.Run("500 upstream failure passes message through", func(t *testing.T) {
		gw := &recordingGateway{err: errors.New("Authentication failed")}
		r, _ := newRouter(gw)

		rec := do(r, http.MethodPost, api.PathOrder, `{"amount":10}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("want 500, got %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Success || env.Error != "Failed to create order" || env.Details != "Authentication failed" {
			t.Fatalf("unexpected envelope %+v", env)
		}
		if len(gw.calls) != 1 {
			t.Fatalf("want exactly one attempt, got %d", len(gw.calls))
		}
	})
}

func TestVerify_AllPaths(t *testing.T) {
	t.Run("200 valid signature", func(t *testing.T) {
		r, v := newRouter(&recordingGateway{})

		body := `{"razorpay_order_id":"o1","razorpay_payment_id":"p1","razorpay_signature":"` + v.Sign("o1", "p1") + `"}`
		rec := do(r, http.MethodPost, api.PathVerify, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		env := decodeEnvelope(t, rec)
		if !env.Success || env.Message != "Payment verified successfully" {
			t.Fatalf("unexpected envelope %+v", env)
		}
	})

	t.Run("400 invalid signature", func(t *testing.T) {
		r, v := newRouter(&recordingGateway{})

		sig := []byte(v.Sign("o1", "p1"))
		sig[len(sig)-1] ^= 0x01
		body := `{"razorpay_order_id":"o1","razorpay_payment_id":"p1","razorpay_signature":"` + string(sig) + `"}`
		rec := do(r, http.MethodPost, api.PathVerify, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Success || env.Error != "Invalid signature" {
			t.Fatalf("unexpected envelope %+v", env)
		}
	})

	t.Run("400 missing parameters", func(t *testing.T) {
		r, _ := newRouter(&recordingGateway{})

		for _, body := range []string{
			`{"razorpay_payment_id":"p1","razorpay_signature":"s"}`,
			`{"razorpay_order_id":"o1","razorpay_signature":"s"}`,
			`{"razorpay_order_id":"o1","razorpay_payment_id":"p1"}`,
			`{}`,
		} {
			rec := do(r, http.MethodPost, api.PathVerify, body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("body %s: want 400, got %d", body, rec.Code)
			}
			if env := decodeEnvelope(t, rec); env.Error != "Missing required parameters" {
				t.Fatalf("body %s: unexpected envelope %+v", body, env)
			}
		}
	})
}

func TestHealthAndIntrospection(t *testing.T) {
	r, _ := newRouter(&recordingGateway{})

	t.Run("health reports initialized gateway", func(t *testing.T) {
		rec := do(r, http.MethodGet, api.PathHealth, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		var body struct {
			Status              string `json:"status"`
			Timestamp           string `json:"timestamp"`
			RazorpayInitialized bool   `json:"razorpayInitialized"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != "ok" || !body.RazorpayInitialized || !strings.HasSuffix(body.Timestamp, "Z") {
			t.Fatalf("unexpected health body %+v", body)
		}
	})

	t.Run("root lists endpoints", func(t *testing.T) {
		rec := do(r, http.MethodGet, api.PathRoot, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		var body struct {
			Name      string            `json:"name"`
			Status    string            `json:"status"`
			Endpoints map[string]string `json:"endpoints"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Name != "PostSync Payment API" || body.Status != "online" {
			t.Fatalf("unexpected root body %+v", body)
		}
		if body.Endpoints["razorpayOrder"] != api.PathOrder || body.Endpoints["razorpayVerify"] != api.PathVerify || body.Endpoints["health"] != api.PathHealth {
			t.Fatalf("unexpected endpoints %v", body.Endpoints)
		}
	})

	t.Run("test-cors echoes headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, api.PathCORS, nil)
		req.Header.Set("Origin", "https://app.example")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		var body struct {
			Message        string            `json:"message"`
			Headers        map[string]string `json:"headers"`
			RequestHeaders map[string]string `json:"requestHeaders"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Message != "CORS test successful" || body.Headers["allowOrigin"] != "*" || body.Headers["allowMethods"] != "GET, POST, OPTIONS" {
			t.Fatalf("unexpected body %+v", body)
		}
		if body.RequestHeaders["origin"] != "https://app.example" {
			t.Fatalf("request headers not echoed: %v", body.RequestHeaders)
		}
	})

	t.Run("metrics endpoint is served", func(t *testing.T) {
		rec := do(r, http.MethodGet, api.PathMetric, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})
}

func TestCORS_Preflight(t *testing.T) {
	r, _ := newRouter(&recordingGateway{})

	for _, path := range []string{api.PathOrder, api.PathVerify, "/anything"} {
		rec := do(r, http.MethodOptions, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: want 200, got %d", path, rec.Code)
		}
		assertCORS(t, rec)
	}

	rec := do(r, http.MethodGet, "/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
	assertCORS(t, rec)
}

func TestRecover_PanicBecomesEnvelope(t *testing.T) {
	h := api.Chain(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
		api.CORS(), api.Recover(newLogger()),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success || env.Error == "" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	assertCORS(t, rec)
}

func TestTraceID_SetsHeader(t *testing.T) {
	r, _ := newRouter(&recordingGateway{})
	rec := do(r, http.MethodGet, api.PathHealth, "")
	if rec.Header().Get(api.HeaderTraceID) == "" {
		t.Fatal("expected trace id header")
	}
}

func TestTraceID_EchoedInErrorEnvelope(t *testing.T) {
	r, _ := newRouter(&recordingGateway{})
	rec := do(r, http.MethodPost, api.PathOrder, `{"amount":false}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	tid := rec.Header().Get(api.HeaderTraceID)
	if tid == "" {
		t.Fatal("expected trace id header")
	}
	if env := decodeEnvelope(t, rec); env.TraceID != tid {
		t.Fatalf("envelope trace id %q, header %q", env.TraceID, tid)
	}

	ok := do(r, http.MethodPost, api.PathOrder, `{"amount":1}`)
	if env := decodeEnvelope(t, ok); env.TraceID != "" {
		t.Fatalf("success envelope should not carry a trace id, got %q", env.TraceID)
	}
}
