package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/userctx"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, path, remote, userID string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	if userID != "" {
		req = req.WithContext(userctx.WithUserID(req.Context(), userID))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimit_SecondRequestReturns429(t *testing.T) {
	handler := RateLimitMiddleware(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}, okHandler())

	if code := hit(handler, "/v1/nutrition/totals", "1.2.3.4:12345", ""); code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/nutrition/totals", nil)
	req.RemoteAddr = "1.2.3.4:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After header")
	}

	var body map[string]map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["error"]["code"] != "rate_limited" {
		t.Errorf("expected code=rate_limited, got %v", body["error"]["code"])
	}
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	handler := RateLimitMiddleware(&config.Config{}, okHandler())

	for i := 0; i < 10; i++ {
		if code := hit(handler, "/v1/foods", "1.2.3.4:12345", ""); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
}

func TestRateLimit_KeysByUserBeforeIP(t *testing.T) {
	handler := RateLimitMiddleware(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}, okHandler())

	// two users behind the same NAT get separate buckets
	if code := hit(handler, "/v1/foods", "10.0.0.1:1", "user-a"); code != http.StatusOK {
		t.Fatalf("user-a: expected 200, got %d", code)
	}
	if code := hit(handler, "/v1/foods", "10.0.0.1:2", "user-b"); code != http.StatusOK {
		t.Fatalf("user-b: expected 200, got %d", code)
	}
	if code := hit(handler, "/v1/foods", "10.0.0.9:3", "user-a"); code != http.StatusTooManyRequests {
		t.Fatalf("user-a from another IP: expected 429, got %d", code)
	}

	// anonymous callers are keyed by IP
	if code := hit(handler, "/v1/foods", "5.6.7.8:1", ""); code != http.StatusOK {
		t.Fatalf("anonymous: expected 200, got %d", code)
	}
}

func TestRateLimit_HealthzExempt(t *testing.T) {
	handler := RateLimitMiddleware(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1}, okHandler())

	for i := 0; i < 5; i++ {
		if code := hit(handler, "/healthz", "1.2.3.4:1", ""); code != http.StatusOK {
			t.Fatalf("healthz %d: expected 200, got %d", i, code)
		}
	}
}

func TestClientIP_ForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:443"
	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")

	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}
