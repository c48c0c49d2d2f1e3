package grantref

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grant-allocator/allocator/grantref/domain"
	"grant-allocator/allocator/grantref/infra"
)

func newTestPool(t *testing.T, capacity, reserved int, opts Options) *Pool {
	t.Helper()
	pool, err := New(infra.NewMemDriver(capacity, reserved), opts)
	if err != nil {
		t.Fatalf("pool init: %v", err)
	}
	return pool
}

func TestHandler_AcquireReturnsHandleText(t *testing.T) {
	pool := newTestPool(t, 10, 3, Options{})
	h := Handler(HandlerOptions{Pool: pool})

	r := httptest.NewRequest(http.MethodPost, "http://example/acquire", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body, _ := io.ReadAll(w.Result().Body)
	if got := strings.TrimSpace(string(body)); got != "3" {
		t.Fatalf("expected first handle \"3\", got %q", got)
	}
	if pool.Held() != 1 {
		t.Fatalf("expected 1 handle held, got %d", pool.Held())
	}
}

func TestHandler_AcquireTimesOutWith503(t *testing.T) {
	pool := newTestPool(t, 5, 5, Options{AcquireTimeout: 15 * time.Millisecond})
	h := Handler(HandlerOptions{Pool: pool, RetryAfter: 2 * time.Second})

	r := httptest.NewRequest(http.MethodPost, "http://example/acquire", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After=2, got %q", got)
	}
}

type denyAllStore struct{}

type denyLimiter struct{}

func (denyLimiter) Allow() bool { return false }

func (denyAllStore) Get(domain.Key) domain.Limiter { return denyLimiter{} }

func TestHandler_AcquireRateLimitedWith429(t *testing.T) {
	pool := newTestPool(t, 10, 3, Options{})
	h := Handler(HandlerOptions{Pool: pool, Limiters: denyAllStore{}})

	r := httptest.NewRequest(http.MethodPost, "http://example/acquire", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if pool.Held() != 0 {
		t.Fatalf("expected no handle taken on rate-limited request, got %d", pool.Held())
	}
}

func TestHandler_ReleaseRoundTrip(t *testing.T) {
	pool := newTestPool(t, 10, 3, Options{})
	h := Handler(HandlerOptions{Pool: pool})

	r := httptest.NewRequest(http.MethodPost, "http://example/acquire", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	body, _ := io.ReadAll(w.Result().Body)
	ref := strings.TrimSpace(string(body))

	r2 := httptest.NewRequest(http.MethodPost, "http://example/release?ref="+ref, nil)
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)

	if w2.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w2.Code)
	}
	if pool.Free() != 7 {
		t.Fatalf("expected full free queue after release, got %d", pool.Free())
	}
}

func TestHandler_ReleaseOfUnheldHandleIs409(t *testing.T) {
	pool := newTestPool(t, 10, 3, Options{})
	h := Handler(HandlerOptions{Pool: pool})

	r := httptest.NewRequest(http.MethodPost, "http://example/release?ref=4", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestHandler_ReleaseWithBadRefIs400(t *testing.T) {
	pool := newTestPool(t, 10, 3, Options{})
	h := Handler(HandlerOptions{Pool: pool})

	for _, ref := range []string{"", "abc", "-1"} {
		r := httptest.NewRequest(http.MethodPost, "http://example/release?ref="+ref, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("ref %q: expected 400, got %d", ref, w.Code)
		}
	}
}

func TestHandler_StatusSnapshot(t *testing.T) {
	pool := newTestPool(t, 10, 3, Options{})
	h := Handler(HandlerOptions{Pool: pool})

	r := httptest.NewRequest(http.MethodPost, "http://example/acquire", nil)
	h.ServeHTTP(httptest.NewRecorder(), r)

	r2 := httptest.NewRequest(http.MethodGet, "http://example/status", nil)
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)

	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w2.Code)
	}
	var got map[string]int
	if err := json.NewDecoder(w2.Result().Body).Decode(&got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	want := map[string]int{"capacity": 10, "reserved": 3, "free": 6, "held": 1}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("status %s: expected %d, got %d", k, v, got[k])
		}
	}
}

func TestHandler_MethodsAreEnforced(t *testing.T) {
	pool := newTestPool(t, 10, 3, Options{})
	h := Handler(HandlerOptions{Pool: pool})

	r := httptest.NewRequest(http.MethodGet, "http://example/acquire", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET /acquire, got %d", w.Code)
	}
}
