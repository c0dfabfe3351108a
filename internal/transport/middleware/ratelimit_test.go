package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, perMinute, burst int) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(perMinute, burst, time.Minute)
	t.Cleanup(rl.Stop)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func serve(h http.Handler, remote string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/patrons/requests/place", nil)
	req.RemoteAddr = remote
	h.ServeHTTP(rec, req)
	return rec
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter_AllowsBurst(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(t, 60, 10)
	handler := rl.Limit()(okHandler)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, serve(handler, "1.2.3.4:1234").Code, "request %d should be allowed", i)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(t, 60, 5)
	handler := rl.Limit()(okHandler)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(handler, "1.2.3.4:1234").Code)
	}

	rec := serve(handler, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_PortDoesNotSplitClient(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(t, 60, 1)
	handler := rl.Limit()(okHandler)

	assert.Equal(t, http.StatusOK, serve(handler, "1.2.3.4:1111").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, "1.2.3.4:2222").Code)
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(t, 60, 2)
	handler := rl.Limit()(okHandler)

	serve(handler, "1.1.1.1:1234")
	serve(handler, "1.1.1.1:1234")

	assert.Equal(t, http.StatusOK, serve(handler, "2.2.2.2:5678").Code)
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	t.Parallel()

	// 60 per minute refills one token per second.
	rl, clock := newTestLimiter(t, 60, 3)
	handler := rl.Limit()(okHandler)

	for i := 0; i < 3; i++ {
		serve(handler, "3.3.3.3:1234")
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, "3.3.3.3:1234").Code)

	*clock = clock.Add(1100 * time.Millisecond)
	assert.Equal(t, http.StatusOK, serve(handler, "3.3.3.3:1234").Code)
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(t, 60, 1)
	handler := rl.Limit()(okHandler)

	serve(handler, "4.4.4.4:1234")
	rl.evictIdle(clock.Add(idleClientTTL + time.Second))

	rl.mu.Lock()
	n := len(rl.clients)
	rl.mu.Unlock()
	assert.Zero(t, n)
}
