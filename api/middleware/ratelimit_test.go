package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg *RateLimitConfig) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(cfg)
	t.Cleanup(rl.Stop)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowIPBurstThenRefill(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.IPRequestsPerSecond = 2
	cfg.IPBurst = 2
	rl, now := newTestLimiter(t, cfg)

	for i := 0; i < 2; i++ {
		allowed, _ := rl.AllowIP("10.0.0.1")
		require.True(t, allowed)
	}
	allowed, info := rl.AllowIP("10.0.0.1")
	require.False(t, allowed)
	require.Equal(t, "rate", info.LimitType)
	require.GreaterOrEqual(t, info.RetryAfter, 1)

	// Other clients have their own bucket
	allowed, _ = rl.AllowIP("10.0.0.2")
	require.True(t, allowed)

	*now = now.Add(time.Second)
	allowed, _ = rl.AllowIP("10.0.0.1")
	require.True(t, allowed)
}

func TestAllowMutationDailyCap(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.MutationsPerSecond = 100
	cfg.MutationBurst = 100
	cfg.MutationsPerDay = 3
	rl, now := newTestLimiter(t, cfg)

	for i := 0; i < 3; i++ {
		allowed, info := rl.AllowMutation("alice")
		require.True(t, allowed)
		require.Equal(t, 2-i, info.Remaining)
	}
	allowed, info := rl.AllowMutation("alice")
	require.False(t, allowed)
	require.Equal(t, "daily", info.LimitType)
	require.Equal(t, 12*60*60, info.RetryAfter)

	*now = now.Add(24 * time.Hour)
	allowed, _ = rl.AllowMutation("alice")
	require.True(t, allowed)
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.BucketTTL = time.Minute
	rl, now := newTestLimiter(t, cfg)

	rl.AllowIP("10.0.0.1")
	rl.AllowMutation("alice")
	require.Equal(t, &Stats{TotalBuckets: 2, DailyCounters: 1}, rl.GetStats())

	*now = now.Add(25 * time.Hour)
	rl.cleanup()
	require.Equal(t, &Stats{}, rl.GetStats())
}

func TestMutationMiddlewareKeysBySigner(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.MutationsPerSecond = 1
	cfg.MutationBurst = 1
	rl, _ := newTestLimiter(t, cfg)

	var seenBody string
	handler := MutationRateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seenBody = string(body)
		require.NotEmpty(t, SignerFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/claim", bytes.NewBufferString(body)))
		return rec
	}

	rec := post(`{"staker":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"staker":"alice"}`, seenBody)
	require.Equal(t, "4999", rec.Header().Get("X-RateLimit-Mutation-Remaining"))

	require.Equal(t, http.StatusTooManyRequests, post(`{"staker":"alice"}`).Code)
	require.Equal(t, http.StatusOK, post(`{"payer":"bob"}`).Code)

	// Close is keyed by the closing authority, not the owner
	require.Equal(t, http.StatusOK, post(`{"authority":"carol","owner":"alice"}`).Code)
}

func TestRateLimitMiddlewareHeaders(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.IPRequestsPerSecond = 1
	cfg.IPBurst = 1
	rl, _ := newTestLimiter(t, cfg)

	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/pool", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	require.Equal(t, "192.0.2.10", getClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	require.Equal(t, "198.51.100.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", getClientIP(req))
}
