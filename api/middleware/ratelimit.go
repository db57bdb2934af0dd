package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter applies token buckets per client IP and, for ledger
// mutations, a stricter bucket plus a daily cap per signer
type RateLimiter struct {
	config *RateLimitConfig

	buckets   map[string]*bucket
	bucketsMu sync.Mutex

	dailyCounters   map[string]*DailyCounter
	dailyCountersMu sync.Mutex

	cleanupTicker *time.Ticker
	stopCh        chan struct{}
	stopOnce      sync.Once
	now           func() time.Time
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	// IP-based limits
	IPRequestsPerSecond int `mapstructure:"ip_requests_per_second"`
	IPBurst             int `mapstructure:"ip_burst"`

	// Signer limits on enter, add-fee, claim and close
	MutationsPerSecond int `mapstructure:"mutations_per_second"`
	MutationBurst      int `mapstructure:"mutation_burst"`
	MutationsPerDay    int `mapstructure:"mutations_per_day"`

	// Cleanup
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	BucketTTL       time.Duration `mapstructure:"bucket_ttl"`
}

// DefaultRateLimitConfig returns default configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		IPRequestsPerSecond: 100,
		IPBurst:             200,

		MutationsPerSecond: 5,
		MutationBurst:      10,
		MutationsPerDay:    5000,

		CleanupInterval: 5 * time.Minute,
		BucketTTL:       time.Hour,
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// DailyCounter tracks daily request counts
type DailyCounter struct {
	count int
	limit int
	date  string
	mu    sync.Mutex
}

// RateLimitInfo contains rate limit information
type RateLimitInfo struct {
	Allowed    bool   `json:"allowed"`
	Remaining  int    `json:"remaining"`
	Limit      int    `json:"limit"`
	RetryAfter int    `json:"retry_after,omitempty"`
	LimitType  string `json:"limit_type"`
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	rl := &RateLimiter{
		config:        config,
		buckets:       make(map[string]*bucket),
		dailyCounters: make(map[string]*DailyCounter),
		cleanupTicker: time.NewTicker(config.CleanupInterval),
		stopCh:        make(chan struct{}),
		now:           time.Now,
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the rate limiter
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
		rl.cleanupTicker.Stop()
	})
}

func (rl *RateLimiter) cleanupLoop() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup removes idle buckets and past days' counters
func (rl *RateLimiter) cleanup() {
	now := rl.now()
	threshold := now.Add(-rl.config.BucketTTL)

	rl.bucketsMu.Lock()
	for key, b := range rl.buckets {
		if b.lastSeen.Before(threshold) {
			delete(rl.buckets, key)
		}
	}
	rl.bucketsMu.Unlock()

	today := now.Format("2006-01-02")
	rl.dailyCountersMu.Lock()
	for key, counter := range rl.dailyCounters {
		if counter.date != today {
			delete(rl.dailyCounters, key)
		}
	}
	rl.dailyCountersMu.Unlock()
}

func (rl *RateLimiter) getBucket(key string, perSecond, burst int) *bucket {
	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = rl.now()
	return b
}

func (rl *RateLimiter) getDailyCounter(key string) *DailyCounter {
	today := rl.now().Format("2006-01-02")
	counterKey := key + ":" + today

	rl.dailyCountersMu.Lock()
	defer rl.dailyCountersMu.Unlock()

	counter, ok := rl.dailyCounters[counterKey]
	if !ok {
		counter = &DailyCounter{limit: rl.config.MutationsPerDay, date: today}
		rl.dailyCounters[counterKey] = counter
	}
	return counter
}

// AllowIP checks if a request from an IP is allowed
func (rl *RateLimiter) AllowIP(ip string) (bool, *RateLimitInfo) {
	b := rl.getBucket("ip:"+ip, rl.config.IPRequestsPerSecond, rl.config.IPBurst)
	return rl.tryConsume(b)
}

// AllowMutation checks if signer may submit another ledger mutation
func (rl *RateLimiter) AllowMutation(signer string) (bool, *RateLimitInfo) {
	b := rl.getBucket("signer:"+signer, rl.config.MutationsPerSecond, rl.config.MutationBurst)
	allowed, info := rl.tryConsume(b)
	if !allowed {
		return false, info
	}

	counter := rl.getDailyCounter("signer:" + signer)
	counter.mu.Lock()
	defer counter.mu.Unlock()

	if counter.count >= counter.limit {
		return false, &RateLimitInfo{
			Allowed:    false,
			Remaining:  0,
			Limit:      counter.limit,
			RetryAfter: rl.secondsUntilMidnight(),
			LimitType:  "daily",
		}
	}

	counter.count++
	return true, &RateLimitInfo{
		Allowed:   true,
		Remaining: counter.limit - counter.count,
		Limit:     counter.limit,
		LimitType: "daily",
	}
}

func (rl *RateLimiter) tryConsume(b *bucket) (bool, *RateLimitInfo) {
	now := rl.now()
	limit := b.limiter.Burst()

	if b.limiter.AllowN(now, 1) {
		return true, &RateLimitInfo{
			Allowed:   true,
			Remaining: int(b.limiter.TokensAt(now)),
			Limit:     limit,
			LimitType: "rate",
		}
	}

	retryAfter := 1
	if perSecond := float64(b.limiter.Limit()); perSecond > 0 {
		missing := 1 - b.limiter.TokensAt(now)
		retryAfter = int(math.Ceil(missing / perSecond))
		if retryAfter < 1 {
			retryAfter = 1
		}
	}
	return false, &RateLimitInfo{
		Allowed:    false,
		Remaining:  0,
		Limit:      limit,
		RetryAfter: retryAfter,
		LimitType:  "rate",
	}
}

func (rl *RateLimiter) secondsUntilMidnight() int {
	now := rl.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	return int(midnight.Sub(now).Seconds())
}

// ============ HTTP Middleware ============

// RateLimitMiddleware limits every request by client IP
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, info := rl.AllowIP(getClientIP(r))
			setLimitHeaders(w, info)
			if !allowed {
				reject(w, "rate_limit_exceeded", "Too many requests, please slow down", info)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MutationRateLimitMiddleware limits ledger mutations by signer. The signer
// comes from the request context or, failing that, the JSON body.
func MutationRateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signer := SignerFromContext(r.Context())
			if signer == "" {
				signer = signerFromBody(r)
				if signer == "" {
					next.ServeHTTP(w, r)
					return
				}
				r = r.WithContext(WithSigner(r.Context(), signer))
			}

			allowed, info := rl.AllowMutation(signer)
			if !allowed {
				setLimitHeaders(w, info)
				reject(w, "mutation_limit_exceeded", "Mutation "+info.LimitType+" limit exceeded", info)
				return
			}
			w.Header().Set("X-RateLimit-Mutation-Remaining", strconv.Itoa(info.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

func setLimitHeaders(w http.ResponseWriter, info *RateLimitInfo) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(info.RetryAfter))
	}
}

func reject(w http.ResponseWriter, code, message string, info *RateLimitInfo) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":       code,
		"message":     message,
		"retry_after": info.RetryAfter,
		"limit_type":  info.LimitType,
	})
}

type contextKey string

const signerContextKey contextKey = "signer"

// WithSigner stores the signing address of a mutation in ctx
func WithSigner(ctx context.Context, signer string) context.Context {
	return context.WithValue(ctx, signerContextKey, signer)
}

// SignerFromContext returns the signer stored by WithSigner
func SignerFromContext(ctx context.Context) string {
	if signer, ok := ctx.Value(signerContextKey).(string); ok {
		return signer
	}
	return ""
}

const maxPeekBytes = 1 << 20

// signerFromBody reads the signing field of a mutation body and restores the
// body for the handler
func signerFromBody(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var fields struct {
		Authority string `json:"authority"`
		Staker    string `json:"staker"`
		Payer     string `json:"payer"`
		Owner     string `json:"owner"`
	}
	if json.Unmarshal(body, &fields) != nil {
		return ""
	}
	for _, signer := range []string{fields.Authority, fields.Staker, fields.Payer, fields.Owner} {
		if signer != "" {
			return signer
		}
	}
	return ""
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}

// ============ Statistics ============

// Stats returns rate limiter statistics
type Stats struct {
	TotalBuckets  int `json:"total_buckets"`
	DailyCounters int `json:"daily_counters"`
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() *Stats {
	rl.bucketsMu.Lock()
	buckets := len(rl.buckets)
	rl.bucketsMu.Unlock()

	rl.dailyCountersMu.Lock()
	counters := len(rl.dailyCounters)
	rl.dailyCountersMu.Unlock()

	return &Stats{TotalBuckets: buckets, DailyCounters: counters}
}
