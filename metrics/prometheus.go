package metrics

import (
	"math/big"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rewards ledger metrics collector

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

const namespace = "rewards"

// Collector holds all rewards metrics
type Collector struct {
	// Ledger operation metrics
	OperationsTotal  *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	LedgerViolations *prometheus.CounterVec

	// Pool metrics
	PoolShareTotal     prometheus.Gauge
	PoolPrincipalTotal prometheus.Gauge
	PoolRate           prometheus.Gauge
	EntriesActive      prometheus.Gauge

	// Fee flow metrics
	FeesAdded     prometheus.Counter
	FeesClaimed   prometheus.Counter
	FeesForfeited prometheus.Counter

	// WebSocket metrics
	WSConnectionsActive prometheus.Gauge
	WSMessagesTotal     *prometheus.CounterVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector(prometheus.DefaultRegisterer)
	})
	return collector
}

// newCollector creates a collector registered with reg
func newCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{}

	// Ledger operation metrics
	c.OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by kind and outcome",
		},
		[]string{"op", "result"},
	)

	c.OperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_latency_ms",
			Help:      "Ledger operation latency in milliseconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		},
		[]string{"op"},
	)

	c.LedgerViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "violations_total",
			Help:      "Operations aborted by an internal consistency violation",
		},
		[]string{"op"},
	)

	// Pool metrics
	c.PoolShareTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "share_total",
			Help:      "Share units outstanding",
		},
	)

	c.PoolPrincipalTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "principal_total",
			Help:      "Principal plus unclaimed fee income held by the pool",
		},
	)

	c.PoolRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "rate",
			Help:      "Share units per principal unit",
		},
	)

	c.EntriesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "entries_active",
			Help:      "Number of live participant entries",
		},
	)

	// Fee flow metrics
	c.FeesAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "added_total",
			Help:      "Fee income paid into the vault",
		},
	)

	c.FeesClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "claimed_total",
			Help:      "Fee income paid out by claims",
		},
	)

	c.FeesForfeited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "forfeited_total",
			Help:      "Accrued fees left to the pool by closed entries",
		},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "WebSocket messages broadcast",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "API requests answered with an error, by error code",
		},
		[]string{"path", "code"},
	)

	c.registerAll(reg)

	return c
}

// registerAll registers all metrics with reg
func (c *Collector) registerAll(reg prometheus.Registerer) {
	reg.MustRegister(
		c.OperationsTotal,
		c.OperationLatency,
		c.LedgerViolations,
		c.PoolShareTotal,
		c.PoolPrincipalTotal,
		c.PoolRate,
		c.EntriesActive,
		c.FeesAdded,
		c.FeesClaimed,
		c.FeesForfeited,
		c.WSConnectionsActive,
		c.WSMessagesTotal,
		c.APIRequestsTotal,
		c.APIRequestLatency,
		c.APIErrorsTotal,
	)
}

// ============ Recording Helpers ============

// RecordOperation records the outcome and latency of a ledger operation
func (c *Collector) RecordOperation(op string, err error, latencyMs float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.OperationsTotal.WithLabelValues(op, result).Inc()
	c.OperationLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordViolation records an operation aborted by an internal error
func (c *Collector) RecordViolation(op string) {
	c.LedgerViolations.WithLabelValues(op).Inc()
}

// RecordPool publishes the pool snapshot
func (c *Collector) RecordPool(shareTotal, principalTotal, rate math.Int) {
	c.PoolShareTotal.Set(toFloat(shareTotal))
	c.PoolPrincipalTotal.Set(toFloat(principalTotal))
	c.PoolRate.Set(toFloat(rate))
}

// RecordEntries adjusts the live entry count
func (c *Collector) RecordEntries(delta int) {
	c.EntriesActive.Add(float64(delta))
}

// RecordFeeAdded records fee income paid into the vault
func (c *Collector) RecordFeeAdded(amount uint64) {
	c.FeesAdded.Add(float64(amount))
}

// RecordClaim records fees paid out by a claim
func (c *Collector) RecordClaim(earned math.Int) {
	c.FeesClaimed.Add(toFloat(earned))
}

// RecordForfeit records fees left behind by a close
func (c *Collector) RecordForfeit(forfeited math.Int) {
	c.FeesForfeited.Add(toFloat(forfeited))
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordAPIError records an API error response
func (c *Collector) RecordAPIError(path, code string) {
	c.APIErrorsTotal.WithLabelValues(path, code).Inc()
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.Add(float64(delta))
}

// RecordWSMessage records a broadcast WebSocket message
func (c *Collector) RecordWSMessage(channel string) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
}

func toFloat(v math.Int) float64 {
	if v.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
