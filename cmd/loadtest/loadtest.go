package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Config controls a load test run against the gateway
type Config struct {
	BaseURL      string
	Concurrency  int
	Duration     time.Duration
	RampUp       time.Duration
	Participants int    // per worker
	FeeAmount    uint64 // paid per add-fee
	FeeRatio     float64
}

// Results accumulates request outcomes across workers
type Results struct {
	TotalRequests     int64
	SuccessRequests   int64
	FailedRequests    int64
	TotalLatency      int64 // microseconds
	MinLatency        int64
	MaxLatency        int64
	Latencies         []int64
	StatusCodes       map[int]int64
	Operations        map[string]int64
	Errors            map[string]int64
	StartTime         time.Time
	EndTime           time.Time
	RequestsPerSecond float64
	mu                sync.Mutex
}

// LoadTester drives stake, enter, add-fee and claim traffic through the gateway.
// Each worker owns its participants so their entries never race each other.
type LoadTester struct {
	config  *Config
	results *Results
	client  *http.Client
	logger  log.Logger
	payer   string
	wg      sync.WaitGroup
	stopCh  chan struct{}
}

func NewLoadTester(config *Config, logger log.Logger) *LoadTester {
	return &LoadTester{
		config: config,
		results: &Results{
			MinLatency:  int64(^uint64(0) >> 1),
			StatusCodes: make(map[int]int64),
			Operations:  make(map[string]int64),
			Errors:      make(map[string]int64),
		},
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        1000,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
		payer:  participantAddress(0xffff, 0),
		stopCh: make(chan struct{}),
	}
}

// participantAddress derives a stable account address for worker w's i-th participant
func participantAddress(w, i int) string {
	raw := make([]byte, 20)
	copy(raw, "loadtest")
	binary.BigEndian.PutUint32(raw[12:], uint32(w))
	binary.BigEndian.PutUint32(raw[16:], uint32(i))
	return sdk.AccAddress(raw).String()
}

// Run checks the gateway, funds the fee payer, runs the workers for
// Duration and returns the collected results
func (lt *LoadTester) Run() (*Results, error) {
	if err := lt.checkHealth(); err != nil {
		return nil, fmt.Errorf("gateway unhealthy: %w", err)
	}

	// Enough for every fee the run could plausibly pay
	funding := lt.config.FeeAmount * 1_000_000
	if status, err := lt.post("/v1/fund", map[string]interface{}{"address": lt.payer, "amount": funding}); err != nil || status != http.StatusOK {
		return nil, fmt.Errorf("funding fee payer failed (status %d): %v", status, err)
	}

	lt.logger.Info("Starting load test",
		"url", lt.config.BaseURL,
		"workers", lt.config.Concurrency,
		"participants_per_worker", lt.config.Participants,
		"duration", lt.config.Duration,
	)
	lt.results.StartTime = time.Now()

	step := lt.config.RampUp / time.Duration(lt.config.Concurrency)
	for i := 0; i < lt.config.Concurrency; i++ {
		lt.wg.Add(1)
		go lt.worker(i)
		if step > 0 {
			time.Sleep(step)
		}
	}

	go lt.reportProgress()

	time.Sleep(lt.config.Duration)
	close(lt.stopCh)
	lt.wg.Wait()

	lt.results.EndTime = time.Now()
	lt.calculateMetrics()
	return lt.results, nil
}

func (lt *LoadTester) checkHealth() error {
	resp, err := lt.client.Get(lt.config.BaseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy status: %d", resp.StatusCode)
	}
	return nil
}

func (lt *LoadTester) worker(id int) {
	defer lt.wg.Done()

	entered := make([]bool, lt.config.Participants)
	owners := make([]string, lt.config.Participants)
	for i := range owners {
		owners[i] = participantAddress(id, i)
		amount := fmt.Sprintf("%d", 1000+rand.Intn(1_000_000))
		lt.call("stake", "/v1/stake", map[string]interface{}{"owner": owners[i], "amount": amount})
	}

	for {
		select {
		case <-lt.stopCh:
			return
		default:
		}

		i := rand.Intn(len(owners))
		switch {
		case rand.Float64() < lt.config.FeeRatio:
			lt.call("add-fee", "/v1/add-fee", map[string]interface{}{"payer": lt.payer, "amount": lt.config.FeeAmount})
		case !entered[i]:
			entered[i] = lt.call("enter", "/v1/enter", map[string]string{"staker": owners[i]})
		case rand.Float32() < 0.5:
			lt.get("claimable", "/v1/claimable/"+owners[i])
		default:
			// Claiming exits, so the participant re-enters on a later pick
			if lt.call("claim", "/v1/claim", map[string]string{"staker": owners[i]}) {
				entered[i] = false
			}
		}
	}
}

func (lt *LoadTester) post(path string, body interface{}) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	resp, err := lt.client.Post(lt.config.BaseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// call posts body to path and records the outcome under op
func (lt *LoadTester) call(op, path string, body interface{}) bool {
	start := time.Now()
	status, err := lt.post(path, body)
	return lt.record(op, time.Since(start).Microseconds(), status, err)
}

func (lt *LoadTester) get(op, path string) bool {
	start := time.Now()
	resp, err := lt.client.Get(lt.config.BaseURL + path)
	status := 0
	if err == nil {
		status = resp.StatusCode
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	return lt.record(op, time.Since(start).Microseconds(), status, err)
}

func (lt *LoadTester) record(op string, latency int64, status int, err error) bool {
	success := err == nil && (status == http.StatusOK || status == http.StatusCreated)

	atomic.AddInt64(&lt.results.TotalRequests, 1)
	atomic.AddInt64(&lt.results.TotalLatency, latency)
	if success {
		atomic.AddInt64(&lt.results.SuccessRequests, 1)
	} else {
		atomic.AddInt64(&lt.results.FailedRequests, 1)
	}

	lt.results.mu.Lock()
	defer lt.results.mu.Unlock()

	lt.results.Latencies = append(lt.results.Latencies, latency)
	if latency < lt.results.MinLatency {
		lt.results.MinLatency = latency
	}
	if latency > lt.results.MaxLatency {
		lt.results.MaxLatency = latency
	}
	lt.results.Operations[op]++
	switch {
	case err != nil:
		lt.results.Errors["network_error"]++
	case !success:
		lt.results.StatusCodes[status]++
		lt.results.Errors[fmt.Sprintf("%s_%d", op, status)]++
	default:
		lt.results.StatusCodes[status]++
	}
	return success
}

func (lt *LoadTester) reportProgress() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-lt.stopCh:
			return
		case <-ticker.C:
			total := atomic.LoadInt64(&lt.results.TotalRequests)
			elapsed := time.Since(lt.results.StartTime).Seconds()
			lt.logger.Info("Progress",
				"requests", total,
				"rps", fmt.Sprintf("%.0f", float64(total)/elapsed),
				"success", atomic.LoadInt64(&lt.results.SuccessRequests),
				"failed", atomic.LoadInt64(&lt.results.FailedRequests),
			)
		}
	}
}

func (lt *LoadTester) calculateMetrics() {
	elapsed := lt.results.EndTime.Sub(lt.results.StartTime).Seconds()
	if elapsed > 0 {
		lt.results.RequestsPerSecond = float64(lt.results.TotalRequests) / elapsed
	}
	sort.Slice(lt.results.Latencies, func(i, j int) bool {
		return lt.results.Latencies[i] < lt.results.Latencies[j]
	})
}

// Percentile returns the p-th latency percentile in milliseconds. Latencies
// must already be sorted.
func (r *Results) Percentile(p float64) float64 {
	if len(r.Latencies) == 0 {
		return 0
	}
	index := int(float64(len(r.Latencies)) * p)
	if index >= len(r.Latencies) {
		index = len(r.Latencies) - 1
	}
	return float64(r.Latencies[index]) / 1000
}

// Summary condenses the results into a report
func (r *Results) Summary() map[string]interface{} {
	avgLatency, successRate := 0.0, 0.0
	if r.TotalRequests > 0 {
		avgLatency = float64(r.TotalLatency) / float64(r.TotalRequests) / 1000
		successRate = float64(r.SuccessRequests) / float64(r.TotalRequests) * 100
	}
	minLatency := 0.0
	if r.TotalRequests > 0 {
		minLatency = float64(r.MinLatency) / 1000
	}

	return map[string]interface{}{
		"summary": map[string]interface{}{
			"test_duration":       r.EndTime.Sub(r.StartTime).String(),
			"total_requests":      r.TotalRequests,
			"success_requests":    r.SuccessRequests,
			"failed_requests":     r.FailedRequests,
			"success_rate":        fmt.Sprintf("%.2f%%", successRate),
			"requests_per_second": r.RequestsPerSecond,
		},
		"latency": map[string]interface{}{
			"min_ms": minLatency,
			"max_ms": float64(r.MaxLatency) / 1000,
			"avg_ms": avgLatency,
			"p50_ms": r.Percentile(0.50),
			"p90_ms": r.Percentile(0.90),
			"p99_ms": r.Percentile(0.99),
		},
		"operations":   r.Operations,
		"status_codes": r.StatusCodes,
		"errors":       r.Errors,
	}
}

// SaveReport writes the summary as indented JSON
func (r *Results) SaveReport(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	report := r.Summary()
	report["timestamp"] = time.Now().Format(time.RFC3339)

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
