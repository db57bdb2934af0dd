package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"cosmossdk.io/log"
	"github.com/felixge/httpsnoop"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/openalpha/nos-rewards/api/handlers"
	"github.com/openalpha/nos-rewards/api/middleware"
	"github.com/openalpha/nos-rewards/api/types"
	"github.com/openalpha/nos-rewards/api/websocket"
	"github.com/openalpha/nos-rewards/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	config     *Config
	logger     log.Logger

	service types.LedgerService
	handler *handlers.RewardsHandler
	hub     *websocket.Hub
	metrics *metrics.Collector

	rateLimiter *middleware.RateLimiter
}

// NewServer creates the server with an in-process ledger
func NewServer(config *Config, logger log.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	collector := metrics.GetCollector()
	hub := websocket.NewHub(&config.Hub, collector)

	service, err := NewLedgerService(LedgerServiceConfig{
		Authority:    config.Authority,
		Denom:        config.Denom,
		EnableFaucet: config.EnableFaucet,
		DataDir:      config.DataDir,
	}, hub, collector, logger)
	if err != nil {
		return nil, err
	}

	return NewServerWithService(config, service, hub, collector, logger), nil
}

// NewServerWithService creates a server around an existing ledger service.
// hub and collector may be nil.
func NewServerWithService(config *Config, service types.LedgerService, hub *websocket.Hub, collector *metrics.Collector, logger log.Logger) *Server {
	if hub == nil {
		hub = websocket.NewHub(&config.Hub, collector)
	}
	return &Server{
		config:      config,
		logger:      logger.With("module", "api"),
		service:     service,
		handler:     handlers.NewRewardsHandler(service, collector),
		hub:         hub,
		metrics:     collector,
		rateLimiter: middleware.NewRateLimiter(&config.RateLimit),
	}
}

// Router builds the HTTP handler with its middleware chain:
// recovery -> CORS -> IP rate limit -> routes (-> signer limit on mutations)
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.instrument)

	s.handler.RegisterQueries(router)
	router.HandleFunc("/ws", s.hub.ServeWS)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	mutations := router.NewRoute().Subrouter()
	if !s.config.DisableRateLimit {
		mutations.Use(middleware.MutationRateLimitMiddleware(s.rateLimiter))
	}
	s.handler.RegisterMutations(mutations)

	var handler http.Handler = router
	if !s.config.DisableRateLimit {
		handler = middleware.RateLimitMiddleware(s.rateLimiter)(handler)
	}
	handler = cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(handler)
	return gorillahandlers.RecoveryHandler(gorillahandlers.PrintRecoveryStack(true))(handler)
}

// instrument records request counts and latency per route template
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		if s.metrics != nil {
			s.metrics.RecordAPIRequest(r.Method, handlers.RouteTemplate(r), strconv.Itoa(m.Code),
				float64(m.Duration.Microseconds())/1000.0)
		}
	})
}

// Start serves until Stop is called
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go s.hub.Run()

	s.logger.Info("API server starting",
		"addr", addr,
		"authority", s.config.Authority,
		"denom", s.config.Denom,
		"faucet", s.config.EnableFaucet,
		"rate_limit", !s.config.DisableRateLimit,
		"data_dir", s.config.DataDir,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server, then closes the ledger
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Stop()
	s.rateLimiter.Stop()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.service.Shutdown()
}
