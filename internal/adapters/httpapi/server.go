package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/llm-scam-detector/internal/config"
	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/metrics"
	"github.com/mikey/llm-scam-detector/internal/ports"
	"github.com/mikey/llm-scam-detector/internal/ratelimit"
	"github.com/mikey/llm-scam-detector/internal/utils"
	"go.uber.org/zap"
)

// defaultShutdownTimeout bounds Stop when no shutdown timeout is configured
const defaultShutdownTimeout = 10 * time.Second

// Server is the HTTP frontend of the scam detector
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	ln      net.Listener
	cfg     config.HTTPConfig
	logger  *zap.Logger
}

// NewServer wires the router, middleware and handlers
func NewServer(
	cfg config.HTTPConfig,
	analyzer ports.Analyzer,
	m *metrics.Metrics,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *Server {
	handler := NewHandler(analyzer, textProcessor, cfg.MaxContentEcho, logger)
	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(logger))
	router.Use(MetricsMiddleware(m))
	router.Use(middleware.Recoverer)

	router.Get("/health", handler.Health)
	if m != nil {
		router.Method(http.MethodGet, "/metrics", m.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(limiter))
		r.Use(BodyLimitMiddleware(cfg.MaxRequestBytes))
		r.Post("/analyze", handler.Analyze)
	})

	return &Server{
		router:  router,
		handler: handler,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}

	s.ln = ln
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("HTTP API starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return defaultShutdownTimeout
}

// Addr returns the bound listen address, empty before Start
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// ProcessSubmission analyzes a submission directly
func (s *Server) ProcessSubmission(ctx context.Context, sub *core.Submission) (*core.RiskAssessment, error) {
	return s.handler.analyzer.Analyze(ctx, sub)
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
