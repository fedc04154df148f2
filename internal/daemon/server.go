package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/siva-netizen/Promptify/internal/config"
	"github.com/siva-netizen/Promptify/internal/logging"
	"github.com/siva-netizen/Promptify/internal/observability"
	"github.com/siva-netizen/Promptify/internal/rpc/refine"
	"github.com/siva-netizen/Promptify/internal/service"
	"github.com/siva-netizen/Promptify/internal/version"
)

// Server hosts the refinement endpoints plus health and metrics.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	runner  *refine.Runner
	metrics *observability.Metrics
}

// NewServer constructs a daemon instance from configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	logger = logging.OrNop(logger)
	metrics := observability.NewMetrics()

	svc, err := service.FromConfig(cfg, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("build service: %w", err)
	}
	return NewServerWith(cfg, refine.NewRunner(svc, logger), metrics, logger), nil
}

// NewServerWith constructs a daemon around an existing runner.
func NewServerWith(cfg *config.Config, runner *refine.Runner, metrics *observability.Metrics, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logging.OrNop(logger), runner: runner, metrics: metrics}
}

// Handler returns the routed HTTP handler. The Connect transport is served
// over h2c; the JSON endpoints work on both HTTP/1.1 and h2c.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", refine.HealthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle("/refine", refine.NewHandler(s.runner, s.metrics))
	mux.Handle("/refine/stream", refine.NewStreamHandler(s.runner, s.metrics))

	if s.transport() == "ndjson" {
		return mux
	}
	path, handler := refine.NewConnectHandler(s.runner, s.metrics)
	mux.Handle(path, handler)
	return h2c.NewHandler(mux, &http2.Server{})
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting promptify daemon",
			zap.String("addr", s.cfg.Server.Addr),
			zap.String("transport", s.transport()),
			zap.String("provider", s.cfg.Model.Provider),
			zap.String("version", version.Short()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down promptify daemon")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) transport() string {
	t := strings.ToLower(strings.TrimSpace(s.cfg.Server.Transport))
	if t == "" {
		return "connect"
	}
	return t
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled || s.metrics == nil {
		http.NotFound(w, r)
		return
	}
	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
