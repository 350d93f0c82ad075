// Package http serves the prediction pipeline over HTTP.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"diabetesapi/ml"
	"diabetesapi/monitoring"
	"diabetesapi/pipeline"

	"go.uber.org/zap"
)

// Server is the HTTP front of the service.
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig holds listener and request limits.
type ServerConfig struct {
	Port           int           `yaml:"port" validate:"gte=0,lte=65535"`
	Timeout        time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" validate:"gte=0"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// DefaultServerConfig returns the defaults used for unset config values.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           5000,
		Timeout:        30 * time.Second,
		MaxBodyBytes:   64 << 10,
		AllowedOrigins: []string{"*"},
	}
}

// Deps are the collaborators the handlers need. Metrics and Logger are
// optional.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Handle   *ml.Handle
	Metrics  *monitoring.Metrics
	Logger   *zap.Logger
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(config ServerConfig, deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	RegisterHandlers(mux, deps)
	return Chain(middlewareStack(config, deps)...)(mux)
}

// middlewareStack lists the layers outermost first. Recovery sits inside
// the access log and metrics so a recovered panic is logged and counted as
// a 500 under the request's ID.
func middlewareStack(config ServerConfig, deps Deps) []Middleware {
	middlewares := []Middleware{LoggerMiddleware(deps.Logger)}
	if deps.Metrics != nil {
		middlewares = append(middlewares, MetricsMiddleware(deps.Metrics))
	}
	middlewares = append(middlewares,
		RecoveryMiddleware(deps.Logger),
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
	)
	if config.MaxBodyBytes > 0 {
		middlewares = append(middlewares, RequestSizeMiddleware(config.MaxBodyBytes))
	}
	return middlewares
}

// NewServer creates the HTTP server.
func NewServer(config ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewHandler(config, deps),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// Start blocks serving until the server is stopped.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests for up to five seconds.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}
