package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/monitoring"
	"github.com/ppiankov/verdict/internal/pipeline"
	"github.com/rs/zerolog"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *model.Config
	router     http.Handler
	httpServer *http.Server
	pipeline   *pipeline.Pipeline
	metrics    *monitoring.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

func NewServer(cfg *model.Config, p *pipeline.Pipeline, m *monitoring.Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		config:   cfg,
		pipeline: p,
		metrics:  m,
		logger:   logger.With().Str("component", "api").Logger(),
		now:      time.Now,
	}
	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving on the configured address until Shutdown
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.Server.Addr).Msg("listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
