// Package server exposes built systems over HTTP: list them, pump a JSON
// value through one, and inspect recorded runs.
package server

import (
	"context"
	"net"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/dcshock/sewer/internal/appconfig"
	"github.com/dcshock/sewer/logger"
	"github.com/dcshock/sewer/observer"
	"github.com/dcshock/sewer/pipeline"
)

// Server serves the systems it was built with. Routes are registered by New.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	systems    map[string]*pipeline.System[any, any]
	recorder   *observer.Recorder
	service    string
	log        *logger.Logger
}

// Deps are the values the handlers serve. Recorder may be nil, in which case
// the /runs routes answer 404.
type Deps struct {
	Service  string
	Systems  map[string]*pipeline.System[any, any]
	Recorder *observer.Recorder
}

// New creates a Server listening on cfg.Addr. A nil log uses the global
// logger.
func New(cfg appconfig.HTTPConfig, deps Deps, log *logger.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	engine := gin.New()
	s := &Server{
		engine:   engine,
		systems:  deps.Systems,
		recorder: deps.Recorder,
		service:  deps.Service,
		log:      log.WithComponent("server"),
		httpServer: &http.Server{
			Addr:        cfg.Addr,
			Handler:     engine,
			ReadTimeout: cfg.ReadTimeout,
		},
	}
	engine.Use(recovery(s.log), requestID(), requestLogger(s.log))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/systems", s.listSystems)
	s.engine.GET("/systems/:name", s.getSystem)
	s.engine.POST("/systems/:name/pump", s.pump)
	s.engine.GET("/runs", s.listRuns)
	s.engine.GET("/runs/:id", s.getRun)
}

// Handler returns the routed handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.engine }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Start binds the address and serves in a goroutine. It returns once the
// listener is bound.
func (s *Server) Start(context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Wrapf(err, "server failed to bind %s", s.httpServer.Addr)
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("HTTP server started", logger.Fields("addr", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server shutdown")
	}
	return nil
}

func (s *Server) names() []string {
	names := make([]string, 0, len(s.systems))
	for name := range s.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
