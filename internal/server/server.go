// Package server exposes extraction and execution over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/polyglot/internal/artifact"
	"github.com/specialistvlad/polyglot/internal/config"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/document"
	"github.com/specialistvlad/polyglot/internal/history"
	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/specialistvlad/polyglot/internal/orchestrator"
	"github.com/specialistvlad/polyglot/internal/progress"
)

// Languages is the registry view the server needs.
type Languages interface {
	Snapshot(ctx context.Context) *config.Model
	Availability(ctx context.Context, isAvailable func(command string) bool) map[string]bool
}

// Executor runs a single block.
type Executor interface {
	Execute(ctx context.Context, block model.CodeBlock, vars model.Variables, onProgress orchestrator.ProgressFunc) model.ExecutionResult
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	languages   Languages
	executor    Executor
	processor   *document.Processor
	converter   config.Converter
	isAvailable func(command string) bool
	history     history.Store
	reports     artifact.Store
	progress    func(block model.CodeBlock) progress.Func

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithHistory records every block executed through the API.
func WithHistory(s history.Store) Option {
	return func(srv *Server) { srv.history = s }
}

// WithReports stores processed document reports.
func WithReports(s artifact.Store) Option {
	return func(srv *Server) { srv.reports = s }
}

// WithProgress forwards runner progress of API executions to sink.
func WithProgress(sink func(block model.CodeBlock) progress.Func) Option {
	return func(srv *Server) { srv.progress = sink }
}

// WithAvailability sets the command lookup used by the languages endpoint.
func WithAvailability(fn func(command string) bool) Option {
	return func(srv *Server) { srv.isAvailable = fn }
}

// New creates a server.
func New(languages Languages, executor Executor, processor *document.Processor, converter config.Converter, opts ...Option) *Server {
	s := &Server{
		languages:   languages,
		executor:    executor,
		processor:   processor,
		converter:   converter,
		isAvailable: func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the gin engine with all routes registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.health)

	v1 := r.Group("/v1")
	{
		v1.GET("/languages", s.listLanguages)
		v1.POST("/extract", s.extract)
		v1.POST("/execute", s.execute)
		v1.POST("/process", s.process)
		v1.GET("/history", s.listHistory)
		v1.GET("/ws/execute", s.executeWS)
	}
	return r
}

// progressFor combines the configured progress sink for block with local.
func (s *Server) progressFor(block model.CodeBlock, local progress.Func) orchestrator.ProgressFunc {
	var shared progress.Func
	if s.progress != nil {
		shared = s.progress(block)
	}
	return orchestrator.ProgressFunc(progress.Fanout(shared, local))
}

// Start serves on addr in the background.
func (s *Server) Start(ctx context.Context, addr string) {
	logger := ctxlog.FromContext(ctx)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("🌐 API server starting", "address", fmt.Sprintf("http://%s", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API server failed unexpectedly", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting up to five seconds for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if s.httpServer == nil {
		logger.Debug("API server was not running.")
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("🌐 Shutting down API server...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed", "error", err)
		return err
	}
	return nil
}

func (s *Server) record(ctx context.Context, block model.CodeBlock, result model.ExecutionResult, d time.Duration) {
	if s.history == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.history.Record(ctx, history.NewEntry(block, result, d)); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to record execution history.", "error", err)
	}
}
