package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/specialistvlad/polyglot/internal/artifact"
	"github.com/specialistvlad/polyglot/internal/config"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/document"
	"github.com/specialistvlad/polyglot/internal/history"
	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/specialistvlad/polyglot/internal/orchestrator"
	"github.com/specialistvlad/polyglot/internal/progress"
	"github.com/specialistvlad/polyglot/internal/registry"
)

const startupTimeout = 10 * time.Second

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	converter config.Converter

	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
	processor    *document.Processor
	variables    model.Variables

	history   history.Store
	reports   artifact.Store
	publisher *progress.SocketPublisher
	closers   []func() error
}

// NewApp builds a fully initialized App. Program output goes to outW and
// logs to logW. A configuration that cannot be loaded is a fatal startup
// error and panics.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, converter config.Converter) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx, cancel := context.WithTimeout(ctxlog.WithLogger(context.Background(), logger), startupTimeout)
	defer cancel()
	logger.Debug("Logger configured successfully.")

	a := &App{outW: outW, logger: logger, config: cfg, converter: converter}

	a.registry = a.loadRegistry(ctx, loader)
	if cfg.VariablesPath != "" {
		vars, err := loader.LoadVariables(ctx, cfg.VariablesPath)
		if err != nil {
			panic(fmt.Errorf("failed to load variables: %w", err))
		}
		a.variables = vars
		logger.Debug("Host variables loaded.", "count", len(vars))
	}

	var opts []orchestrator.Option
	if cfg.TempRoot != "" {
		opts = append(opts, orchestrator.WithTempRoot(cfg.TempRoot))
	}
	a.orchestrator = orchestrator.New(a.registry, opts...)

	if err := a.openStores(ctx); err != nil {
		panic(err)
	}

	a.processor = document.NewProcessor(a.registry, a.orchestrator)
	a.processor.CommentOutput = cfg.CommentOutput
	a.processor.OnBlock = a.onBlock
	if a.publisher != nil {
		a.processor.OnProgress = func(block model.CodeBlock, msg string) {
			a.publisher.Progress(block)(msg)
		}
	}

	logger.Debug("Application initialized.", "mode", cfg.Mode)
	return a
}

func (a *App) loadRegistry(ctx context.Context, loader config.Loader) *registry.Registry {
	logger := ctxlog.FromContext(ctx)
	if len(a.config.ConfigPaths) == 0 {
		logger.Debug("No language configuration given, using built-in definitions.")
		return registry.New(config.Default())
	}

	reg, err := registry.Load(ctx, loader, a.config.ConfigPaths, registry.WithReloadHook(func(m *config.Model) {
		a.logger.Info("Language registry loaded.", "languages", len(m.Languages))
	}))
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	return reg
}

// openStores connects the optional history, report and progress backends.
func (a *App) openStores(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if a.config.HistoryDSN != "" {
		pg, err := history.OpenPostgres(ctx, a.config.HistoryDSN)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		a.history = pg
		a.closers = append(a.closers, pg.Close)
		logger.Debug("Using Postgres execution history.")
	} else {
		a.history = history.NewMemoryStore(history.DefaultCapacity)
	}

	switch {
	case a.config.ReportDir != "":
		a.reports = artifact.NewFileStore(a.config.ReportDir)
	case a.config.S3.Endpoint != "":
		s3, err := artifact.NewS3Store(a.config.S3)
		if err != nil {
			return fmt.Errorf("failed to configure report bucket: %w", err)
		}
		a.reports = s3
	}

	if a.config.ProgressURL != "" {
		pub, err := progress.DialSocket(ctxlog.WithLogger(context.Background(), a.logger), a.config.ProgressURL, a.socketOptions()...)
		if err != nil {
			return fmt.Errorf("failed to configure progress publisher: %w", err)
		}
		a.publisher = pub
		a.closers = append(a.closers, func() error { pub.Close(); return nil })
	}
	return nil
}

func (a *App) socketOptions() []progress.SocketOption {
	var opts []progress.SocketOption
	if a.config.ProgressNamespace != "" {
		opts = append(opts, progress.WithNamespace(a.config.ProgressNamespace))
	}
	if a.config.ProgressQueueSize > 0 {
		opts = append(opts, progress.WithQueueSize(a.config.ProgressQueueSize))
	}
	if a.config.ProgressInsecure {
		opts = append(opts, progress.WithInsecureSkipVerify())
	}
	return opts
}

func (a *App) onBlock(ctx context.Context, r document.BlockReport) {
	if err := a.history.Record(context.WithoutCancel(ctx), history.NewEntry(r.Block, r.Result, r.Duration)); err != nil {
		a.logger.Warn("Failed to record execution history.", "error", err)
	}
	if a.publisher != nil {
		a.publisher.Result(r.Block, r.Result)
	}
	if !r.Result.Success {
		a.logger.Warn("Code block failed.", "language", r.Block.Language, "line", r.Block.StartLine+1, "kind", r.Result.Kind)
	}
}

// Registry returns the application's language registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// History returns the execution history store.
func (a *App) History() history.Store {
	return a.history
}

func (a *App) close(ctx context.Context) {
	if err := a.orchestrator.Cleanup(ctx); err != nil {
		a.logger.Warn("Failed to clean up temp files.", "error", err)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource.", "error", err)
		}
	}
}
