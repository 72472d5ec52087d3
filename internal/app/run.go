package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/document"
	"github.com/specialistvlad/polyglot/internal/extractor"
	"github.com/specialistvlad/polyglot/internal/mcpserver"
	"github.com/specialistvlad/polyglot/internal/server"
)

// ErrBlocksFailed is returned by run mode when at least one block failed.
var ErrBlocksFailed = errors.New("one or more code blocks failed")

// Run executes the configured mode until it finishes or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "mode", a.config.Mode)
	defer a.close(ctx)

	switch a.config.Mode {
	case ModeExtract:
		return a.runExtract(ctx)
	case ModeServe:
		return a.runServe(ctx)
	case ModeMCP:
		return a.runMCP(ctx)
	default:
		return a.runDocument(ctx)
	}
}

func (a *App) readDocument() (string, error) {
	data, err := os.ReadFile(a.config.DocumentPath)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

func (a *App) runDocument(ctx context.Context) error {
	text, err := a.readDocument()
	if err != nil {
		return err
	}

	a.logger.Info("🚀 Processing document...", "path", a.config.DocumentPath)
	report := a.processor.Process(ctx, text, a.variables)
	for _, d := range report.Diagnostics {
		a.logger.Warn("Code block is never closed.", "language", d.Language, "line", d.StartLine+1, "directive", d.StartDirectiveRaw)
	}

	if _, err := fmt.Fprintln(a.outW, report.Document); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := a.storeReport(ctx, report); err != nil {
		a.logger.Warn("Failed to store report.", "error", err)
	}

	failed := 0
	for _, b := range report.Blocks {
		if !b.Result.Success {
			failed++
		}
	}
	a.logger.Info("🏁 Document processed.", "blocks", len(report.Blocks), "failed", failed, "exported", len(report.Exported))
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrBlocksFailed, failed, len(report.Blocks))
	}
	return nil
}

func (a *App) storeReport(ctx context.Context, report document.Report) error {
	if a.reports == nil {
		return nil
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(a.config.DocumentPath), filepath.Ext(a.config.DocumentPath))
	key := fmt.Sprintf("reports/%s-%s.json", name, time.Now().UTC().Format("20060102T150405Z"))
	loc, err := a.reports.Put(ctx, key, "application/json", data)
	if err != nil {
		return err
	}
	a.logger.Info("📄 Report stored.", "location", loc)
	return nil
}

func (a *App) runExtract(ctx context.Context) error {
	text, err := a.readDocument()
	if err != nil {
		return err
	}
	res := extractor.New(a.registry.Snapshot(ctx)).ExtractWithDiagnostics(text)

	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func (a *App) runServe(ctx context.Context) error {
	available := a.registry.Availability(ctx, a.orchestrator.IsCommandAvailable)
	a.logger.Info("Language availability checked.", "languages", len(available))

	opts := []server.Option{
		server.WithHistory(a.history),
		server.WithAvailability(a.orchestrator.IsCommandAvailable),
	}
	if a.reports != nil {
		opts = append(opts, server.WithReports(a.reports))
	}
	if a.publisher != nil {
		opts = append(opts, server.WithProgress(a.publisher.Progress))
	}
	srv := server.New(a.registry, a.orchestrator, a.processor, a.converter, opts...)
	srv.Start(ctx, a.config.Addr)

	<-ctx.Done()
	return srv.Shutdown(ctx)
}

func (a *App) runMCP(ctx context.Context) error {
	a.registry.Availability(ctx, a.orchestrator.IsCommandAvailable)
	srv := mcpserver.New(a.registry, a.orchestrator, a.processor, a.converter, a.orchestrator.IsCommandAvailable, a.config.Version)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server failed: %w", err)
	}
	return nil
}
