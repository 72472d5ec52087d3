package orchestrator

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/specialistvlad/polyglot/internal/process"
)

// Default argument templates.
const (
	DefaultCompileArgs = `"{input}" -o "{output}"`
	DefaultRunArgs     = `"{file}"`
)

// Progress stage names.
const (
	StageCompiling = "Compiling"
	StageRunning   = "Running"
)

func (o *Orchestrator) runCompiled(ctx context.Context, j job) model.ExecutionResult {
	src, err := o.writeSource(j)
	if err != nil {
		return model.Failed(model.FailureInternal, err.Error())
	}
	defer src.cleanup()

	bin := src.binaryPath(o.newToken())
	defer os.Remove(bin)

	tmpl := j.def.CompileArgsTemplate
	if tmpl == "" {
		tmpl = DefaultCompileArgs
	}
	args, err := expandArgs(tmpl, map[string]string{"{input}": src.path, "{output}": bin})
	if err != nil {
		return model.Failed(model.FailureInternal, err.Error())
	}

	compiled := o.runner.Run(ctx, process.Request{
		Command:        j.def.Command,
		Args:           args,
		Dir:            src.dir,
		Timeout:        j.settings.Timeout(),
		MaxOutputLines: j.settings.MaxOutputLines,
		Progress:       stageProgress(StageCompiling, j.progress),
	})
	if !compiled.Success {
		if compiled.Kind == model.FailureRunError {
			compiled.Kind = model.FailureCompileError
			if compiled.Error == "" {
				compiled.Error = fmt.Sprintf("Compilation failed with exit code %d", compiled.ExitCode)
			}
		}
		return compiled
	}

	if _, err := os.Stat(bin); err != nil {
		return model.Failed(model.FailureMissingArtifact, fmt.Sprintf("Compilation succeeded but executable not found: %s", bin))
	}

	if o.compileSettle > 0 {
		select {
		case <-ctx.Done():
			return model.Failed(model.FailureCancelled, fmt.Sprintf("Execution cancelled: %v", ctx.Err()))
		case <-time.After(o.compileSettle):
		}
	}

	return o.runner.Run(ctx, process.Request{
		Command:        bin,
		Dir:            src.dir,
		Timeout:        j.settings.Timeout(),
		MaxOutputLines: j.settings.MaxOutputLines,
		Progress:       stageProgress(StageRunning, j.progress),
	})
}

func (o *Orchestrator) runInterpreted(ctx context.Context, j job) model.ExecutionResult {
	src, err := o.writeSource(j)
	if err != nil {
		return model.Failed(model.FailureInternal, err.Error())
	}
	defer src.cleanup()

	tmpl := j.def.RunArgsTemplate
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultRunArgs
	}
	args, err := expandArgs(tmpl, map[string]string{"{file}": src.path})
	if err != nil {
		return model.Failed(model.FailureInternal, err.Error())
	}

	return o.runner.Run(ctx, process.Request{
		Command:        j.def.Command,
		Args:           args,
		Dir:            src.dir,
		Timeout:        j.settings.Timeout(),
		MaxOutputLines: j.settings.MaxOutputLines,
		Progress:       stageProgress(StageRunning, j.progress),
	})
}

// runPassthrough renders the block's own code without spawning anything.
func (o *Orchestrator) runPassthrough(_ context.Context, j job) model.ExecutionResult {
	return model.ExecutionResult{Success: true, Output: j.block.Code}
}
