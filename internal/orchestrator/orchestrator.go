package orchestrator

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/inject"
	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/specialistvlad/polyglot/internal/process"
)

// DefaultCompileSettle is the pause between a successful compile and the
// first run of the produced binary.
const DefaultCompileSettle = 500 * time.Millisecond

const availabilityCacheSize = 256

// Languages is the registry view the orchestrator needs.
type Languages interface {
	Lookup(ctx context.Context, language string) (*model.LanguageDefinition, bool)
	Settings(ctx context.Context) model.Settings
}

// ProcessRunner runs one process invocation.
type ProcessRunner interface {
	Run(ctx context.Context, req process.Request) model.ExecutionResult
}

// ProgressFunc receives messages such as "Compiling... 120ms".
type ProgressFunc func(message string)

// job carries everything a pipeline needs for one call.
type job struct {
	block    model.CodeBlock
	def      *model.LanguageDefinition
	settings model.Settings
	code     string
	progress ProgressFunc
}

type pipelineFunc func(ctx context.Context, j job) model.ExecutionResult

// Orchestrator maps language definitions onto execution pipelines.
type Orchestrator struct {
	languages     Languages
	runner        ProcessRunner
	lookPath      func(string) (string, error)
	available     *lru.Cache[string, string]
	tempRoot      string
	compileSettle time.Duration
	newToken      func() string
	pipelines     map[model.Pipeline]pipelineFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRunner replaces the process runner.
func WithRunner(r ProcessRunner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithCompileSettle sets the pause between compile and run.
func WithCompileSettle(d time.Duration) Option {
	return func(o *Orchestrator) { o.compileSettle = d }
}

// WithTempRoot sets the directory that relative TempDirectory settings are
// resolved against. It defaults to os.TempDir().
func WithTempRoot(dir string) Option {
	return func(o *Orchestrator) { o.tempRoot = dir }
}

// WithCommandLookup replaces exec.LookPath for availability checks.
func WithCommandLookup(fn func(string) (string, error)) Option {
	return func(o *Orchestrator) { o.lookPath = fn }
}

// New creates an Orchestrator reading definitions and settings from languages.
func New(languages Languages, opts ...Option) *Orchestrator {
	cache, err := lru.New[string, string](availabilityCacheSize)
	if err != nil {
		panic(fmt.Errorf("orchestrator: availability cache: %w", err))
	}

	o := &Orchestrator{
		languages:     languages,
		runner:        process.NewRunner(),
		lookPath:      exec.LookPath,
		available:     cache,
		compileSettle: DefaultCompileSettle,
		newToken:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	o.pipelines = map[model.Pipeline]pipelineFunc{
		model.PipelineCompiled:    o.runCompiled,
		model.PipelineInterpreted: o.runInterpreted,
		model.PipelinePassthrough: o.runPassthrough,
	}
	return o
}

// Execute looks up the block's language and orchestrates it.
func (o *Orchestrator) Execute(ctx context.Context, block model.CodeBlock, vars model.Variables, onProgress ProgressFunc) model.ExecutionResult {
	def, _ := o.languages.Lookup(ctx, block.Language)
	return o.Orchestrate(ctx, block, def, vars, onProgress)
}

// Orchestrate runs block with def. A nil def reports LanguageNotConfigured.
// Configuration and availability are checked before any file is written.
func (o *Orchestrator) Orchestrate(ctx context.Context, block model.CodeBlock, def *model.LanguageDefinition, vars model.Variables, onProgress ProgressFunc) model.ExecutionResult {
	logger := ctxlog.FromContext(ctx).With("language", block.Language, "start_line", block.StartLine)

	if def == nil {
		return model.Failed(model.FailureLanguageNotConfigured, fmt.Sprintf("Language '%s' is not configured", model.BaseLanguage(block.Language)))
	}

	pipeline := def.EffectivePipeline()
	run, ok := o.pipelines[pipeline]
	if !ok {
		return model.Failed(model.FailureLanguageNotConfigured, fmt.Sprintf("Language '%s' uses unknown pipeline '%s'", def.Name, pipeline))
	}

	if pipeline != model.PipelinePassthrough && !o.IsCommandAvailable(def.Command) {
		return model.Failed(model.FailureLanguageUnavailable, fmt.Sprintf("Language '%s' is not available: command '%s' was not found in PATH", def.Name, def.Command))
	}

	settings := o.languages.Settings(ctx)
	code := block.Code
	if settings.ShareVariables {
		code = inject.Inject(code, vars, def)
	}
	if onProgress == nil {
		onProgress = func(string) {}
	}

	logger.Debug("Executing code block.", "pipeline", pipeline, "command", def.Command)
	started := time.Now()
	res := run(ctx, job{block: block, def: def, settings: settings, code: code, progress: onProgress})
	logger.Debug("Code block finished.", "success", res.Success, "kind", res.Kind, "elapsed", time.Since(started))
	return res
}

// IsCommandAvailable reports whether command resolves on this host.
// Successful lookups are cached; misses are not, so a tool installed later
// is picked up.
func (o *Orchestrator) IsCommandAvailable(command string) bool {
	if command == "" {
		return false
	}
	if _, ok := o.available.Get(command); ok {
		return true
	}
	path, err := o.lookPath(command)
	if err != nil {
		return false
	}
	o.available.Add(command, path)
	return true
}

// stageProgress adapts a ProgressFunc to the runner's elapsed-time callback.
func stageProgress(stage string, fn ProgressFunc) func(time.Duration) {
	return func(elapsed time.Duration) {
		fn(fmt.Sprintf("%s... %dms", stage, elapsed.Milliseconds()))
	}
}
