package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/specialistvlad/polyglot/internal/ctxlog"
	"github.com/specialistvlad/polyglot/internal/model"
)

// Defaults for a Runner.
const (
	DefaultPollInterval  = 50 * time.Millisecond
	DefaultStartAttempts = 3
	DefaultRetryDelay    = time.Second
	DefaultWaitDelay     = 2 * time.Second
)

// Request describes one process invocation.
type Request struct {
	Command string
	Args    []string
	Dir     string
	Env     []string

	// Timeout of zero disables the deadline.
	Timeout time.Duration

	// MaxOutputLines overrides the runner's cap when positive.
	MaxOutputLines int

	// Progress is called on every poll while the process is still running.
	Progress func(elapsed time.Duration)
}

// Runner spawns processes. A zero Runner is not usable; use NewRunner.
type Runner struct {
	PollInterval   time.Duration
	StartAttempts  int
	RetryDelay     time.Duration
	WaitDelay      time.Duration
	MaxOutputLines int

	start func(*exec.Cmd) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithPollInterval sets how often the runner checks for completion.
func WithPollInterval(d time.Duration) Option {
	return func(r *Runner) { r.PollInterval = d }
}

// WithStartRetry sets the number of start attempts and the delay between them.
func WithStartRetry(attempts int, delay time.Duration) Option {
	return func(r *Runner) {
		r.StartAttempts = attempts
		r.RetryDelay = delay
	}
}

// WithMaxOutputLines caps the captured lines per stream. Zero means no cap.
func WithMaxOutputLines(n int) Option {
	return func(r *Runner) { r.MaxOutputLines = n }
}

// NewRunner creates a Runner with default timings.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		PollInterval:  DefaultPollInterval,
		StartAttempts: DefaultStartAttempts,
		RetryDelay:    DefaultRetryDelay,
		WaitDelay:     DefaultWaitDelay,
		start:         func(cmd *exec.Cmd) error { return cmd.Start() },
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.StartAttempts < 1 {
		r.StartAttempts = 1
	}
	if r.PollInterval <= 0 {
		r.PollInterval = DefaultPollInterval
	}
	return r
}

// Run executes the request and blocks until the process exits, the timeout
// expires or ctx is cancelled. It never returns an error; every failure is a
// typed result.
func (r *Runner) Run(ctx context.Context, req Request) model.ExecutionResult {
	logger := ctxlog.FromContext(ctx).With("command", req.Command)

	cmd, stdout, stderr, err := r.startWithRetry(ctx, req)
	if err != nil {
		logger.Debug("Process failed to start.", "error", err)
		return model.Failed(model.FailureStartFailure, fmt.Sprintf("Failed to start %s: %v", req.Command, err))
	}
	logger.Debug("Process started.", "pid", cmd.Process.Pid, "args", req.Args)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	ticker := time.NewTicker(r.PollInterval)
	defer ticker.Stop()
	started := time.Now()

	var waitErr error
	for finished := false; !finished; {
		select {
		case waitErr = <-done:
			finished = true
		case <-ctx.Done():
			killTree(cmd)
			<-done
			logger.Debug("Process cancelled.", "error", ctx.Err())
			return model.Failed(model.FailureCancelled, fmt.Sprintf("Execution cancelled: %v", ctx.Err()))
		case <-ticker.C:
			elapsed := time.Since(started)
			if req.Timeout > 0 && elapsed > req.Timeout {
				killTree(cmd)
				<-done
				logger.Debug("Process killed after timeout.", "timeout", req.Timeout)
				return model.Failed(model.FailureTimeout, fmt.Sprintf("Execution timed out after %dms", req.Timeout.Milliseconds()))
			}
			if req.Progress != nil {
				req.Progress(elapsed)
			}
		}
	}

	// cmd.Wait has returned, so both capture goroutines have drained.
	res := model.ExecutionResult{
		Output: strings.TrimRight(stdout.String(), " \t\r\n"),
		Error:  strings.TrimSpace(stderr.String()),
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil, errors.Is(waitErr, exec.ErrWaitDelay):
		res.ExitCode = cmd.ProcessState.ExitCode()
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Error = strings.TrimSpace(res.Error + "\n" + waitErr.Error())
	}

	res.Success = res.ExitCode == 0
	if !res.Success {
		res.Kind = model.FailureRunError
	}
	recoverStderrOutput(&res)

	logger.Debug("Process finished.", "exit_code", res.ExitCode, "elapsed", time.Since(started))
	return res
}

func (r *Runner) startWithRetry(ctx context.Context, req Request) (*exec.Cmd, *lineBuffer, *lineBuffer, error) {
	logger := ctxlog.FromContext(ctx)

	for attempt := 1; ; attempt++ {
		cmd := exec.Command(req.Command, req.Args...)
		cmd.Dir = req.Dir
		if len(req.Env) > 0 {
			cmd.Env = req.Env
		}
		cmd.WaitDelay = r.WaitDelay
		setProcAttrs(cmd)

		limit := r.MaxOutputLines
		if req.MaxOutputLines > 0 {
			limit = req.MaxOutputLines
		}
		stdout := newLineBuffer(limit)
		stderr := newLineBuffer(limit)
		cmd.Stdout = stdout
		cmd.Stderr = stderr

		err := r.start(cmd)
		if err == nil {
			return cmd, stdout, stderr, nil
		}

		if attempt >= r.StartAttempts || !IsNativeBinary(req.Command) || !isAccessDenied(err) {
			return nil, nil, nil, err
		}

		logger.Warn("Binary not ready, retrying start.", "command", req.Command, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, nil, nil, ctx.Err()
		case <-time.After(r.RetryDelay):
		}
	}
}

// IsNativeBinary reports whether command names a compiled executable
// produced by this package's conventions.
func IsNativeBinary(command string) bool {
	return strings.HasSuffix(strings.ToLower(command), ExecutableSuffix)
}

var htmlMarkers = []string{"<p>", "<ul>", "<li>", "<strong>"}

// recoverStderrOutput promotes HTML written to stderr to the output of a
// successful run that printed nothing on stdout. Error stays untouched.
func recoverStderrOutput(res *model.ExecutionResult) {
	if !res.Success || strings.TrimSpace(res.Output) != "" {
		return
	}

	hasHTML := false
	for _, m := range htmlMarkers {
		if strings.Contains(res.Error, m) {
			hasHTML = true
			break
		}
	}
	if !hasHTML {
		return
	}

	var kept []string
	for _, line := range strings.Split(res.Error, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "<") {
			kept = append(kept, strings.TrimRight(line, "\r"))
		}
	}
	res.Output = strings.Join(kept, "\n")
}
