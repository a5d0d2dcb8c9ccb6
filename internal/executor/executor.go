package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/quocvuong92/zor/internal/constants"
	"github.com/quocvuong92/zor/internal/logging"
)

// Result holds the captured output of a finished command
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Output returns stdout and stderr joined, trimmed
func (r *Result) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// ExitError reports a command that ran but exited non-zero
type ExitError struct {
	Result *Result
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Result.Command, e.Result.ExitCode)
	if out := e.Result.Output(); out != "" {
		msg += ": " + out
	}
	return msg
}

// Executor runs commands with a timeout
type Executor struct {
	timeout time.Duration
	logger  *logging.Logger
}

// NewExecutor creates an Executor with the default command timeout
func NewExecutor(logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Executor{
		timeout: constants.DefaultCommandTimeout,
		logger:  logger,
	}
}

// SetTimeout sets the command execution timeout
func (e *Executor) SetTimeout(timeout time.Duration) {
	e.timeout = timeout
}

// Run implements CommandRunner
func (e *Executor) Run(ctx context.Context, dir, name string, args ...string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return e.run(ctx, cmd, strings.TrimSpace(name+" "+strings.Join(args, " ")))
}

// RunShell implements CommandRunner
func (e *Executor) RunShell(ctx context.Context, dir, command string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	return e.run(ctx, cmd, command)
}

func (e *Executor) run(ctx context.Context, cmd *exec.Cmd, display string) (*Result, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// children that inherit the pipes must not hold Run open past the deadline
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Command:  display,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	e.logger.Debug("Command finished", logging.Fields{
		"command":     display,
		"dir":         cmd.Dir,
		"duration_ms": res.Duration.Milliseconds(),
	})

	if ctx.Err() == context.DeadlineExceeded {
		return res, fmt.Errorf("%s timed out after %s", display, e.timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Result: res}
	}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", display, err)
	}

	return res, nil
}
