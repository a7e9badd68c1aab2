package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single external invocation when no timeout is configured
const DefaultTimeout = 2 * time.Minute

// waitDelay is how long Wait keeps the I/O pipes open after the group was killed
const waitDelay = 5 * time.Second

// ErrTimeout is returned when an external command outlives its deadline
var ErrTimeout = errors.New("external command timed out")

// Command describes one external tool invocation
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the caller's
	Dir string
	// Env entries are appended to the current environment
	Env []string
	// Stdout receives the command's standard output; nil discards it
	Stdout io.Writer
}

// String renders the command line for logs and error messages
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Invoker runs external commands and reports failure uniformly
type Invoker interface {
	// Invoke blocks until the command exits. A non-zero exit yields *ExitError,
	// an expired deadline yields an error matching ErrTimeout.
	Invoke(ctx context.Context, cmd Command) error
}

// ExitError reports an external command that ran but exited non-zero
type ExitError struct {
	Command  string
	ExitCode int
	// Stderr is the captured diagnostic stream decoded as UTF-8
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// TimeoutError carries the partial diagnostics of a command killed on timeout
type TimeoutError struct {
	Command string
	Timeout time.Duration
	Stderr  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not finish within %s", e.Command, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// ExecInvoker is the production Invoker backed by os/exec
type ExecInvoker struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecInvoker creates an invoker that kills any command running longer than timeout
func NewExecInvoker(timeout time.Duration) *ExecInvoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecInvoker{
		timeout: timeout,
		logger:  slog.Default(),
	}
}

// WithLogger sets a custom logger for the invoker
func (i *ExecInvoker) WithLogger(logger *slog.Logger) *ExecInvoker {
	i.logger = logger
	return i
}

// Timeout returns the per-invocation deadline
func (i *ExecInvoker) Timeout() time.Duration {
	return i.timeout
}

// Invoke implements Invoker
func (i *ExecInvoker) Invoke(ctx context.Context, c Command) error {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = c.Stdout

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// The tools we drive (soffice, xelatex) fork helpers, so the whole
	// process group has to go when the deadline passes.
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			KillProcessGroup(cmd.Process.Pid)
		}
		return nil
	}
	cmd.WaitDelay = waitDelay

	started := time.Now()
	i.logger.DebugContext(ctx, "invoking external command",
		"command", c.String(),
		"dir", c.Dir,
	)

	err := cmd.Run()
	if err == nil {
		i.logger.DebugContext(ctx, "external command finished",
			"command", c.Name,
			"duration", time.Since(started),
		)
		return nil
	}

	diagnostic := decode(stderr.Bytes())

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		i.logger.ErrorContext(ctx, "external command timed out",
			"command", c.Name,
			"timeout", i.timeout,
		)
		return &TimeoutError{
			Command: c.Name,
			Timeout: i.timeout,
			Stderr:  diagnostic,
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		i.logger.ErrorContext(ctx, "external command failed",
			"command", c.Name,
			"exit_code", exitErr.ExitCode(),
			"stderr", strings.TrimSpace(diagnostic),
		)
		return &ExitError{
			Command:  c.Name,
			ExitCode: exitErr.ExitCode(),
			Stderr:   diagnostic,
			Err:      err,
		}
	}

	// The command never ran (missing binary, bad working directory).
	i.logger.ErrorContext(ctx, "external command could not start",
		"command", c.Name,
		"error", err,
	)
	return &ExitError{
		Command:  c.Name,
		ExitCode: -1,
		Stderr:   err.Error(),
		Err:      err,
	}
}

// decode turns captured stderr into text, replacing invalid UTF-8. The text
// is otherwise kept byte for byte.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
