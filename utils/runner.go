// Package utils runs the external tools the scanners depend on.
package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/shlex"

	"github.com/kairos-io/kairos-partitioner/types"
)

// ErrCommandNotFound is returned when the binary is not in $PATH.
var ErrCommandNotFound = errors.New("command not found")

// ErrTimeout is returned when a command did not finish in time.
var ErrTimeout = errors.New("command timed out")

const (
	DefaultTimeout  = 30 * time.Second
	DefaultAttempts = 2
)

// Output is what a command printed. ExitCode is 0 on success.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a command and reports its output. A non zero exit is
// returned as an error together with the captured output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// RunLine splits a command line the way a shell would and runs it.
func RunLine(ctx context.Context, r Runner, line string) (Output, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return Output{}, fmt.Errorf("parsing command %q: %w", line, err)
	}
	if len(fields) == 0 {
		return Output{}, fmt.Errorf("empty command")
	}
	return r.Run(ctx, fields[0], fields[1:]...)
}

// ExecRunner runs real binaries. Every attempt gets its own Timeout and only
// timed out attempts are retried.
type ExecRunner struct {
	Timeout  time.Duration
	Attempts uint
	Logger   *types.Logger
	lookPath func(string) (string, error)
}

func NewExecRunner(timeout time.Duration, logger *types.Logger) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{Timeout: timeout, Attempts: DefaultAttempts, Logger: types.OrNull(logger), lookPath: exec.LookPath}
}

func (e *ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	logger := types.OrNull(e.Logger)
	lookPath := e.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath(name); err != nil {
		return Output{ExitCode: -1}, fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}
	attempts := e.Attempts
	if attempts == 0 {
		attempts = 1
	}

	var out Output
	err := retry.Do(
		func() error {
			var err error
			out, err = e.runOnce(ctx, name, args...)
			return err
		},
		retry.Attempts(attempts),
		retry.Delay(100*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, ErrTimeout) }),
		retry.OnRetry(func(n uint, err error) {
			logger.Logger.Debug().Str("cmd", name).Uint("attempt", n+1).Err(err).Msg("Retrying command")
		}),
	)
	logger.Logger.Trace().Str("cmd", name).Strs("args", args).Int("exit", out.ExitCode).Str("stderr", out.Stderr).Msg("Command finished")
	return out, err
}

func (e *ExecRunner) runOnce(parent context.Context, name string, args ...string) (Output, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	out := Output{Stdout: stdout.String(), Stderr: strings.TrimSpace(stderr.String())}
	if ctx.Err() == context.DeadlineExceeded {
		out.ExitCode = -1
		return out, fmt.Errorf("%w: %s %s after %s", ErrTimeout, name, strings.Join(args, " "), timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		out.ExitCode = -1
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		}
		return out, fmt.Errorf("%s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// FakeRunner replays canned outputs, keyed by the full command line.
// Unknown commands fail with ErrCommandNotFound.
type FakeRunner struct {
	Outputs map[string]Output
	Errors  map[string]error

	mu    sync.Mutex
	calls []string
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Outputs: map[string]Output{}, Errors: map[string]error{}}
}

// On registers the output for a command line, err may be nil.
func (f *FakeRunner) On(line string, out Output, err error) *FakeRunner {
	f.Outputs[line] = out
	if err != nil {
		f.Errors[line] = err
	}
	return f
}

func (f *FakeRunner) Run(_ context.Context, name string, args ...string) (Output, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	f.mu.Lock()
	f.calls = append(f.calls, line)
	f.mu.Unlock()

	out, ok := f.Outputs[line]
	if !ok {
		return Output{ExitCode: -1}, fmt.Errorf("%w: %s", ErrCommandNotFound, line)
	}
	return out, f.Errors[line]
}

// Calls returns the command lines run so far.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
