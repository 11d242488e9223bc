package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// runFn runs a command and returns what it wrote to stdout and stderr.
type runFn func(ctx context.Context, path string, args []string) (stdout, stderr []byte, err error)

// Executor runs FFmpeg and FFprobe commands with injectable dependencies.
type Executor struct {
	run runFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunFunc sets a custom command runner (for testing).
func WithRunFunc(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		run: defaultRun,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes bin and waits for it to finish.
// A non-zero exit is returned as *Error carrying the captured stderr.
func (e *Executor) Run(ctx context.Context, bin string, args []string) error {
	_, err := e.Output(ctx, bin, args)
	return err
}

// Output executes bin and returns its stdout.
// A non-zero exit is returned as *Error carrying the captured stderr.
func (e *Executor) Output(ctx context.Context, bin string, args []string) ([]byte, error) {
	stdout, stderr, err := e.run(ctx, bin, args)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s canceled: %w", bin, ctx.Err())
		}
		return nil, &Error{Bin: bin, Args: args, Stderr: string(stderr), Err: err}
	}
	return stdout, nil
}

// RunOutput executes bin and returns its stderr output.
// FFmpeg writes diagnostic output (version banner, stream info) to stderr and
// often exits non-zero for informational invocations such as "-i file" with no
// output, so the output is returned even when err is non-nil.
func (e *Executor) RunOutput(ctx context.Context, bin string, args []string) (string, error) {
	_, stderr, err := e.run(ctx, bin, args)
	return string(stderr), err
}

// defaultRun is the production implementation.
func defaultRun(ctx context.Context, path string, args []string) ([]byte, []byte, error) {
	// #nosec G204 -- path comes from binary resolution, args are built internally
	cmd := exec.CommandContext(ctx, path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
