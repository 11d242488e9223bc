// Package interrupt turns SIGINT/SIGTERM into a graceful stop for a run.
//
// The first signal cancels the run context: playback is cleared, in-flight
// ffmpeg processes are killed and segment cleanup still happens. A second
// signal inside a short window skips cleanup and exits with ExitInterrupt.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// forceWindow is the time window for a second signal to force an exit.
const forceWindow = 2 * time.Second

const (
	stopMessage  = "\nStopping, cleaning up segments (press Ctrl+C again to quit now)..."
	forceMessage = "\nAborted, segment files were left on disk."
)

// Handler cancels a context on the first signal and force-exits on a
// second one received within forceWindow.
type Handler struct {
	mu      sync.Mutex
	first   time.Time
	count   int
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	exitFunc func(int)
	nowFunc  func() time.Time
	stderr   io.Writer
	release  func()
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr must be safe for concurrent writes.
	Stderr io.Writer
}

// NewHandler listens for SIGINT/SIGTERM and returns a context canceled
// on the first one.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	h, ctx := NewHandlerWithOptions(parent, Options{SigCh: sigCh})
	h.release = func() { signal.Stop(sigCh) }
	return h, ctx
}

// NewHandlerWithOptions creates a handler with injected dependencies.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel:   cancel,
		done:     make(chan struct{}),
		exitFunc: opts.ExitFunc,
		nowFunc:  opts.NowFunc,
		stderr:   opts.Stderr,
	}
	if h.exitFunc == nil {
		h.exitFunc = os.Exit
	}
	if h.nowFunc == nil {
		h.nowFunc = time.Now
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			if h.handle() {
				return
			}
		}
	}
}

// handle records one signal. It reports true once the process was told to exit.
func (h *Handler) handle() bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return true
	}
	now := h.nowFunc()
	h.count++

	if h.count == 1 {
		h.first = now
		h.mu.Unlock()
		fmt.Fprintln(h.stderr, stopMessage)
		h.cancel()
		return false
	}

	if now.Sub(h.first) > forceWindow {
		// Late second signal restarts the window.
		h.first = now
		h.mu.Unlock()
		return false
	}

	h.mu.Unlock()
	fmt.Fprintln(h.stderr, forceMessage)
	h.exitFunc(ExitInterrupt)
	return true
}

// WasInterrupted reports whether at least one signal was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count > 0
}

// Stop releases the signal subscription. Safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	if h.release != nil {
		h.release()
	}
	close(h.done)
	h.cancel()
}
