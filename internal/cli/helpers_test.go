package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sethvargo/go-envconfig"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configStore    *mockConfigStore
	factory        *mockPipelineFactory
}

func newTestMocks() *testMocks {
	return &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configStore:    newMockConfigStore(nil),
		factory:        newMockPipelineFactory(),
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

type testEnvOptions struct {
	stderr io.Writer
	vars   map[string]string
	mocks  *testMocks
}

type testEnvOption func(*testEnvOptions)

// withVars sets the environment variables visible to the command.
func withVars(vars map[string]string) testEnvOption {
	return func(o *testEnvOptions) { o.vars = vars }
}

// withStderr captures user-facing output.
func withStderr(w io.Writer) testEnvOption {
	return func(o *testEnvOptions) { o.stderr = w }
}

// testEnv creates a test Env with all dependencies mocked.
// AUDIO_FILE defaults to a fixed path so runs pass validation.
func testEnv(opts ...testEnvOption) (*Env, *testMocks) {
	options := &testEnvOptions{
		stderr: &syncBuffer{},
		vars:   map[string]string{"AUDIO_FILE": "lesson.mp3"},
		mocks:  newTestMocks(),
	}
	for _, opt := range opts {
		opt(options)
	}

	env := &Env{
		Stderr:          options.stderr,
		Lookuper:        envconfig.MapLookuper(options.vars),
		FFmpegResolver:  options.mocks.ffmpegResolver,
		ConfigStore:     options.mocks.configStore,
		PipelineFactory: options.mocks.factory,
	}
	return env, options.mocks
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// executeRun runs the run command with args and returns its error.
func executeRun(t *testing.T, env *Env, args ...string) error {
	t.Helper()
	return executeRunContext(t, context.Background(), env, args...)
}

func executeRunContext(t *testing.T, ctx context.Context, env *Env, args ...string) error {
	t.Helper()
	cmd := RunCmd(env)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(ctx)
}
