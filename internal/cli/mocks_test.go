package cli

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"sync"

	"github.com/alnah/go-echoloop/internal/config"
	"github.com/alnah/go-echoloop/internal/pipeline"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc func(ctx context.Context, s config.Settings) (Tools, error)

	mu           sync.Mutex
	resolveCalls int
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context, s config.Settings, _ *slog.Logger) (Tools, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, s)
	}
	return Tools{FFmpeg: "/usr/bin/ffmpeg", FFprobe: "/usr/bin/ffprobe"}, nil
}

func (m *mockFFmpegResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// ---------------------------------------------------------------------------
// Mock ConfigStore
// ---------------------------------------------------------------------------

type mockConfigStore struct {
	ListErr error
	SetErr  error

	mu   sync.Mutex
	data map[string]string
}

func newMockConfigStore(data map[string]string) *mockConfigStore {
	if data == nil {
		data = make(map[string]string)
	}
	return &mockConfigStore{data: data}
}

func (m *mockConfigStore) Path() (string, error) {
	return "/home/test/.config/echoloop/config", nil
}

func (m *mockConfigStore) List() (map[string]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.data), nil
}

func (m *mockConfigStore) Get(key string) (string, error) {
	if m.ListErr != nil {
		return "", m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *mockConfigStore) Set(key, value string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

// ---------------------------------------------------------------------------
// Mock PipelineFactory + Runner + device closer
// ---------------------------------------------------------------------------

type mockRunner struct {
	RunFunc func(ctx context.Context, job pipeline.Job) (pipeline.Report, error)

	mu   sync.Mutex
	jobs []pipeline.Job
}

func (m *mockRunner) Run(ctx context.Context, job pipeline.Job) (pipeline.Report, error) {
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, job)
	}
	return pipeline.Report{Input: job.Input, Segments: 3, Played: 3}, nil
}

func (m *mockRunner) Jobs() []pipeline.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pipeline.Job(nil), m.jobs...)
}

type mockCloser struct {
	Err error

	mu     sync.Mutex
	closed int
}

func (m *mockCloser) Close() error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	return m.Err
}

func (m *mockCloser) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type mockPipelineFactory struct {
	Err error

	Runner *mockRunner
	Closer *mockCloser

	mu       sync.Mutex
	calls    int
	tools    Tools
	settings config.Settings
}

func newMockPipelineFactory() *mockPipelineFactory {
	return &mockPipelineFactory{Runner: &mockRunner{}, Closer: &mockCloser{}}
}

func (m *mockPipelineFactory) NewPipeline(_ context.Context, tools Tools, s config.Settings, _ *slog.Logger, _ io.Writer) (Runner, io.Closer, error) {
	m.mu.Lock()
	m.calls++
	m.tools = tools
	m.settings = s
	m.mu.Unlock()

	if m.Err != nil {
		return nil, nil, m.Err
	}
	return m.Runner, m.Closer, nil
}

func (m *mockPipelineFactory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockPipelineFactory) Settings() config.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *mockPipelineFactory) Tools() Tools {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools
}

// Compile-time interface checks.
var (
	_ FFmpegResolver  = (*mockFFmpegResolver)(nil)
	_ ConfigStore     = (*mockConfigStore)(nil)
	_ PipelineFactory = (*mockPipelineFactory)(nil)
	_ Runner          = (*mockRunner)(nil)
	_ io.Closer       = (*mockCloser)(nil)
)
