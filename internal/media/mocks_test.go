package media_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

type mockCall struct {
	Name string
	Args []string
}

// mockCommandRunner records every invocation. Unset funcs succeed with no output.
type mockCommandRunner struct {
	mu            sync.Mutex
	calls         []mockCall
	runFunc       func(ctx context.Context, name string, args []string) error
	outputFunc    func(ctx context.Context, name string, args []string) ([]byte, error)
	runOutputFunc func(ctx context.Context, name string, args []string) (string, error)
}

func (m *mockCommandRunner) record(name string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{Name: name, Args: slices.Clone(args)})
}

func (m *mockCommandRunner) Run(ctx context.Context, name string, args []string) error {
	m.record(name, args)
	if m.runFunc != nil {
		return m.runFunc(ctx, name, args)
	}
	return nil
}

func (m *mockCommandRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	m.record(name, args)
	if m.outputFunc != nil {
		return m.outputFunc(ctx, name, args)
	}
	return nil, nil
}

func (m *mockCommandRunner) RunOutput(ctx context.Context, name string, args []string) (string, error) {
	m.record(name, args)
	if m.runOutputFunc != nil {
		return m.runOutputFunc(ctx, name, args)
	}
	return "", nil
}

func (m *mockCommandRunner) Calls() []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// mockFS is an in-memory filesystem implementing every media fs interface.
type mockFS struct {
	mu        sync.Mutex
	files     map[string][]byte
	dirs      []string
	removed   []string
	mkdirErr  error
	removeErr map[string]error
	writeErr  error
}

func newMockFS(existing ...string) *mockFS {
	m := &mockFS{files: make(map[string][]byte)}
	for _, f := range existing {
		m.files[f] = nil
	}
	return m
}

func (m *mockFS) Stat(name string) (os.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; ok {
		return &mockFileInfo{name: name}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

func (m *mockFS) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mkdirErr != nil {
		return m.mkdirErr
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, name)
	if err, ok := m.removeErr[name]; ok {
		return err
	}
	if _, ok := m.files[name]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, name)
	return nil
}

func (m *mockFS) WriteFile(name string, data []byte, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[name] = slices.Clone(data)
	return nil
}

func (m *mockFS) add(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = nil
}

func (m *mockFS) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

func (m *mockFS) content(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.files[name])
}

func (m *mockFS) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.removed)
}

type mockFileInfo struct {
	name string
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return 0 }
func (m *mockFileInfo) Mode() os.FileMode  { return 0644 }
func (m *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m *mockFileInfo) IsDir() bool        { return false }
func (m *mockFileInfo) Sys() any           { return nil }

// stubProber returns a fixed duration.
type stubProber struct {
	d     time.Duration
	err   error
	calls int
}

func (p *stubProber) Duration(_ context.Context, _ string) (time.Duration, error) {
	p.calls++
	return p.d, p.err
}

// stubSilence returns a fixed silence path.
type stubSilence struct {
	path string
	err  error
	got  []time.Duration
}

func (s *stubSilence) Ensure(_ context.Context, d time.Duration) (string, error) {
	s.got = append(s.got, d)
	return s.path, s.err
}

var errFFmpeg = errors.New("exit status 1")

// outputArg returns the last argument, the output path of an ffmpeg call.
func outputArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}

// argAfter returns the value following flag in args.
func argAfter(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}
