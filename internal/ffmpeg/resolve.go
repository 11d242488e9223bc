// Package ffmpeg locates the FFmpeg/FFprobe binaries and runs them.
package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// binaryName is the base name of the ffmpeg binary.
	binaryName = "ffmpeg"

	// probeBinaryName is the base name of the ffprobe binary.
	probeBinaryName = "ffprobe"

	// binaryExtWindows is the file extension for Windows executables.
	binaryExtWindows = ".exe"

	// minFFmpegMajorVersion is the minimum supported ffmpeg version.
	// Older builds lack the lavfi anullsrc options used for silence clips.
	minFFmpegMajorVersion = 4
)

// ---------------------------------------------------------------------------
// Resolver - testable FFmpeg resolution with dependency injection
// ---------------------------------------------------------------------------

// Resolver finds the ffmpeg and ffprobe binaries.
type Resolver struct {
	ffmpegOverride string
	probeOverride  string

	statter fileStatter
	looker  pathLooker
	goos    string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFFmpegPath pins the ffmpeg binary (FFMPEG_PATH).
func WithFFmpegPath(p string) ResolverOption {
	return func(r *Resolver) { r.ffmpegOverride = p }
}

// WithFFprobePath pins the ffprobe binary (FFPROBE_PATH).
func WithFFprobePath(p string) ResolverOption {
	return func(r *Resolver) { r.probeOverride = p }
}

// WithFileStatter sets the file statter implementation.
func WithFileStatter(s fileStatter) ResolverOption {
	return func(r *Resolver) { r.statter = s }
}

// WithPathLooker sets the PATH lookup implementation.
func WithPathLooker(l pathLooker) ResolverOption {
	return func(r *Resolver) { r.looker = l }
}

// WithPlatform sets the target OS (for testing Windows naming and help text).
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver with the given options.
// Uses production defaults if no options are provided.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		statter: osFileStatter{},
		looker:  osPathLooker{},
		goos:    runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds ffmpeg using the following precedence:
//  1. Explicit override (error if set but missing)
//  2. System PATH
func (r *Resolver) Resolve(_ context.Context) (string, error) {
	if r.ffmpegOverride != "" {
		if _, err := r.statter.Stat(r.ffmpegOverride); err != nil {
			return "", fmt.Errorf("%w: FFMPEG_PATH is set to %q but binary not found",
				ErrNotFound, r.ffmpegOverride)
		}
		return r.ffmpegOverride, nil
	}

	if path, err := r.looker.LookPath(binaryName); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w\n\n%s", ErrNotFound, r.manualInstallInstructions())
}

// ResolveProbe finds ffprobe using the following precedence:
//  1. Explicit override (error if set but missing)
//  2. Next to the resolved ffmpeg binary
//  3. System PATH
//
// It returns an empty path without error when ffprobe is simply absent;
// callers then fall back to parsing ffmpeg's own output.
func (r *Resolver) ResolveProbe(_ context.Context, ffmpegPath string) (string, error) {
	if r.probeOverride != "" {
		if _, err := r.statter.Stat(r.probeOverride); err != nil {
			return "", fmt.Errorf("%w: FFPROBE_PATH is set to %q but binary not found",
				ErrProbeNotFound, r.probeOverride)
		}
		return r.probeOverride, nil
	}

	if ffmpegPath != "" {
		sibling := filepath.Join(filepath.Dir(ffmpegPath), r.executable(probeBinaryName))
		if _, err := r.statter.Stat(sibling); err == nil {
			return sibling, nil
		}
	}

	if path, err := r.looker.LookPath(probeBinaryName); err == nil {
		return path, nil
	}
	return "", nil
}

// executable appends the platform executable suffix.
func (r *Resolver) executable(name string) string {
	if r.goos == "windows" {
		return name + binaryExtWindows
	}
	return name
}

// manualInstallInstructions returns platform-specific instructions.
func (r *Resolver) manualInstallInstructions() string {
	switch r.goos {
	case "darwin":
		return `To install FFmpeg:
  brew install ffmpeg

Or set FFMPEG_PATH environment variable to your ffmpeg binary.`
	case "linux":
		return `To install FFmpeg:
  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg

Or set FFMPEG_PATH environment variable to your ffmpeg binary.`
	case "windows":
		return `To install FFmpeg:
  winget install ffmpeg

Or set FFMPEG_PATH environment variable to your ffmpeg.exe.`
	default:
		return `To install FFmpeg, download from https://ffmpeg.org/download.html
Or set FFMPEG_PATH environment variable to your ffmpeg binary.`
	}
}

// ---------------------------------------------------------------------------
// VersionChecker
// ---------------------------------------------------------------------------

// VersionChecker verifies FFmpeg version requirements.
type VersionChecker struct {
	executor *Executor
	logger   *slog.Logger
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running FFmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionLogger sets the logger receiving the outdated-version warning.
func WithVersionLogger(l *slog.Logger) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.logger = l }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: NewExecutor(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check verifies that ffmpeg meets minimum version requirements.
// Logs a warning if the version is below minimum but doesn't fail.
// Returns true if the version was successfully parsed.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) bool {
	out, err := vc.executor.Output(ctx, ffmpegPath, []string{"-version"})
	if err != nil {
		return false
	}

	// "ffmpeg version 6.1.1 Copyright..." or "ffmpeg version n6.1.1..."
	firstLine, _, _ := strings.Cut(string(out), "\n")
	if firstLine == "" {
		return false
	}

	var major int
	if _, err := fmt.Sscanf(firstLine, "ffmpeg version %d", &major); err != nil {
		if _, err := fmt.Sscanf(firstLine, "ffmpeg version n%d", &major); err != nil {
			return false
		}
	}

	if major < minFFmpegMajorVersion {
		vc.logger.Warn("ffmpeg version is outdated",
			"detected", major, "recommended", fmt.Sprintf("%d+", minFFmpegMajorVersion))
	}
	return true
}
