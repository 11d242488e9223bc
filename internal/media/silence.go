package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/alnah/go-echoloop/internal/ffmpeg"
	"github.com/alnah/go-echoloop/internal/format"
)

// SilenceGenerator produces silent MP3 clips and caches them by duration.
// Clips are shared across runs and are never removed by Cleanup.
type SilenceGenerator struct {
	ffmpegPath string
	dir        string
	logger     *slog.Logger

	cmd   commandRunner
	stat  fileStatter
	dirs  dirMaker
	files fileRemover
}

// SilenceOption configures a SilenceGenerator.
type SilenceOption func(*SilenceGenerator)

// WithSilenceCommandRunner sets the command runner for SilenceGenerator.
func WithSilenceCommandRunner(r commandRunner) SilenceOption {
	return func(g *SilenceGenerator) { g.cmd = r }
}

// WithSilenceFileStatter sets the file statter for SilenceGenerator.
func WithSilenceFileStatter(s fileStatter) SilenceOption {
	return func(g *SilenceGenerator) { g.stat = s }
}

// WithSilenceDirMaker sets the directory creator for SilenceGenerator.
func WithSilenceDirMaker(d dirMaker) SilenceOption {
	return func(g *SilenceGenerator) { g.dirs = d }
}

// WithSilenceFileRemover sets the file remover for SilenceGenerator.
func WithSilenceFileRemover(f fileRemover) SilenceOption {
	return func(g *SilenceGenerator) { g.files = f }
}

// WithSilenceLogger sets the logger for SilenceGenerator.
func WithSilenceLogger(l *slog.Logger) SilenceOption {
	return func(g *SilenceGenerator) { g.logger = l }
}

// NewSilenceGenerator creates a SilenceGenerator storing clips in dir.
func NewSilenceGenerator(ffmpegPath, dir string, opts ...SilenceOption) (*SilenceGenerator, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}

	g := &SilenceGenerator{
		ffmpegPath: ffmpegPath,
		dir:        dir,
		logger:     slog.New(slog.DiscardHandler),
		cmd:        ffmpeg.NewExecutor(),
		stat:       osFS{},
		dirs:       osFS{},
		files:      osFS{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Path returns the cache location of a silence clip of length d.
func (g *SilenceGenerator) Path(d time.Duration) string {
	return filepath.Join(g.dir, "silence_"+format.Seconds(d)+"s"+SegmentExt)
}

// Ensure returns the path of a silence clip of length d, generating it
// if it is not already cached.
func (g *SilenceGenerator) Ensure(ctx context.Context, d time.Duration) (string, error) {
	if d <= 0 {
		return "", fmt.Errorf("%w: gap %v", ErrInvalidWindow, d)
	}

	path := g.Path(d)
	if exists(g.stat, path) {
		return path, nil
	}

	if err := g.dirs.MkdirAll(g.dir, outputDirPerm); err != nil {
		return "", fmt.Errorf("cannot create silence directory: %w", err)
	}

	g.logger.Debug("generating silence", "duration", d, "path", path)
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=stereo",
		"-t", format.Seconds(d),
	}
	args = append(args, encodingArgs()...)
	args = append(args, path)

	if err := g.cmd.Run(ctx, g.ffmpegPath, args); err != nil {
		_ = g.files.Remove(path) // best-effort; partial clip must not be cached
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: silence clip: %w", ErrMergeFailed, err)
	}
	return path, nil
}
