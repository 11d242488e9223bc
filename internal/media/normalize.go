package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alnah/go-echoloop/internal/ffmpeg"
)

// Normalizer makes sure the input is in a format the rest of the pipeline
// accepts. OGG files are transcoded to MP3 next to the source; everything
// else is passed through unchanged.
type Normalizer struct {
	ffmpegPath string
	logger     *slog.Logger

	cmd   commandRunner
	stat  fileStatter
	files fileRemover
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithNormalizerCommandRunner sets the command runner for Normalizer.
func WithNormalizerCommandRunner(r commandRunner) NormalizerOption {
	return func(n *Normalizer) { n.cmd = r }
}

// WithNormalizerFileStatter sets the file statter for Normalizer.
func WithNormalizerFileStatter(s fileStatter) NormalizerOption {
	return func(n *Normalizer) { n.stat = s }
}

// WithNormalizerFileRemover sets the file remover for Normalizer.
func WithNormalizerFileRemover(f fileRemover) NormalizerOption {
	return func(n *Normalizer) { n.files = f }
}

// WithNormalizerLogger sets the logger for Normalizer.
func WithNormalizerLogger(l *slog.Logger) NormalizerOption {
	return func(n *Normalizer) { n.logger = l }
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(ffmpegPath string, opts ...NormalizerOption) (*Normalizer, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}

	n := &Normalizer{
		ffmpegPath: ffmpegPath,
		logger:     slog.New(slog.DiscardHandler),
		cmd:        ffmpeg.NewExecutor(),
		stat:       osFS{},
		files:      osFS{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// NeedsConversion reports whether path must be transcoded before use.
func NeedsConversion(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ogg")
}

// ConvertedPath returns the MP3 path an OGG input is converted to.
func ConvertedPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + SegmentExt
}

// Normalize returns the path the pipeline should read from.
// A converted file that already exists is reused, so calling Normalize
// twice on the same input returns the same path and converts at most once.
func (n *Normalizer) Normalize(ctx context.Context, inputPath string) (string, error) {
	if !exists(n.stat, inputPath) {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
	}

	if !NeedsConversion(inputPath) {
		return inputPath, nil
	}

	target := ConvertedPath(inputPath)
	if exists(n.stat, target) {
		n.logger.Info("using existing converted file", "path", target)
		return target, nil
	}

	n.logger.Info("converting to mp3", "input", inputPath, "output", target)
	args := []string{
		"-y",
		"-i", inputPath,
		"-c:a", "libmp3lame",
		"-q:a", "2",
		target,
	}
	if err := n.cmd.Run(ctx, n.ffmpegPath, args); err != nil {
		_ = n.files.Remove(target) // best-effort; partial output must not be reused
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %w", ErrConversionFailed, inputPath, err)
	}

	return target, nil
}
