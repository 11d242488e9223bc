package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-echoloop/internal/ffmpeg"
)

// silenceProvider returns the path of a silence clip. *SilenceGenerator satisfies it.
type silenceProvider interface {
	Ensure(ctx context.Context, d time.Duration) (string, error)
}

// Merger concatenates segments, each followed by a silence gap, into one file.
// A zero gap concatenates the repeats back to back.
type Merger struct {
	ffmpegPath string
	outputPath string
	gap        time.Duration
	silence    silenceProvider
	logger     *slog.Logger

	cmd   commandRunner
	dirs  dirMaker
	files fileRemover
	write fileWriter
}

// MergerOption configures a Merger.
type MergerOption func(*Merger)

// WithMergerCommandRunner sets the command runner for Merger.
func WithMergerCommandRunner(r commandRunner) MergerOption {
	return func(m *Merger) { m.cmd = r }
}

// WithMergerDirMaker sets the directory creator for Merger.
func WithMergerDirMaker(d dirMaker) MergerOption {
	return func(m *Merger) { m.dirs = d }
}

// WithMergerFileRemover sets the file remover for Merger.
func WithMergerFileRemover(f fileRemover) MergerOption {
	return func(m *Merger) { m.files = f }
}

// WithMergerFileWriter sets the file writer used for the concat list.
func WithMergerFileWriter(w fileWriter) MergerOption {
	return func(m *Merger) { m.write = w }
}

// WithMergerLogger sets the logger for Merger.
func WithMergerLogger(l *slog.Logger) MergerOption {
	return func(m *Merger) { m.logger = l }
}

// NewMerger creates a Merger writing to outputPath with gap-long silences.
// The silence provider is only required when gap is positive.
func NewMerger(ffmpegPath, outputPath string, gap time.Duration, silence silenceProvider, opts ...MergerOption) (*Merger, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	if gap < 0 {
		return nil, fmt.Errorf("%w: gap %v", ErrInvalidWindow, gap)
	}
	if gap > 0 && silence == nil {
		return nil, fmt.Errorf("merger requires a silence provider")
	}

	m := &Merger{
		ffmpegPath: ffmpegPath,
		outputPath: outputPath,
		gap:        gap,
		silence:    silence,
		logger:     slog.New(slog.DiscardHandler),
		cmd:        ffmpeg.NewExecutor(),
		dirs:       osFS{},
		files:      osFS{},
		write:      osFS{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// BuildSequence returns the concatenation order: every segment, in order,
// followed by silence, the pair repeated repeat times. An empty silence path
// leaves the gaps out.
func BuildSequence(segments []Segment, silence string, repeat int) []string {
	if repeat < 1 {
		return nil
	}
	seq := make([]string, 0, len(segments)*repeat*2)
	for _, seg := range segments {
		for range repeat {
			seq = append(seq, seg.Path)
			if silence != "" {
				seq = append(seq, silence)
			}
		}
	}
	return seq
}

// Merge writes the interleaved segment/silence sequence to the output path
// and returns it. On failure no output file is left behind.
func (m *Merger) Merge(ctx context.Context, segments []Segment, repeat int) (string, error) {
	if len(segments) == 0 {
		return "", ErrNoSegments
	}

	var silence string
	if m.gap > 0 {
		var err error
		if silence, err = m.silence.Ensure(ctx, m.gap); err != nil {
			return "", err
		}
	}

	if err := m.dirs.MkdirAll(filepath.Dir(m.outputPath), outputDirPerm); err != nil {
		return "", fmt.Errorf("%w: cannot create output directory: %w", ErrMergeFailed, err)
	}

	seq := BuildSequence(segments, silence, repeat)
	listPath := m.outputPath + ".txt"
	if err := m.write.WriteFile(listPath, []byte(concatList(seq)), 0600); err != nil {
		return "", fmt.Errorf("%w: cannot write concat list: %w", ErrMergeFailed, err)
	}
	defer func() { _ = m.files.Remove(listPath) }() // best-effort; list is scratch

	m.logger.Info("merging segments",
		"segments", len(segments), "repeat", repeat, "inputs", len(seq), "output", m.outputPath)

	if err := m.concat(ctx, listPath); err != nil {
		_ = m.files.Remove(m.outputPath) // best-effort; partial output is invalid
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrMergeFailed, err)
	}

	return m.outputPath, nil
}

// concat runs the concat demuxer with stream copy, then once more with
// re-encoding if the copy fails.
func (m *Merger) concat(ctx context.Context, listPath string) error {
	base := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath}

	copyArgs := append(append([]string{}, base...), "-c", "copy", m.outputPath)
	err := m.cmd.Run(ctx, m.ffmpegPath, copyArgs)
	if err == nil || ctx.Err() != nil {
		return err
	}

	m.logger.Warn("stream copy failed, re-encoding", "error", err)
	encodeArgs := append(append([]string{}, base...), "-c:a", "libmp3lame", "-q:a", "2", m.outputPath)
	return m.cmd.Run(ctx, m.ffmpegPath, encodeArgs)
}

// concatList renders paths in the ffconcat format.
func concatList(paths []string) string {
	var sb strings.Builder
	sb.WriteString("ffconcat version 1.0\n")
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		sb.WriteString("file '")
		sb.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		sb.WriteString("'\n")
	}
	return sb.String()
}
