// Package media prepares audio on disk with FFmpeg: format normalization,
// fixed-window segmentation, silence clips and merging.
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

// SegmentExt is the container every segment and silence clip is encoded to.
const SegmentExt = ".mp3"

// outputDirPerm is the permission mode for created output directories.
const outputDirPerm = 0750

// Segment is one time window of the source audio, materialized as a file.
// The run that created it owns the file and must remove it (see Cleanup).
type Segment struct {
	Path   string        // Path to the segment file.
	Index  int           // Zero-based position in the source.
	Start  time.Duration // Offset in the source audio.
	Length time.Duration // Nominal length; the last window may be shorter.
}

// End returns the offset at which this segment stops.
func (s Segment) End() time.Duration {
	return s.Start + s.Length
}

// String returns a human-readable representation for logging.
func (s Segment) String() string {
	return fmt.Sprintf("segment %d: %s-%s",
		s.Index,
		format.Duration(s.Start),
		format.Duration(s.End()))
}

// Window is a planned [Start, Start+Length) slice of the source.
type Window struct {
	Start  time.Duration
	Length time.Duration
}

// PlanWindows partitions [0, total) into consecutive windows of size window.
// Offsets are computed as i*window rather than accumulated, so there is no
// drift: the result has ceil(total/window) entries and only the last may be
// shorter than window.
func PlanWindows(total, window time.Duration) []Window {
	if total <= 0 || window <= 0 {
		return nil
	}

	n := int((total + window - 1) / window)
	windows := make([]Window, 0, n)
	for i := 0; ; i++ {
		start := time.Duration(i) * window
		if start >= total {
			break
		}
		windows = append(windows, Window{
			Start:  start,
			Length: min(window, total-start),
		})
	}
	return windows
}

// SegmentFileName returns the file name of the segment starting at start.
func SegmentFileName(start time.Duration) string {
	return "segment_" + format.Seconds(start) + SegmentExt
}

// durationProber reads the duration of an audio file. *Prober satisfies it.
type durationProber interface {
	Duration(ctx context.Context, audioPath string) (time.Duration, error)
}

// ProgressFunc is called after each segment is written.
type ProgressFunc func(done, total int, seg Segment)

// Segmenter cuts an audio file into fixed-length segment files.
type Segmenter struct {
	ffmpegPath string
	outputDir  string
	window     time.Duration
	prober     durationProber
	progress   ProgressFunc
	logger     *slog.Logger

	// Injectable dependencies (defaults to OS implementations).
	cmd   commandRunner
	dirs  dirMaker
	files fileRemover
}

// SegmenterOption configures a Segmenter.
type SegmenterOption func(*Segmenter)

// WithSegmenterCommandRunner sets the command runner for Segmenter.
func WithSegmenterCommandRunner(r commandRunner) SegmenterOption {
	return func(s *Segmenter) { s.cmd = r }
}

// WithSegmenterDirMaker sets the directory creator for Segmenter.
func WithSegmenterDirMaker(d dirMaker) SegmenterOption {
	return func(s *Segmenter) { s.dirs = d }
}

// WithSegmenterFileRemover sets the file remover for Segmenter.
func WithSegmenterFileRemover(f fileRemover) SegmenterOption {
	return func(s *Segmenter) { s.files = f }
}

// WithSegmentProgress sets a callback invoked after each extracted segment.
func WithSegmentProgress(fn ProgressFunc) SegmenterOption {
	return func(s *Segmenter) { s.progress = fn }
}

// WithSegmenterLogger sets the logger for Segmenter.
func WithSegmenterLogger(l *slog.Logger) SegmenterOption {
	return func(s *Segmenter) { s.logger = l }
}

// NewSegmenter creates a Segmenter writing window-sized segments to outputDir.
func NewSegmenter(ffmpegPath, outputDir string, window time.Duration, prober durationProber, opts ...SegmenterOption) (*Segmenter, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: segment duration %v", ErrInvalidWindow, window)
	}
	if prober == nil {
		return nil, fmt.Errorf("segmenter requires a prober")
	}

	s := &Segmenter{
		ffmpegPath: ffmpegPath,
		outputDir:  outputDir,
		window:     window,
		prober:     prober,
		logger:     slog.New(slog.DiscardHandler),
		cmd:        ffmpeg.NewExecutor(),
		dirs:       osFS{},
		files:      osFS{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Segment probes audioPath and extracts one file per window, in order.
// Each extraction completes before the next starts. If any extraction fails,
// the segments already written are removed and ErrSegmentationFailed is returned.
func (s *Segmenter) Segment(ctx context.Context, audioPath string) ([]Segment, error) {
	if err := s.dirs.MkdirAll(s.outputDir, outputDirPerm); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}

	total, err := s.prober.Duration(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	windows := PlanWindows(total, s.window)
	s.logger.Debug("planned segments",
		"input", audioPath, "duration", total, "window", s.window, "count", len(windows))

	segments := make([]Segment, 0, len(windows))
	for i, w := range windows {
		seg := Segment{
			Path:   filepath.Join(s.outputDir, SegmentFileName(w.Start)),
			Index:  i,
			Start:  w.Start,
			Length: w.Length,
		}

		if err := s.extract(ctx, audioPath, seg); err != nil {
			_ = s.files.Remove(seg.Path) // best-effort; may not exist
			for _, done := range segments {
				_ = s.files.Remove(done.Path) // best-effort cleanup; original error takes precedence
			}
			return nil, err
		}

		segments = append(segments, seg)
		s.logger.Debug("segment written", "segment", seg.String(), "path", seg.Path)
		if s.progress != nil {
			s.progress(len(segments), len(windows), seg)
		}
	}

	return segments, nil
}

// extract writes one window of audioPath to seg.Path.
func (s *Segmenter) extract(ctx context.Context, audioPath string, seg Segment) error {
	args := []string{
		"-y",
		"-ss", format.FFmpegTime(seg.Start),
		"-t", format.FFmpegTime(seg.Length),
		"-i", audioPath,
	}
	args = append(args, encodingArgs()...)
	args = append(args, seg.Path)

	if err := s.cmd.Run(ctx, s.ffmpegPath, args); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrSegmentationFailed, seg, err)
	}
	return nil
}

// encodingArgs returns the FFmpeg encoding arguments shared by segments and
// silence clips. Identical stream parameters let the merger concatenate
// them without re-encoding.
func encodingArgs() []string {
	return []string{
		"-vn",
		"-c:a", "libmp3lame",
		"-ar", "44100",
		"-ac", "2",
		"-q:a", "2",
	}
}
