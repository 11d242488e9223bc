// Package pipeline runs a job end to end: normalize the input, cut it into
// segments, play or merge them, then delete the segments.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alnah/go-echoloop/internal/media"
	"github.com/alnah/go-echoloop/internal/playback"
)

// normalizer resolves the input path. *media.Normalizer satisfies it.
type normalizer interface {
	Normalize(ctx context.Context, inputPath string) (string, error)
}

// segmenter cuts the input into segment files. *media.Segmenter satisfies it.
type segmenter interface {
	Segment(ctx context.Context, audioPath string) ([]media.Segment, error)
}

// player plays one segment. *playback.Driver satisfies it.
type player interface {
	Play(ctx context.Context, seg media.Segment, repeat int, rate float64) (playback.Result, error)
}

// merger concatenates segments. *media.Merger satisfies it.
type merger interface {
	Merge(ctx context.Context, segments []media.Segment, repeat int) (string, error)
}

// publisher uploads the merged file. *storage.S3Publisher satisfies it.
type publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

// CleanupFunc deletes segment files.
type CleanupFunc func(segments []media.Segment) error

var (
	_ normalizer = (*media.Normalizer)(nil)
	_ segmenter  = (*media.Segmenter)(nil)
	_ player     = (*playback.Driver)(nil)
	_ merger     = (*media.Merger)(nil)
)

// Job holds the parameters of a single run.
type Job struct {
	Input  string
	Mode   Mode
	Repeat int
	Rate   float64
}

// Report summarizes a run. It is returned even when the run fails.
type Report struct {
	Input      string // path actually segmented (after normalization)
	Segments   int
	Played     int // segments played at least once
	Skipped    int // segments that failed to decode
	TimedOut   int // repeats abandoned at the timeout
	Merged     string
	Published  string
	CleanupErr error
	Elapsed    time.Duration
}

// Pipeline wires the stages of a run together.
type Pipeline struct {
	normalizer normalizer
	segmenter  segmenter
	player     player
	merger     merger
	publisher  publisher
	cleanup    CleanupFunc
	onState    func(State)
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPlayer sets the stage used in play mode.
func WithPlayer(p player) Option {
	return func(pl *Pipeline) { pl.player = p }
}

// WithMerger sets the stage used in merge mode.
func WithMerger(m merger) Option {
	return func(pl *Pipeline) { pl.merger = m }
}

// WithPublisher sets an optional upload of the merged file.
func WithPublisher(p publisher) Option {
	return func(pl *Pipeline) { pl.publisher = p }
}

// WithCleanup replaces the segment deletion function.
func WithCleanup(fn CleanupFunc) Option {
	return func(pl *Pipeline) { pl.cleanup = fn }
}

// WithStateHook registers a callback invoked on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(pl *Pipeline) { pl.onState = fn }
}

// WithLogger sets the logger for Pipeline.
func WithLogger(l *slog.Logger) Option {
	return func(pl *Pipeline) { pl.logger = l }
}

// New creates a Pipeline. Play and merge stages are added with options.
func New(n normalizer, s segmenter, opts ...Option) *Pipeline {
	pl := &Pipeline{
		normalizer: n,
		segmenter:  s,
		cleanup:    media.Cleanup,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

// Run executes job. Steps run strictly in sequence. Once segments exist they
// are always deleted before Run returns, whichever step failed. Cleanup
// failures are reported in Report.CleanupErr and do not fail the run.
func (pl *Pipeline) Run(ctx context.Context, job Job) (report Report, err error) {
	start := pl.now()
	defer func() { report.Elapsed = pl.now().Sub(start) }()

	pl.enter(Normalizing)
	input, err := pl.normalizer.Normalize(ctx, job.Input)
	if err != nil {
		pl.enter(Failed)
		return report, err
	}
	report.Input = input

	pl.enter(Segmenting)
	segments, err := pl.segmenter.Segment(ctx, input)
	if err != nil {
		pl.enter(Failed)
		return report, err
	}
	report.Segments = len(segments)

	err = pl.process(ctx, job, segments, &report)

	pl.enter(CleaningUp)
	if cerr := pl.cleanup(segments); cerr != nil {
		report.CleanupErr = cerr
		pl.logger.Warn("cleanup incomplete", "error", cerr)
	}

	if err != nil {
		pl.enter(Failed)
		return report, err
	}
	pl.enter(Done)
	return report, nil
}

// process runs the mode-specific branch.
func (pl *Pipeline) process(ctx context.Context, job Job, segments []media.Segment, report *Report) error {
	switch job.Mode {
	case ModePlay:
		pl.enter(Playing)
		return pl.play(ctx, job, segments, report)
	case ModeMerge:
		pl.enter(Merging)
		if err := pl.merge(ctx, job, segments, report); err != nil {
			return err
		}
		if pl.publisher == nil {
			return nil
		}
		pl.enter(Publishing)
		location, err := pl.publisher.Publish(ctx, report.Merged)
		if err != nil {
			return err
		}
		report.Published = location
		return nil
	default:
		pl.logger.Error("unknown mode", "mode", string(job.Mode))
		return fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownMode, job.Mode, ModePlay, ModeMerge)
	}
}

func (pl *Pipeline) play(ctx context.Context, job Job, segments []media.Segment, report *Report) error {
	if pl.player == nil {
		return fmt.Errorf("%w: player", ErrMissingStage)
	}
	for _, seg := range segments {
		res, err := pl.player.Play(ctx, seg, job.Repeat, job.Rate)
		report.TimedOut += res.TimedOut
		if res.Skipped {
			report.Skipped++
		} else if res.Completed+res.TimedOut > 0 {
			report.Played++
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (pl *Pipeline) merge(ctx context.Context, job Job, segments []media.Segment, report *Report) error {
	if pl.merger == nil {
		return fmt.Errorf("%w: merger", ErrMissingStage)
	}
	merged, err := pl.merger.Merge(ctx, segments, job.Repeat)
	if err != nil {
		return err
	}
	report.Merged = merged
	pl.logger.Info("merged output written", "path", merged)
	return nil
}

func (pl *Pipeline) enter(s State) {
	if s.Terminal() {
		pl.logger.Info("pipeline finished", "state", s.String())
	} else {
		pl.logger.Debug("pipeline state", "state", s.String())
	}
	if pl.onState != nil {
		pl.onState(s)
	}
}
