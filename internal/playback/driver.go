package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alnah/go-echoloop/internal/media"
)

// clipDecoder decodes a file into a clip. *Decoder satisfies it.
type clipDecoder interface {
	Decode(path string) (*Clip, error)
}

// clipPlayer plays a clip with a timeout. *SpeakerDevice satisfies it.
type clipPlayer interface {
	Play(ctx context.Context, clip *Clip, rate float64, timeout time.Duration) (Outcome, error)
}

var (
	_ clipDecoder = (*Decoder)(nil)
	_ clipPlayer  = (*SpeakerDevice)(nil)
)

// Result summarizes the playback of one segment.
type Result struct {
	Segment   media.Segment
	Skipped   bool // decode failed; nothing was played
	Completed int  // repeats that finished before the timeout
	TimedOut  int  // repeats abandoned at the timeout
}

// Driver plays each segment repeatCount times, one repeat after another.
type Driver struct {
	decoder clipDecoder
	device  clipPlayer
	timeout time.Duration
	logger  *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithDriverLogger sets the logger for Driver.
func WithDriverLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) { d.logger = l }
}

// NewDriver creates a Driver. timeout bounds each repeat; zero disables it.
func NewDriver(decoder clipDecoder, device clipPlayer, timeout time.Duration, opts ...DriverOption) *Driver {
	d := &Driver{
		decoder: decoder,
		device:  device,
		timeout: timeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Play decodes seg once and plays it repeat times at rate.
// A decode failure skips the segment and is not returned as an error.
// Device failures and cancellation are returned.
func (d *Driver) Play(ctx context.Context, seg media.Segment, repeat int, rate float64) (Result, error) {
	result := Result{Segment: seg}

	clip, err := d.decoder.Decode(seg.Path)
	if err != nil {
		d.logger.Warn("skipping segment", "segment", seg.String(), "error", err)
		result.Skipped = true
		return result, nil
	}

	for i := range repeat {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		d.logger.Info("playing", "segment", seg.String(), "repeat", i+1, "of", repeat,
			"rate", rate, "length", clip.Duration())
		outcome, err := d.device.Play(ctx, clip, rate, d.timeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			return result, fmt.Errorf("play %s: %w", seg, err)
		}

		switch outcome {
		case TimedOut:
			result.TimedOut++
			d.logger.Debug("playback timed out", "segment", seg.String(), "repeat", i+1, "timeout", d.timeout)
		default:
			result.Completed++
		}
	}

	return result, nil
}
