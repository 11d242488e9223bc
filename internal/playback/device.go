package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// DeviceSampleRate is the rate the speaker is opened at. Clips at other
// rates are resampled.
const DeviceSampleRate beep.SampleRate = 44100

// resampleQuality is the beep resampler quality (1-64).
const resampleQuality = 4

// Outcome is the result of one play-or-timeout race.
type Outcome int

const (
	// Completed means the device reported the end of the stream.
	Completed Outcome = iota
	// TimedOut means the timeout elapsed first. The stream keeps playing.
	TimedOut
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// SpeakerDevice plays clips on the default audio output.
// The speaker is opened on first use and must be released with Close.
type SpeakerDevice struct {
	sampleRate beep.SampleRate
	logger     *slog.Logger
	backend    speakerBackend

	initOnce sync.Once
	initErr  error
	mu       sync.Mutex
	opened   bool
}

// DeviceOption configures a SpeakerDevice.
type DeviceOption func(*SpeakerDevice)

// WithSpeakerBackend sets the audio backend for SpeakerDevice.
func WithSpeakerBackend(b speakerBackend) DeviceOption {
	return func(d *SpeakerDevice) { d.backend = b }
}

// WithDeviceLogger sets the logger for SpeakerDevice.
func WithDeviceLogger(l *slog.Logger) DeviceOption {
	return func(d *SpeakerDevice) { d.logger = l }
}

// NewSpeakerDevice creates a SpeakerDevice. Nothing is opened yet.
func NewSpeakerDevice(opts ...DeviceOption) *SpeakerDevice {
	d := &SpeakerDevice{
		sampleRate: DeviceSampleRate,
		logger:     slog.New(slog.DiscardHandler),
		backend:    beepSpeaker{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *SpeakerDevice) open() error {
	d.initOnce.Do(func() {
		bufferSize := d.sampleRate.N(time.Second / 10)
		if err := d.backend.Init(d.sampleRate, bufferSize); err != nil {
			d.initErr = fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
			return
		}
		d.mu.Lock()
		d.opened = true
		d.mu.Unlock()
		d.logger.Debug("audio device opened", "sample_rate", int(d.sampleRate), "buffer", bufferSize)
	})
	return d.initErr
}

// Play starts clip at the given rate and waits until it ends, timeout
// elapses, or ctx is done. A timeout of zero waits for completion only.
// On timeout the clip is left playing; on cancellation the device is cleared.
func (d *SpeakerDevice) Play(ctx context.Context, clip *Clip, rate float64, timeout time.Duration) (Outcome, error) {
	if rate <= 0 {
		return Completed, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	if err := d.open(); err != nil {
		return Completed, err
	}

	done := make(chan struct{})
	ratio := float64(clip.Format.SampleRate) / float64(d.sampleRate) * rate
	stream := beep.Seq(
		beep.ResampleRatio(resampleQuality, ratio, clip.Streamer()),
		beep.Callback(func() { close(done) }),
	)
	d.backend.Play(stream)

	return wait(ctx, done, timeout, d.backend.Clear)
}

// Close releases the audio device if it was opened.
func (d *SpeakerDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opened {
		d.backend.Clear()
		d.backend.Close()
		d.opened = false
	}
	return nil
}

// wait blocks until done is closed, timeout elapses or ctx is done.
func wait(ctx context.Context, done <-chan struct{}, timeout time.Duration, clear func()) (Outcome, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-done:
		return Completed, nil
	case <-expired:
		return TimedOut, nil
	case <-ctx.Done():
		clear()
		return Completed, ctx.Err()
	}
}
