package playback

import (
	"context"
	"time"

	"github.com/gopxl/beep/v2"
)

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// Wait exports wait for testing.
func Wait(ctx context.Context, done <-chan struct{}, timeout time.Duration, clear func()) (Outcome, error) {
	return wait(ctx, done, timeout, clear)
}

// --- Dependency injection exports ---

// FileOpener exports fileOpener interface for testing.
type FileOpener = fileOpener

// SpeakerBackend exports speakerBackend interface for testing.
type SpeakerBackend = speakerBackend

// ClipDecoder exports clipDecoder interface for testing.
type ClipDecoder = clipDecoder

// ClipPlayer exports clipPlayer interface for testing.
type ClipPlayer = clipPlayer

// SilentClip returns an in-memory clip of n silent samples.
func SilentClip(path string, rate beep.SampleRate, n int) *Clip {
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	return NewClip(path, format, beep.Silence(n))
}
