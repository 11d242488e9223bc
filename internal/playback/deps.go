package playback

import (
	"io"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// fileOpener opens files for reading.
type fileOpener interface {
	Open(name string) (io.ReadCloser, error)
}

// speakerBackend is the process-wide audio output.
type speakerBackend interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Clear()
	Close()
}

// --- Default implementations using real OS functions ---

// Compile-time interface verification.
var (
	_ fileOpener     = osFileOpener{}
	_ speakerBackend = beepSpeaker{}
)

// osFileOpener implements fileOpener using os.Open.
type osFileOpener struct{}

func (osFileOpener) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// beepSpeaker implements speakerBackend using the beep speaker package.
type beepSpeaker struct{}

func (beepSpeaker) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}

func (beepSpeaker) Play(s ...beep.Streamer) { speaker.Play(s...) }

func (beepSpeaker) Clear() { speaker.Clear() }

func (beepSpeaker) Close() { speaker.Close() }
