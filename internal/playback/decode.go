// Package playback decodes segments and plays them on the audio device,
// each repeat bounded by a timeout.
package playback

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Clip is a fully decoded segment held in memory.
// It can be streamed any number of times.
type Clip struct {
	Path   string
	Format beep.Format

	buffer *beep.Buffer
}

// NewClip reads s to the end into a new Clip.
func NewClip(path string, format beep.Format, s beep.Streamer) *Clip {
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return &Clip{Path: path, Format: format, buffer: buf}
}

// Duration returns the clip length at its native sample rate.
func (c *Clip) Duration() time.Duration {
	return c.Format.SampleRate.D(c.buffer.Len())
}

// Streamer returns a fresh streamer over the whole clip.
func (c *Clip) Streamer() beep.StreamSeeker {
	return c.buffer.Streamer(0, c.buffer.Len())
}

// decodeFunc decodes an opened file into a streamer.
type decodeFunc func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// decoders maps lower-case extensions to their decoder.
var decoders = map[string]decodeFunc{
	".mp3": mp3.Decode,
	".ogg": vorbis.Decode,
	".wav": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(rc)
	},
	".flac": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return flac.Decode(rc)
	},
}

// Decoder turns audio files into in-memory clips.
type Decoder struct {
	open fileOpener
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithFileOpener sets the file opener for Decoder.
func WithFileOpener(o fileOpener) DecoderOption {
	return func(d *Decoder) { d.open = o }
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{open: osFileOpener{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode fully decodes the file at path, choosing the codec by extension.
func (d *Decoder) Decode(path string) (*Clip, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrDecodeFailed, filepath.Ext(path))
	}

	f, err := d.open.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	s, format, err := decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, path, err)
	}
	defer s.Close()

	clip := NewClip(path, format, s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, path, err)
	}
	return clip, nil
}
