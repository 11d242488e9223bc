package playback_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/alnah/go-echoloop/internal/playback"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// fakeBackend stands in for the speaker. With drain set, every played
// streamer is consumed on a goroutine, which fires its end callback.
type fakeBackend struct {
	mu      sync.Mutex
	drain   bool
	initErr error
	inits   int
	plays   int
	clears  int
	closes  int
	rate    beep.SampleRate
	drained chan int // receives the sample count of each drained stream, if set
}

func (b *fakeBackend) Init(sr beep.SampleRate, _ int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inits++
	b.rate = sr
	return b.initErr
}

func (b *fakeBackend) Play(s ...beep.Streamer) {
	b.mu.Lock()
	b.plays++
	drain := b.drain
	b.mu.Unlock()

	if !drain {
		return
	}
	go func() {
		buf := make([][2]float64, 512)
		total := 0
		for _, st := range s {
			for {
				n, ok := st.Stream(buf)
				total += n
				if !ok {
					break
				}
			}
		}
		if b.drained != nil {
			b.drained <- total
		}
	}()
}

func (b *fakeBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clears++
}

func (b *fakeBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
}

func (b *fakeBackend) counts() (inits, plays, clears, closes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inits, b.plays, b.clears, b.closes
}

// recorder collects the order of decode and play calls across mocks.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type mockDecoder struct {
	rec *recorder
	err error
}

func (m *mockDecoder) Decode(path string) (*playback.Clip, error) {
	m.rec.add("decode %s", path)
	if m.err != nil {
		return nil, m.err
	}
	return playback.SilentClip(path, 44100, 100), nil
}

type mockPlayer struct {
	rec      *recorder
	outcomes []playback.Outcome // per call; Completed when exhausted
	err      error
	calls    int
	gotRate  float64
	gotLimit time.Duration
}

func (m *mockPlayer) Play(ctx context.Context, clip *playback.Clip, rate float64, timeout time.Duration) (playback.Outcome, error) {
	m.rec.add("play %s", clip.Path)
	m.gotRate = rate
	m.gotLimit = timeout
	i := m.calls
	m.calls++
	if m.err != nil {
		return playback.Completed, m.err
	}
	if err := ctx.Err(); err != nil {
		return playback.Completed, err
	}
	if i < len(m.outcomes) {
		return m.outcomes[i], nil
	}
	return playback.Completed, nil
}

var errNoDevice = errors.New("no such device")
