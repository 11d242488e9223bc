package ffmpeg

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates the FFmpeg binary is not installed or not reachable.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrProbeNotFound indicates FFPROBE_PATH points to a missing binary.
var ErrProbeNotFound = errors.New("ffprobe not found")

// Error is returned when an FFmpeg or FFprobe process exits unsuccessfully.
// Stderr holds the tool's diagnostic output.
type Error struct {
	Bin    string
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v\nOutput: %s",
		filepath.Base(e.Bin), strings.Join(e.Args, " "), e.Err, strings.TrimSpace(e.Stderr))
}

func (e *Error) Unwrap() error {
	return e.Err
}
