// Package format renders durations, offsets and sizes for file names and logs.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration formats a duration as HH:MM:SS or MM:SS.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Seconds formats a duration as a plain number of seconds without trailing
// zeros: 5s -> "5", 2.5s -> "2.5". The conversion is exact, so distinct
// durations always produce distinct strings.
func Seconds(d time.Duration) string {
	sec := d / time.Second
	frac := d % time.Second
	if frac == 0 {
		return strconv.FormatInt(int64(sec), 10)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%09d", sec, frac), "0")
}

// FFmpegTime formats a duration for FFmpeg -ss/-t arguments as HH:MM:SS.fff,
// keeping up to microsecond precision: 400µs -> "00:00:00.0004".
// Sub-microsecond parts are truncated, never rounded into the next second.
func FFmpegTime(d time.Duration) string {
	const usPerSecond = int64(time.Second / time.Microsecond)

	us := int64(d / time.Microsecond)
	sec, frac := us/usPerSecond, us%usPerSecond
	h, m, s := sec/3600, sec/60%60, sec%60

	digits := strings.TrimRight(fmt.Sprintf("%06d", frac), "0")
	for len(digits) < 3 {
		digits += "0"
	}
	return fmt.Sprintf("%02d:%02d:%02d.%s", h, m, s, digits)
}

// FromSeconds converts fractional seconds to a duration, rounded to the
// nearest microsecond so that values like 0.1 do not pick up float noise.
func FromSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second)).Round(time.Microsecond)
}

// Size formats a size in bytes for human display.
// Uses MB for sizes >= 1MB, KB otherwise.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	if bytes >= mb {
		return fmt.Sprintf("%d MB", bytes/mb)
	}
	if bytes >= kb {
		return fmt.Sprintf("%d KB", bytes/kb)
	}
	return fmt.Sprintf("%d bytes", bytes)
}
