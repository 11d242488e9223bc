package media

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-echoloop/internal/ffmpeg"
	"github.com/alnah/go-echoloop/internal/format"
)

// Prober reads the total duration of an audio file.
// It prefers ffprobe's JSON output and falls back to the "Duration:" line
// ffmpeg prints when ffprobe is not installed.
type Prober struct {
	ffmpegPath  string
	ffprobePath string

	cmd commandRunner
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProberCommandRunner sets the command runner for Prober.
func WithProberCommandRunner(r commandRunner) ProberOption {
	return func(p *Prober) { p.cmd = r }
}

// NewProber creates a Prober. ffprobePath may be empty.
func NewProber(ffmpegPath, ffprobePath string, opts ...ProberOption) (*Prober, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}

	p := &Prober{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		cmd:         ffmpeg.NewExecutor(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Duration returns the total duration of audioPath.
func (p *Prober) Duration(ctx context.Context, audioPath string) (time.Duration, error) {
	var (
		d   time.Duration
		err error
	)
	if p.ffprobePath != "" {
		d, err = p.probeJSON(ctx, audioPath)
	} else {
		d, err = p.probeFFmpeg(ctx, audioPath)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrProbeFailed, audioPath, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s: duration is %v", ErrProbeFailed, audioPath, d)
	}
	return d, nil
}

// probeResult mirrors the part of "ffprobe -show_format" we read.
type probeResult struct {
	Format probeFormat `json:"format"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// probeJSON runs ffprobe and reads format.duration.
func (p *Prober) probeJSON(ctx context.Context, audioPath string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		audioPath,
	}
	out, err := p.cmd.Output(ctx, p.ffprobePath, args)
	if err != nil {
		return 0, err
	}
	return parseProbeJSON(out)
}

// parseProbeJSON extracts the duration from ffprobe JSON output.
func parseProbeJSON(out []byte) (time.Duration, error) {
	var result probeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if result.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(result.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ffprobe duration %q: %w", result.Format.Duration, err)
	}
	return format.FromSeconds(seconds), nil
}

// probeFFmpeg reads the header ffmpeg prints for "-i file" without output.
func (p *Prober) probeFFmpeg(ctx context.Context, audioPath string) (time.Duration, error) {
	args := []string{"-hide_banner", "-i", audioPath}
	output, err := p.cmd.RunOutput(ctx, p.ffmpegPath, args)
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	// ffmpeg exits 1 here ("At least one output file must be specified"),
	// the header is still valid.
	if err != nil && output == "" {
		return 0, err
	}
	return parseDurationFromFFmpegOutput(output)
}

var durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)

// parseDurationFromFFmpegOutput extracts duration from FFmpeg stderr.
// Looks for: "Duration: HH:MM:SS.ff"
func parseDurationFromFFmpegOutput(output string) (time.Duration, error) {
	matches := durationRe.FindStringSubmatch(output)
	if matches == nil {
		return 0, fmt.Errorf("could not parse duration from ffmpeg output")
	}
	return parseTimeComponents(matches[1], matches[2], matches[3], matches[4])
}

// parseTimeComponents converts HH:MM:SS.frac strings to Duration.
func parseTimeComponents(hours, minutes, seconds, fractional string) (time.Duration, error) {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)

	// Normalize fractional part to milliseconds.
	// Input may be 1-6+ digits (e.g., ".4", ".45", ".456", ".456789").
	if len(fractional) > 3 {
		fractional = fractional[:3]
	}
	fractional += strings.Repeat("0", 3-len(fractional))
	ms, _ := strconv.Atoi(fractional)

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
