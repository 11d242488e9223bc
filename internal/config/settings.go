// Package config resolves run settings from the environment, command-line
// overrides and the persistent user config file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/alnah/go-echoloop/internal/format"
)

// Defaults applied when neither the environment nor the config file sets a value.
const (
	DefaultOutputDir  = "output"
	DefaultMergedName = "merged.mp3"
)

// ErrInvalidSettings indicates a setting is missing or out of range.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds all parameters of a run. It is resolved once at startup
// and passed by value; nothing reads the environment afterwards.
type Settings struct {
	// Input
	AudioFile string `env:"AUDIO_FILE" validate:"required"`

	// Segmentation and playback
	SegmentDuration float64 `env:"SEGMENT_DURATION, default=5" validate:"gt=0"`
	RepeatEach      int     `env:"REPEAT_EACH, default=2" validate:"gte=1"`
	Mode            string  `env:"MODE, default=play"` // checked by the pipeline
	PlaybackRate    float64 `env:"PLAYBACK_RATE, default=0.2" validate:"gt=0,lte=16"`
	TimeoutMS       int     `env:"TIMEOUT, default=20000" validate:"gte=0"`
	GapSeconds      float64 `env:"GAP_SECONDS, default=0" validate:"gte=0"`

	// Paths
	OutputDir   string `env:"OUTPUT_DIR"`
	SilenceDir  string `env:"SILENCE_DIR"`
	MergedFile  string `env:"MERGED_FILE"`
	FFmpegPath  string `env:"FFMPEG_PATH"`
	FFprobePath string `env:"FFPROBE_PATH"`

	// Logging
	Debug     int    `env:"DEBUG, default=1" validate:"gte=0"`
	LogFormat string `env:"LOG_FORMAT, default=text" validate:"oneof=text json"`

	// Optional S3 publishing of the merged file
	S3Bucket           string `env:"S3_BUCKET"`
	S3Region           string `env:"S3_REGION"`
	S3Endpoint         string `env:"S3_ENDPOINT" validate:"omitempty,url"`
	S3Prefix           string `env:"S3_PREFIX"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// Load reads Settings from l, or from the process environment when l is nil.
func Load(ctx context.Context, l envconfig.Lookuper) (Settings, error) {
	if l == nil {
		l = envconfig.OsLookuper()
	}

	var s Settings
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &s,
		Lookuper: l,
	}); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return s, nil
}

// ApplyFile fills directories left empty by the environment from the user
// config file, then from built-in defaults.
func (s *Settings) ApplyFile(values map[string]string) {
	if s.OutputDir == "" {
		s.OutputDir = values[KeyOutputDir]
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	if s.SilenceDir == "" {
		s.SilenceDir = values[KeySilenceDir]
	}
	if s.SilenceDir == "" {
		s.SilenceDir = "silence"
	}
	s.OutputDir = ExpandPath(s.OutputDir)
	s.SilenceDir = ExpandPath(s.SilenceDir)
}

// validate is shared; validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their environment variable name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks ranges and required values.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(msgs, "; "))
}

// describe renders one validation failure.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %q)", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s check (got %v)", fe.Field(), fe.Tag(), fe.Value())
	}
}

// Window returns the segment length.
func (s Settings) Window() time.Duration {
	return format.FromSeconds(s.SegmentDuration)
}

// Timeout returns the per-repeat playback timeout.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// Gap returns the silence inserted after each segment when merging.
// Without GAP_SECONDS the playback timeout is used; zero means no silence.
func (s Settings) Gap() time.Duration {
	if s.GapSeconds > 0 {
		return format.FromSeconds(s.GapSeconds)
	}
	return s.Timeout()
}

// MergedPath returns where merge mode writes its output.
func (s Settings) MergedPath() string {
	if s.MergedFile != "" {
		return filepath.Clean(ExpandPath(s.MergedFile))
	}
	return filepath.Join(s.OutputDir, DefaultMergedName)
}

// LogLevel maps the DEBUG verbosity to a slog level:
// 0 warnings and errors, 1 progress, 2 and above everything.
func (s Settings) LogLevel() slog.Level {
	switch {
	case s.Debug <= 0:
		return slog.LevelWarn
	case s.Debug == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// NewLogger creates a structured logger writing to w.
// When LogFormat is "json", it outputs JSON logs; otherwise human-readable text.
func (s Settings) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel()}

	var handler slog.Handler
	if strings.EqualFold(s.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// String returns a representation of the settings with secrets masked.
func (s Settings) String() string {
	secret := ""
	if s.AWSSecretAccessKey != "" {
		secret = "***"
	}
	return fmt.Sprintf(
		"Settings{AudioFile: %s, SegmentDuration: %v, RepeatEach: %d, Mode: %s, PlaybackRate: %v, Timeout: %v, Gap: %v, OutputDir: %s, SilenceDir: %s, Merged: %s, S3Bucket: %s, AWSSecretAccessKey: %s}",
		s.AudioFile, s.SegmentDuration, s.RepeatEach, s.Mode, s.PlaybackRate,
		s.Timeout(), s.Gap(), s.OutputDir, s.SilenceDir, s.MergedPath(), s.S3Bucket, secret,
	)
}
