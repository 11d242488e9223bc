package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sethvargo/go-envconfig"

	"github.com/alnah/go-echoloop/internal/config"
	"github.com/alnah/go-echoloop/internal/ffmpeg"
	"github.com/alnah/go-echoloop/internal/format"
	"github.com/alnah/go-echoloop/internal/media"
	"github.com/alnah/go-echoloop/internal/pipeline"
	"github.com/alnah/go-echoloop/internal/playback"
	"github.com/alnah/go-echoloop/internal/storage"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stderr   io.Writer
	Lookuper envconfig.Lookuper

	// Factories for domain objects
	FFmpegResolver  FFmpegResolver
	ConfigStore     ConfigStore
	PipelineFactory PipelineFactory
}

// Tools holds the resolved external binaries.
// FFprobe is empty when only ffmpeg is available.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// FFmpegResolver locates ffmpeg and ffprobe for a run.
type FFmpegResolver interface {
	Resolve(ctx context.Context, s config.Settings, logger *slog.Logger) (Tools, error)
}

// ConfigStore reads and writes the persistent user configuration.
type ConfigStore interface {
	Path() (string, error)
	List() (map[string]string, error)
	Get(key string) (string, error)
	Set(key, value string) error
}

// Runner executes a job. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job) (pipeline.Report, error)
}

// PipelineFactory assembles a Runner for the resolved settings.
// The returned io.Closer releases the audio device, if one was opened.
type PipelineFactory interface {
	NewPipeline(ctx context.Context, tools Tools, s config.Settings, logger *slog.Logger, progress io.Writer) (Runner, io.Closer, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithLookuper sets the environment variable source.
func WithLookuper(l envconfig.Lookuper) EnvOption {
	return func(e *Env) { e.Lookuper = l }
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) { e.FFmpegResolver = r }
}

// WithConfigStore sets the user configuration store.
func WithConfigStore(s ConfigStore) EnvOption {
	return func(e *Env) { e.ConfigStore = s }
}

// WithPipelineFactory sets the pipeline factory.
func WithPipelineFactory(f PipelineFactory) EnvOption {
	return func(e *Env) { e.PipelineFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stderr:          os.Stderr,
		Lookuper:        envconfig.OsLookuper(),
		FFmpegResolver:  &defaultFFmpegResolver{},
		ConfigStore:     &userConfigStore{},
		PipelineFactory: &defaultPipelineFactory{},
	}
}

// NewEnv creates an Env with the given options applied over defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations
// ---------------------------------------------------------------------------

// defaultFFmpegResolver uses ffmpeg.Resolver with the settings overrides.
type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context, s config.Settings, logger *slog.Logger) (Tools, error) {
	r := ffmpeg.NewResolver(
		ffmpeg.WithFFmpegPath(s.FFmpegPath),
		ffmpeg.WithFFprobePath(s.FFprobePath),
	)

	ffmpegPath, err := r.Resolve(ctx)
	if err != nil {
		return Tools{}, err
	}
	probePath, err := r.ResolveProbe(ctx, ffmpegPath)
	if err != nil {
		return Tools{}, err
	}
	if probePath == "" {
		logger.Debug("ffprobe not found, durations will be read from ffmpeg output")
	}

	ffmpeg.NewVersionChecker(ffmpeg.WithVersionLogger(logger)).Check(ctx, ffmpegPath)
	return Tools{FFmpeg: ffmpegPath, FFprobe: probePath}, nil
}

// userConfigStore reads the config file under the user config directory.
// The location is resolved on each call so XDG_CONFIG_HOME changes apply.
type userConfigStore struct{}

func (userConfigStore) Path() (string, error) {
	f, err := config.DefaultFile()
	if err != nil {
		return "", err
	}
	return f.Path(), nil
}

func (userConfigStore) List() (map[string]string, error) {
	f, err := config.DefaultFile()
	if err != nil {
		return nil, err
	}
	return f.List()
}

func (userConfigStore) Get(key string) (string, error) {
	f, err := config.DefaultFile()
	if err != nil {
		return "", err
	}
	return f.Get(key)
}

func (userConfigStore) Set(key, value string) error {
	f, err := config.DefaultFile()
	if err != nil {
		return err
	}
	return f.Set(key, value)
}

// defaultPipelineFactory wires the media, playback and storage packages.
type defaultPipelineFactory struct{}

func (defaultPipelineFactory) NewPipeline(ctx context.Context, tools Tools, s config.Settings, logger *slog.Logger, progress io.Writer) (Runner, io.Closer, error) {
	prober, err := media.NewProber(tools.FFmpeg, tools.FFprobe)
	if err != nil {
		return nil, nil, err
	}
	normalizer, err := media.NewNormalizer(tools.FFmpeg, media.WithNormalizerLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	segmenter, err := media.NewSegmenter(tools.FFmpeg, s.OutputDir, s.Window(), prober,
		media.WithSegmentProgress(segmentProgress(progress)),
		media.WithSegmenterLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	var closer io.Closer = nopCloser{}

	switch pipeline.Mode(s.Mode) {
	case pipeline.ModePlay:
		device := playback.NewSpeakerDevice(playback.WithDeviceLogger(logger))
		driver := playback.NewDriver(playback.NewDecoder(), device, s.Timeout(),
			playback.WithDriverLogger(logger))
		opts = append(opts, pipeline.WithPlayer(driver))
		closer = device

	case pipeline.ModeMerge:
		silence, err := media.NewSilenceGenerator(tools.FFmpeg, s.SilenceDir,
			media.WithSilenceLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		merger, err := media.NewMerger(tools.FFmpeg, s.MergedPath(), s.Gap(), silence,
			media.WithMergerLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pipeline.WithMerger(merger))

		if cfg := s3Config(s); cfg.Enabled() {
			publisher, err := storage.NewS3Publisher(ctx, cfg)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %w", storage.ErrPublishFailed, err)
			}
			opts = append(opts, pipeline.WithPublisher(publisher))
		}
	}

	return pipeline.New(normalizer, segmenter, opts...), closer, nil
}

// s3Config maps settings to the publisher configuration.
func s3Config(s config.Settings) storage.S3Config {
	return storage.S3Config{
		Bucket:          s.S3Bucket,
		Region:          s.S3Region,
		Endpoint:        s.S3Endpoint,
		Prefix:          s.S3Prefix,
		AccessKeyID:     s.AWSAccessKeyID,
		SecretAccessKey: s.AWSSecretAccessKey,
	}
}

// segmentProgress prints one line per extracted segment.
func segmentProgress(w io.Writer) media.ProgressFunc {
	return func(done, total int, seg media.Segment) {
		_, _ = fmt.Fprintf(w, "  Segment %d/%d (%s-%s)\n",
			done, total, format.Duration(seg.Start), format.Duration(seg.End()))
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Compile-time interface checks.
var (
	_ FFmpegResolver  = (*defaultFFmpegResolver)(nil)
	_ ConfigStore     = (*userConfigStore)(nil)
	_ PipelineFactory = (*defaultPipelineFactory)(nil)
	_ Runner          = (*pipeline.Pipeline)(nil)
	_ io.Closer       = (*playback.SpeakerDevice)(nil)
)
