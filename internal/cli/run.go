package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alnah/go-echoloop/internal/config"
	"github.com/alnah/go-echoloop/internal/format"
	"github.com/alnah/go-echoloop/internal/pipeline"
)

// runFlags holds command-line overrides. A flag only overrides the
// environment when it was set explicitly.
type runFlags struct {
	segment   float64
	repeat    int
	mode      string
	rate      float64
	timeout   int
	gap       float64
	outputDir string
	merged    string
	debug     int
}

// apply copies every explicitly set flag into s.
func (f runFlags) apply(flags *pflag.FlagSet, s *config.Settings) {
	if flags.Changed("segment") {
		s.SegmentDuration = f.segment
	}
	if flags.Changed("repeat") {
		s.RepeatEach = f.repeat
	}
	if flags.Changed("mode") {
		s.Mode = f.mode
	}
	if flags.Changed("rate") {
		s.PlaybackRate = f.rate
	}
	if flags.Changed("timeout") {
		s.TimeoutMS = f.timeout
	}
	if flags.Changed("gap") {
		s.GapSeconds = f.gap
	}
	if flags.Changed("output-dir") {
		s.OutputDir = f.outputDir
	}
	if flags.Changed("merged") {
		s.MergedFile = f.merged
	}
	if flags.Changed("debug") {
		s.Debug = f.debug
	}
}

// RunCmd creates the run command.
// The env parameter provides injectable dependencies for testing.
func RunCmd(env *Env) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [audio-file]",
		Short: "Repeat an audio file segment by segment",
		Long: `Cut an audio file into fixed-length segments and repeat each one.

In play mode every segment is played REPEAT_EACH times through the default
audio device before moving on. In merge mode the repeats are concatenated,
each followed by a silence gap, into a single MP3 file.

OGG input is converted to MP3 first. Segment files are always deleted when
the run ends, even on failure or Ctrl+C.

Settings come from the environment (and a .env file), then from these flags.
The audio file argument overrides AUDIO_FILE.`,
		Example: `  echoloop run lesson.mp3
  echoloop run lesson.ogg -s 4 -r 3 --rate 0.5
  echoloop run lesson.mp3 -m merge --gap 2 --merged drill.mp3
  AUDIO_FILE=lesson.mp3 MODE=merge echoloop run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, env, args, f)
		},
	}

	cmd.Flags().Float64VarP(&f.segment, "segment", "s", 5, "Segment length in seconds (SEGMENT_DURATION)")
	cmd.Flags().IntVarP(&f.repeat, "repeat", "r", 2, "Repeats per segment (REPEAT_EACH)")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", string(pipeline.ModePlay), "play or merge (MODE)")
	cmd.Flags().Float64Var(&f.rate, "rate", 0.2, "Playback rate multiplier (PLAYBACK_RATE)")
	cmd.Flags().IntVar(&f.timeout, "timeout", 20000, "Per-repeat playback timeout in ms, 0 disables (TIMEOUT)")
	cmd.Flags().Float64Var(&f.gap, "gap", 0, "Silence after each repeat in merge mode, seconds (GAP_SECONDS)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "Directory for segment files (OUTPUT_DIR)")
	cmd.Flags().StringVar(&f.merged, "merged", "", "Merged output path (MERGED_FILE)")
	cmd.Flags().IntVarP(&f.debug, "debug", "d", 1, "Verbosity: 0 warnings, 1 progress, 2 debug (DEBUG)")

	return cmd
}

// runRun resolves settings and executes the pipeline.
// Order: env -> flags -> config file -> validate -> ffmpeg -> pipeline.
func runRun(cmd *cobra.Command, env *Env, args []string, f runFlags) error {
	ctx := cmd.Context()

	// === SETTINGS ===

	s, err := config.Load(ctx, env.Lookuper)
	if err != nil {
		return err
	}
	f.apply(cmd.Flags(), &s)
	if len(args) == 1 {
		s.AudioFile = args[0]
	}

	values, err := env.ConfigStore.List()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	s.ApplyFile(values)

	if err := s.Validate(); err != nil {
		return err
	}

	logger := s.NewLogger(env.Stderr)
	logger.Debug("settings resolved", "settings", s.String())

	// === SETUP ===

	tools, err := env.FFmpegResolver.Resolve(ctx, s, logger)
	if err != nil {
		return err
	}

	runner, device, err := env.PipelineFactory.NewPipeline(ctx, tools, s, logger, env.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := device.Close(); cerr != nil {
			logger.Warn("failed to close audio device", "error", cerr)
		}
	}()

	// === RUN ===

	fmt.Fprintf(env.Stderr, "Segmenting %s into %ss windows...\n",
		s.AudioFile, format.Seconds(s.Window()))

	job := pipeline.Job{
		Input:  s.AudioFile,
		Mode:   pipeline.Mode(s.Mode),
		Repeat: s.RepeatEach,
		Rate:   s.PlaybackRate,
	}
	report, err := runner.Run(ctx, job)

	if report.CleanupErr != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to cleanup segments: %v\n", report.CleanupErr)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(env.Stderr, "Interrupted after %s\n", format.Duration(report.Elapsed))
		}
		return err
	}

	writeSummary(env.Stderr, job.Mode, report)
	return nil
}

// writeSummary prints the outcome of a successful run.
func writeSummary(w io.Writer, mode pipeline.Mode, r pipeline.Report) {
	switch mode {
	case pipeline.ModeMerge:
		size := ""
		if info, err := os.Stat(r.Merged); err == nil {
			size = " (" + format.Size(info.Size()) + ")"
		}
		_, _ = fmt.Fprintf(w, "Done: %s%s\n", r.Merged, size)
		if r.Published != "" {
			_, _ = fmt.Fprintf(w, "Published: %s\n", r.Published)
		}
	default:
		_, _ = fmt.Fprintf(w, "Done: played %d/%d segments in %s\n",
			r.Played, r.Segments, format.Duration(r.Elapsed))
		if r.Skipped > 0 {
			_, _ = fmt.Fprintf(w, "  %d segments could not be decoded and were skipped\n", r.Skipped)
		}
		if r.TimedOut > 0 {
			_, _ = fmt.Fprintf(w, "  %d repeats stopped at the timeout\n", r.TimedOut)
		}
	}
}
