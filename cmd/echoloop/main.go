package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-echoloop/internal/cli"
	"github.com/alnah/go-echoloop/internal/config"
	"github.com/alnah/go-echoloop/internal/ffmpeg"
	"github.com/alnah/go-echoloop/internal/interrupt"
	"github.com/alnah/go-echoloop/internal/media"
	"github.com/alnah/go-echoloop/internal/pipeline"
	"github.com/alnah/go-echoloop/internal/playback"
	"github.com/alnah/go-echoloop/internal/storage"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitConversion = 5
	ExitSegment    = 6
	ExitMerge      = 7
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if present. Variables already set in the process win.
	_ = godotenv.Load()

	// First Ctrl+C cancels the run (segments are still cleaned up),
	// a second one within the window exits immediately.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	env := cli.DefaultEnv()

	rootCmd := newRootCmd(env)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return resultCode(err, handler.WasInterrupted())
	}
	return ExitOK
}

// resultCode maps a failed run to its exit code. A run that failed after
// the user pressed Ctrl+C always exits with ExitInterrupt, whatever error
// the interrupted stage surfaced.
func resultCode(err error, interrupted bool) int {
	if err != nil && interrupted {
		return ExitInterrupt
	}
	return exitCode(err)
}

// newRootCmd builds the command tree.
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "echoloop",
		Short: "Repeat audio segment by segment for listening practice",
		Long: `echoloop cuts an audio file into short segments and repeats each one,
either live through the speakers or as a single merged MP3 with silence gaps.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.RunCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Interrupt wins over whatever stage was running.
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, ffmpeg.ErrProbeNotFound) ||
		errors.Is(err, playback.ErrDeviceUnavailable) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, config.ErrInvalidSettings) || errors.Is(err, media.ErrFileNotFound) ||
		errors.Is(err, pipeline.ErrUnknownMode) || errors.Is(err, media.ErrInvalidWindow) ||
		errors.Is(err, playback.ErrInvalidRate) || errors.Is(err, config.ErrUnknownKey) ||
		errors.Is(err, config.ErrNotDirectory) || errors.Is(err, config.ErrNotWritable) {
		return ExitValidation
	}

	// Conversion errors (ExitConversion = 5).
	if errors.Is(err, media.ErrConversionFailed) {
		return ExitConversion
	}

	// Segmentation errors (ExitSegment = 6), including probing.
	if errors.Is(err, media.ErrSegmentationFailed) || errors.Is(err, media.ErrProbeFailed) {
		return ExitSegment
	}

	// Merge and publish errors (ExitMerge = 7).
	if errors.Is(err, media.ErrMergeFailed) || errors.Is(err, media.ErrNoSegments) ||
		errors.Is(err, storage.ErrPublishFailed) || errors.Is(err, storage.ErrBucketRequired) {
		return ExitMerge
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	// Checked after the sentinels so ffmpeg stderr text cannot match a pattern.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"unknown command",        // Subcommand doesn't exist
	"unknown flag",           // Flag doesn't exist
	"unknown shorthand",      // Short flag doesn't exist
	"flag needs an argument", // Flag provided without value
	"invalid argument",       // Invalid flag value type
	"accepts ",               // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",      // Too few arguments
	"requires at most",       // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
