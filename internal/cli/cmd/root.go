package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"mp3space/internal/config"
	"mp3space/internal/logging"
)

const (
	ExitOK         = 0
	ExitCLIError   = 1
	ExitMissingDep = 2
	ExitFileFailed = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mp3space [paths...]",
		Short: "Batch re-encode MP3 files and pad them with silence",
		Long: "mp3space re-encodes a batch of MP3 files to a chosen bitrate, optionally adds silence " +
			"before and after each track, and writes the results under collision-safe names. " +
			"Directories are searched recursively for .mp3 files. ffmpeg and ffprobe must be installed.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{})
		},
	}

	// Persistent flags available to all subcommands
	pf := root.PersistentFlags()
	pf.BoolP(config.KeyVerbose, "v", false, "Debug logging and full ffmpeg output")
	pf.String(config.KeyFFmpeg, "", "Path to ffmpeg (default: search PATH)")
	pf.String(config.KeyFFprobe, "", "Path to ffprobe (default: search PATH)")
	pf.String(config.KeyLogFile, "", "Also write JSON logs to this file")
	pf.Bool(config.KeyNoUI, false, "Disable TUI; use plain textual output")

	// Also bind run flags on root, so `mp3space <paths>` works without `run`.
	bindRunFlags(root.Flags())

	root.AddCommand(newRunCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newEstimateCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindRunFlags(fs *pflag.FlagSet) {
	fs.StringP(config.KeyOutDir, "o", "", "Output folder (default: next to each input)")
	fs.String(config.KeyPattern, "{filename}_edited", "Output name pattern: {filename} {ext} {bitrate} {date} {time} {counter} {total} {artist} {title}")
	fs.Bool(config.KeyOverwrite, false, "Overwrite existing outputs instead of adding _1, _2, …")
	fs.Bool(config.KeyPreserveStructure, false, "Recreate the inputs' folder layout under the output folder")
	fs.Bool(config.KeyPreserveMetadata, true, "Copy ID3 tags to the output")
	fs.String(config.KeyBitrate, "original", "Target bitrate: original, vbr, custom, or kbps (32…320)")
	fs.String(config.KeyCustomBitrate, "", "kbps for --bitrate custom")
	fs.Float64(config.KeySilenceStart, 0, "Seconds of silence before the audio")
	fs.Int(config.KeySilenceStartMs, 0, "Additional milliseconds of leading silence")
	fs.Float64(config.KeySilenceEnd, 0, "Seconds of silence after the audio")
	fs.Int(config.KeySilenceEndMs, 0, "Additional milliseconds of trailing silence")
}

// setup loads configuration and builds the logger for whichever command runs.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.Init(cmd.Root()); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if err := config.BindCommand(cmd); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	log, err := logging.New(logging.Options{
		Verbose: viper.GetBool(config.KeyVerbose),
		File:    viper.GetString(config.KeyLogFile),
	})
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("open log file: %w", err)}
	}
	cmd.SetContext(logging.WithContext(cmd.Context(), log))
	return nil
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	cmd, err := root.ExecuteContextC(ctx)
	if cmd != nil && cmd.Context() != nil {
		_ = logging.FromContext(cmd.Context()).Sync()
	}
	return err
}
