package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"mp3space/internal/config"
	"mp3space/internal/dirs"
	"mp3space/internal/encoder"
	"mp3space/internal/logging"
	"mp3space/internal/model"
	"mp3space/internal/pipeline"
	"mp3space/internal/probe"
	"mp3space/internal/progress"
	"mp3space/internal/ui"
	"mp3space/internal/util/deps"
	"mp3space/internal/util/format"
)

type runMode struct {
	ForceTUI bool
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run [paths...]",
		Short:         "Re-encode and pad a batch of MP3 files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{})
		},
	}
	bindRunFlags(cmd.Flags())
	return cmd
}

// batchEnv is what every batch-shaped command needs before doing work.
type batchEnv struct {
	inputs    []string
	cfg       model.ProcessingConfig
	prefsPath string
	log       *zap.Logger
}

func loadBatchEnv(cmd *cobra.Command, args []string) (batchEnv, error) {
	log := logging.FromContext(cmd.Context())

	inputs, err := collectInputs(args)
	if err != nil {
		return batchEnv{}, &ExitError{Code: ExitCLIError, Err: err}
	}

	var prefs config.Prefs
	prefsPath, err := config.DefaultPrefsPath()
	if err == nil {
		if prefs, err = config.LoadPrefs(prefsPath); err != nil {
			log.Warn("ignoring unreadable prefs", zap.String("path", prefsPath), zap.Error(err))
		}
	} else {
		prefsPath = ""
	}

	cfg, err := config.Processing(viper.GetViper(), prefs)
	if err != nil {
		return batchEnv{}, &ExitError{Code: ExitCLIError, Err: err}
	}
	return batchEnv{inputs: inputs, cfg: cfg, prefsPath: prefsPath, log: log}, nil
}

func findTools() (ffmpegPath, ffprobePath string, err error) {
	if ffmpegPath, err = deps.FindFFmpeg(viper.GetString(config.KeyFFmpeg)); err != nil {
		return "", "", &ExitError{Code: ExitMissingDep, Err: err}
	}
	if ffprobePath, err = deps.FindFFprobe(viper.GetString(config.KeyFFprobe)); err != nil {
		return "", "", &ExitError{Code: ExitMissingDep, Err: err}
	}
	return ffmpegPath, ffprobePath, nil
}

func runExecute(cmd *cobra.Command, args []string, mode runMode) error {
	env, err := loadBatchEnv(cmd, args)
	if err != nil {
		return err
	}
	ffmpegPath, ffprobePath, err := findTools()
	if err != nil {
		return err
	}

	useTUI := mode.ForceTUI || (!viper.GetBool(config.KeyNoUI) && isTerminal())

	scratch, err := dirs.ScratchDir()
	if err != nil {
		env.log.Warn("using system temp for scratch files", zap.Error(err))
		scratch = ""
	}
	runner := pipeline.NewRunner(
		pipeline.WithProber(probe.New(ffprobePath, nil)),
		pipeline.WithCompositor(&encoder.Compositor{
			FFmpegPath: ffmpegPath,
			TempDir:    scratch,
			Verbose:    viper.GetBool(config.KeyVerbose) && !useTUI,
			Logger:     env.log,
		}),
		pipeline.WithLogger(env.log),
		pipeline.WithEncodingProgress(useTUI),
	)

	var final progress.Event
	if useTUI {
		final, err = ui.Run(cmd.Context(), runner, env.inputs, env.cfg)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
	} else {
		rep := newTextReporter(cmd.OutOrStdout())
		_, err := runner.Run(cmd.Context(), env.inputs, env.cfg, rep)
		if err != nil && rep.final.Kind == "" {
			// Rejected before starting.
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		final = rep.final
	}

	if env.prefsPath != "" {
		if err := config.Remember(env.prefsPath, env.cfg.Bitrate); err != nil {
			env.log.Warn("could not save prefs", zap.String("path", env.prefsPath), zap.Error(err))
		}
	}
	return outcomeError(final)
}

// outcomeError maps a run's terminal event to the process exit status.
func outcomeError(final progress.Event) error {
	switch final.Kind {
	case progress.KindSucceeded:
		if final.Failed == 0 {
			return nil
		}
		return &ExitError{Code: ExitFileFailed, Err: fmt.Errorf("%d of %d files failed", final.Failed, final.Total)}
	case progress.KindFailed:
		return &ExitError{Code: ExitFileFailed, Err: fmt.Errorf("all %d files failed", final.Total)}
	case progress.KindError:
		err := final.Err
		if err == nil {
			err = errors.New(final.Message)
		}
		return &ExitError{Code: ExitCLIError, Err: err}
	default:
		return &ExitError{Code: ExitCLIError, Err: errors.New("batch ended without a result")}
	}
}

// textReporter prints one line per finished file and remembers the
// terminal event.
type textReporter struct {
	w     io.Writer
	final progress.Event
}

func newTextReporter(w io.Writer) *textReporter {
	return &textReporter{w: w}
}

func (t *textReporter) Report(e progress.Event) {
	switch {
	case e.Kind == progress.KindFile && e.Err == nil:
		size := ""
		if fi, err := os.Stat(e.Output); err == nil {
			size = " (" + format.MB(fi.Size()) + ")"
		}
		fmt.Fprintf(t.w, "[%d/%d] Saved: %s%s\n", e.Index+1, e.Total, e.Output, size)
	case e.Kind == progress.KindFile:
		fmt.Fprintf(t.w, "[%d/%d] Failed: %s: %v\n", e.Index+1, e.Total, filepath.Base(e.Input), e.Err)
	case e.Kind.Terminal():
		t.final = e
		fmt.Fprintln(t.w, e.Message)
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
