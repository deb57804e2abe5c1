package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"mp3space/internal/config"
	"mp3space/internal/model"
	"mp3space/internal/naming"
	"mp3space/internal/pipeline"
	"mp3space/internal/probe"
	"mp3space/internal/util/bitrate"
	"mp3space/internal/util/deps"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plan [paths...]",
		Short:         "Show output paths and encoder settings without writing anything",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadBatchEnv(cmd, args)
			if err != nil {
				return err
			}
			opts := []naming.Option{naming.WithoutMkdir(), naming.WithLogger(env.log)}
			var prober pipeline.Prober
			if p := optionalProber(env.log); p != nil {
				prober = p
				opts = append(opts, naming.WithTagReader(p))
			}
			items := pipeline.PlanBatch(cmd.Context(), naming.New(opts...), prober, env.inputs, env.cfg)
			printPlan(cmd.OutOrStdout(), env.cfg, items)
			return nil
		},
	}
	bindRunFlags(cmd.Flags())
	return cmd
}

// optionalProber returns nil when ffprobe is missing; previews then fall back
// to defaults instead of failing.
func optionalProber(log *zap.Logger) *probe.Prober {
	path, err := deps.FindFFprobe(viper.GetString(config.KeyFFprobe))
	if err != nil {
		log.Warn("ffprobe not found; bitrates and tags use defaults", zap.Error(err))
		return nil
	}
	return probe.New(path, nil)
}

func requireProber() (*probe.Prober, error) {
	path, err := deps.FindFFprobe(viper.GetString(config.KeyFFprobe))
	if err != nil {
		return nil, &ExitError{Code: ExitMissingDep, Err: err}
	}
	return probe.New(path, nil), nil
}

func printPlan(w io.Writer, cfg model.ProcessingConfig, items []pipeline.PlannedItem) {
	out := cfg.OutputFolder
	if out == "" {
		out = "(next to each input)"
	}
	fmt.Fprintln(w, "Dry-run plan:")
	fmt.Fprintf(w, "- Files:          %d\n", len(items))
	fmt.Fprintf(w, "- Output folder:  %s\n", out)
	fmt.Fprintf(w, "- Pattern:        %s\n", cfg.Pattern())
	fmt.Fprintf(w, "- Bitrate:        %s\n", bitrate.Label(cfg.Bitrate))
	fmt.Fprintf(w, "- Silence:        start %v, end %v\n", cfg.SilenceStart, cfg.SilenceEnd)
	fmt.Fprintf(w, "- Metadata:       %s\n", onOff(cfg.PreserveMetadata, "copied", "stripped"))
	fmt.Fprintf(w, "- Existing files: %s\n", onOff(cfg.OverwriteExisting, "overwritten", "kept (numbered names)"))
	if cfg.PreserveFolderStructure {
		fmt.Fprintln(w, "- Structure:      preserved")
	}
	fmt.Fprintln(w)
	for _, it := range items {
		fmt.Fprintf(w, "%d. %s\n", it.Index+1, it.Input)
		if it.Missing {
			fmt.Fprintln(w, "   ✗ missing, will be skipped")
			continue
		}
		fmt.Fprintf(w, "   → %s (%s)\n", it.Output, it.Spec)
	}
}

func onOff(b bool, on, off string) string {
	if b {
		return on
	}
	return off
}
