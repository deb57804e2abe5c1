package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mp3space/internal/pipeline"
	"mp3space/internal/util/format"
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "estimate [paths...]",
		Short:         "Estimate total output size for the chosen bitrate and padding",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadBatchEnv(cmd, args)
			if err != nil {
				return err
			}
			p, err := requireProber()
			if err != nil {
				return err
			}
			est := &pipeline.Estimator{Prober: p, Logger: env.log}
			res, err := est.Estimate(cmd.Context(), env.inputs, env.cfg)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Files:      %d", res.Files)
			if res.Skipped > 0 {
				fmt.Fprintf(w, " (%d skipped)", res.Skipped)
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Original:   %s\n", format.MB(res.OriginalBytes))
			fmt.Fprintf(w, "Estimated:  %s\n", format.MB(res.EstimatedBytes))
			fmt.Fprintf(w, "Difference: %s\n", format.SignedMB(res.Difference()))
			return nil
		},
	}
	bindRunFlags(cmd.Flags())
	return cmd
}
