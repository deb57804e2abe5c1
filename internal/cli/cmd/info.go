package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mp3space/internal/pipeline"
	"mp3space/internal/probe"
	"mp3space/internal/util/format"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "info [paths...]",
		Short:         "Show duration, bitrate, size and tags of MP3 files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := collectInputs(args)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			p, err := requireProber()
			if err != nil {
				return err
			}
			est := &pipeline.Estimator{Prober: p}
			files, err := est.Inspect(cmd.Context(), inputs)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			w := cmd.OutOrStdout()
			for _, f := range files {
				name := filepath.Base(f.Path)
				if f.Err != nil {
					fmt.Fprintf(w, "%-32s  error: %v\n", truncate(name, 32), f.Err)
					continue
				}
				fmt.Fprintf(w, "%-32s  %6s  %10s  %10s  %s - %s\n",
					truncate(name, 32),
					format.Duration(f.Info.Duration),
					format.Kbps(f.Info.BitRate),
					format.MB(f.Size),
					f.Info.Tag("artist", probe.UnknownTag),
					f.Info.Tag("title", probe.UnknownTag),
				)
			}
			return nil
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
