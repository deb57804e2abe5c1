package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mp3space/internal/config"
	"mp3space/internal/dirs"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (ffmpeg, ffprobe) and show state paths",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ff, fp, err := findTools()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "FFmpeg:   %s\n", ff)
			fmt.Fprintf(w, "FFprobe:  %s\n", fp)
			if f := viper.ConfigFileUsed(); f != "" {
				fmt.Fprintf(w, "Config:   %s\n", f)
			}
			if p, err := config.DefaultPrefsPath(); err == nil {
				fmt.Fprintf(w, "Prefs:    %s\n", p)
			}
			if s, err := dirs.ScratchDir(); err == nil {
				fmt.Fprintf(w, "Scratch:  %s\n", s)
			}
			return nil
		},
	}
}
