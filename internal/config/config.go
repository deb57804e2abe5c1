// Package config layers flags, MP3SPACE_* environment variables and the
// optional config file through Viper, and persists the last used bitrate.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mp3space/internal/dirs"
	"mp3space/internal/model"
	"mp3space/internal/util/bitrate"
)

// EnvPrefix namespaces environment overrides, e.g. MP3SPACE_OUT_DIR.
const EnvPrefix = "MP3SPACE"

// Keys shared by flags, env and the config file.
const (
	KeyOutDir            = "out-dir"
	KeyPattern           = "pattern"
	KeyOverwrite         = "overwrite"
	KeyPreserveStructure = "preserve-structure"
	KeyPreserveMetadata  = "preserve-metadata"
	KeyBitrate           = "bitrate"
	KeyCustomBitrate     = "custom-bitrate"
	KeySilenceStart      = "silence-start"
	KeySilenceStartMs    = "silence-start-ms"
	KeySilenceEnd        = "silence-end"
	KeySilenceEndMs      = "silence-end-ms"

	KeyVerbose = "verbose"
	KeyFFmpeg  = "ffmpeg"
	KeyFFprobe = "ffprobe"
	KeyLogFile = "log-file"
	KeyNoUI    = "no-ui"
)

// Init wires Viper with config paths, env, and the root's persistent flags.
// It is non-fatal: a missing config file is not an error.
func Init(root *cobra.Command) error {
	// Ensure base directories exist
	_ = dirs.EnsureAll()

	if cfgDir, err := dirs.ConfigDir(); err == nil {
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(root.PersistentFlags()); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// BindCommand binds cmd's local flags so they take precedence over env and
// config file values. Call it from the command that is actually running.
func BindCommand(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// Processing assembles the batch configuration from v. The bitrate falls
// back to prefs when no flag, env or config value sets it.
func Processing(v *viper.Viper, prefs Prefs) (model.ProcessingConfig, error) {
	cfg := model.DefaultConfig()
	cfg.OutputFolder = strings.TrimSpace(v.GetString(KeyOutDir))
	if p := v.GetString(KeyPattern); p != "" {
		cfg.NamePattern = p
	}
	cfg.OverwriteExisting = v.GetBool(KeyOverwrite)
	cfg.PreserveFolderStructure = v.GetBool(KeyPreserveStructure)
	if v.IsSet(KeyPreserveMetadata) {
		cfg.PreserveMetadata = v.GetBool(KeyPreserveMetadata)
	}

	rate := v.GetString(KeyBitrate)
	if !v.IsSet(KeyBitrate) && prefs.LastBitrate != "" {
		rate = prefs.LastBitrate
	}
	sel, err := bitrate.ParseSelector(rate, v.GetString(KeyCustomBitrate))
	if err != nil {
		return cfg, err
	}
	cfg.Bitrate = sel

	if cfg.SilenceStart, err = model.SilenceFrom(v.GetFloat64(KeySilenceStart), v.GetInt(KeySilenceStartMs)); err != nil {
		return cfg, fmt.Errorf("--%s: %w", KeySilenceStart, err)
	}
	if cfg.SilenceEnd, err = model.SilenceFrom(v.GetFloat64(KeySilenceEnd), v.GetInt(KeySilenceEndMs)); err != nil {
		return cfg, fmt.Errorf("--%s: %w", KeySilenceEnd, err)
	}
	return cfg, cfg.Validate()
}
