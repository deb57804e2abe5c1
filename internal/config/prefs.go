package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/viper"

	"mp3space/internal/dirs"
	"mp3space/internal/model"
	"mp3space/internal/util/bitrate"
)

const keyLastBitrate = "last_bitrate"

// Prefs is the small state remembered between runs.
type Prefs struct {
	LastBitrate string // bitrate.FormatSelector form
}

// DefaultPrefsPath is prefs.json under the state dir.
func DefaultPrefsPath() (string, error) {
	return dirs.PrefsFile()
}

// LoadPrefs reads path. A missing file yields zero Prefs.
func LoadPrefs(path string) (Prefs, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Prefs{}, nil
		}
		return Prefs{}, err
	}
	return Prefs{LastBitrate: v.GetString(keyLastBitrate)}, nil
}

// SavePrefs writes p to path, creating its directory.
func SavePrefs(path string, p Prefs) error {
	if err := dirs.Ensure(filepath.Dir(path)); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType("json")
	v.Set(keyLastBitrate, p.LastBitrate)
	return v.WriteConfigAs(path)
}

// Remember records the selector a run used.
func Remember(path string, sel model.BitrateSelector) error {
	return SavePrefs(path, Prefs{LastBitrate: bitrate.FormatSelector(sel)})
}
