// Package dirs resolves the per-user directories mp3space keeps its config,
// preferences, logs and scratch files in.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "mp3space"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// ConfigDir holds config.{yaml,json,toml}.
// Linux: $XDG_CONFIG_HOME/mp3space or ~/.config/mp3space.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config", os.UserConfigDir)
}

// CacheDir holds disposable data such as compositor scratch directories.
// Linux: $XDG_CACHE_HOME/mp3space or ~/.cache/mp3space.
func CacheDir() (string, error) {
	if runtime.GOOS == "darwin" {
		return homeJoin("Library", "Caches", appName)
	}
	return resolve("XDG_CACHE_HOME", ".cache", os.UserCacheDir)
}

// StateDir holds preferences and logs.
// Linux: $XDG_STATE_HOME/mp3space or ~/.local/state/mp3space.
// Elsewhere: <config dir>/state.
func StateDir() (string, error) {
	if runtime.GOOS == "linux" {
		return resolve("XDG_STATE_HOME", filepath.Join(".local", "state"), nil)
	}
	if la := os.Getenv("LOCALAPPDATA"); la != "" && runtime.GOOS == "windows" {
		return filepath.Join(la, appName, "state"), nil
	}
	cfg, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "state"), nil
}

// ScratchDir is the parent of per-file compositor temp directories.
func ScratchDir() (string, error) {
	c, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, "scratch"), nil
}

// PrefsFile is where the last used settings persist.
func PrefsFile() (string, error) {
	s, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(s, "prefs.json"), nil
}

// LogFile is the default --log-file target.
func LogFile() (string, error) {
	s, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(s, appName+".log"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll ensures config, cache, and state dirs exist.
func EnsureAll() error {
	for _, fn := range []func() (string, error){ConfigDir, CacheDir, StateDir} {
		p, err := fn()
		if err != nil {
			continue
		}
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}

// resolve applies the XDG rule on Linux: $env/mp3space, else ~/<home>/mp3space.
// Other platforms use fallback when given.
func resolve(env, home string, fallback func() (string, error)) (string, error) {
	if runtime.GOOS != "linux" && fallback != nil {
		base, err := fallback()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, appName), nil
	}
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, appName), nil
	}
	return homeJoin(home, appName)
}

func homeJoin(parts ...string) (string, error) {
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{h}, parts...)...), nil
}
