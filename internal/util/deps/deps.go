// Package deps locates the external tools mp3space drives.
package deps

import (
	"fmt"
	"os"
	"os/exec"
)

// FindFFmpeg returns the ffmpeg binary. If customPath is non-empty, it tries
// that path or looks it up in PATH.
func FindFFmpeg(customPath string) (string, error) {
	return find("ffmpeg", customPath)
}

// FindFFprobe returns the ffprobe binary, resolved like FindFFmpeg.
func FindFFprobe(customPath string) (string, error) {
	return find("ffprobe", customPath)
}

func find(tool, customPath string) (string, error) {
	if customPath != "" {
		if fi, err := os.Stat(customPath); err == nil && !fi.IsDir() {
			return customPath, nil
		}
		if p, err := exec.LookPath(customPath); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("could not find %s at %q", tool, customPath)
	}
	if p, err := exec.LookPath(tool); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find %s in PATH. Please install ffmpeg", tool)
}
