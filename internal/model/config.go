package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultNamePattern mirrors the naming users get when they pick nothing.
const DefaultNamePattern = "{filename}_edited"

// ProcessingConfig holds the per-batch settings. It is a read-only snapshot
// for the duration of a run.
type ProcessingConfig struct {
	OutputFolder            string // Optional override; empty means next to each input.
	NamePattern             string // Filename template, see naming placeholders.
	OverwriteExisting       bool
	PreserveFolderStructure bool
	PreserveMetadata        bool
	Bitrate                 BitrateSelector
	SilenceStart            time.Duration
	SilenceEnd              time.Duration
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() ProcessingConfig {
	return ProcessingConfig{
		NamePattern:      DefaultNamePattern,
		PreserveMetadata: true,
		Bitrate:          BitrateSelector{Mode: BitrateOriginal},
	}
}

// Validate reports configuration errors that would make a run meaningless.
func (c ProcessingConfig) Validate() error {
	if c.SilenceStart < 0 {
		return fmt.Errorf("silence start must not be negative: %v", c.SilenceStart)
	}
	if c.SilenceEnd < 0 {
		return fmt.Errorf("silence end must not be negative: %v", c.SilenceEnd)
	}
	if err := c.Bitrate.Validate(); err != nil {
		return err
	}
	return nil
}

// Pattern returns the name pattern, falling back to DefaultNamePattern.
func (c ProcessingConfig) Pattern() string {
	if c.NamePattern == "" {
		return DefaultNamePattern
	}
	return c.NamePattern
}

// AddedSeconds is the total silence padding in seconds.
func (c ProcessingConfig) AddedSeconds() float64 {
	return c.SilenceStart.Seconds() + c.SilenceEnd.Seconds()
}

// SilenceFrom combines the seconds and milliseconds fields of the
// configuration surface into a duration.
func SilenceFrom(seconds float64, millis int) (time.Duration, error) {
	if seconds < 0 || millis < 0 {
		return 0, errors.New("silence must not be negative")
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, errors.New("silence must be a finite number")
	}
	d := time.Duration(seconds * float64(time.Second))
	return d + time.Duration(millis)*time.Millisecond, nil
}
