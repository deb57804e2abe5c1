// Package bitrate turns a bitrate selector into encoder arguments and size
// projections.
package bitrate

import (
	"fmt"
	"strconv"
	"strings"

	"mp3space/internal/model"
)

const (
	// FallbackKbps is used whenever a concrete bitrate cannot be determined.
	FallbackKbps = 128
	// VBRQuality is the LAME -q:a setting used for variable bitrate output.
	VBRQuality = 2
	// NominalVBRBps approximates VBR output for size estimates only.
	NominalVBRBps int64 = 128000
)

// Resolve maps a selector to the encoder rate setting for one file. info is
// the file's probe result, or nil when probing failed or was not needed.
func Resolve(sel model.BitrateSelector, info *model.MediaInfo) model.EncodingSpec {
	switch sel.Mode {
	case model.BitrateVariable:
		return model.EncodingSpec{Variable: true, Quality: VBRQuality}
	case model.BitratePreset:
		if kbps := sel.Preset.Kbps(); kbps > 0 {
			return cbr(kbps)
		}
		return cbr(FallbackKbps)
	case model.BitrateCustom:
		if kbps, ok := ParseKbps(sel.Custom); ok {
			return cbr(kbps)
		}
		return cbr(FallbackKbps)
	case model.BitrateOriginal:
		fallthrough
	default:
		if info != nil {
			if kbps := int(info.BitRate / 1000); kbps > 0 {
				return cbr(kbps)
			}
		}
		return cbr(FallbackKbps)
	}
}

// EstimateBps returns the bitrate to assume when projecting output size.
// Variable mode is approximated by NominalVBRBps.
func EstimateBps(sel model.BitrateSelector, info *model.MediaInfo) int64 {
	switch sel.Mode {
	case model.BitrateVariable:
		return NominalVBRBps
	case model.BitratePreset:
		if kbps := sel.Preset.Kbps(); kbps > 0 {
			return int64(kbps) * 1000
		}
		return FallbackKbps * 1000
	case model.BitrateCustom:
		if kbps, ok := ParseKbps(sel.Custom); ok {
			return int64(kbps) * 1000
		}
		return FallbackKbps * 1000
	default:
		if info != nil && info.BitRate > 0 {
			return info.BitRate
		}
		return FallbackKbps * 1000
	}
}

// Label renders the selector for the {bitrate} filename placeholder:
// "<N>kbps", "original", or "vbr" for variable quality.
func Label(sel model.BitrateSelector) string {
	switch sel.Mode {
	case model.BitrateOriginal:
		return "original"
	case model.BitrateVariable:
		return "vbr"
	default:
		spec := Resolve(sel, nil)
		return strings.TrimSuffix(spec.Bitrate, "k") + "kbps"
	}
}

// ParseKbps parses a user-supplied kbps value such as "256", "256k" or
// " 256K ". It reports false for empty, non-numeric or non-positive input.
func ParseKbps(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "k"), "K")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ParseSelector builds a selector from the CLI's --bitrate value and the
// optional --custom-bitrate value.
//
//	original | keep        → BitrateOriginal
//	vbr | variable         → BitrateVariable
//	custom                 → BitrateCustom with custom
//	128 | 128k             → BitratePreset when 128 is a preset, else BitrateCustom
func ParseSelector(value, custom string) (model.BitrateSelector, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "original", "keep":
		return model.BitrateSelector{Mode: model.BitrateOriginal}, nil
	case "vbr", "variable":
		return model.BitrateSelector{Mode: model.BitrateVariable}, nil
	case "custom":
		return model.BitrateSelector{Mode: model.BitrateCustom, Custom: custom}, nil
	}
	kbps, ok := ParseKbps(v)
	if !ok {
		return model.BitrateSelector{}, fmt.Errorf("invalid bitrate %q (valid: original|vbr|custom|<kbps>)", value)
	}
	if p, ok := model.PresetForKbps(kbps); ok {
		return model.BitrateSelector{Mode: model.BitratePreset, Preset: p}, nil
	}
	return model.BitrateSelector{Mode: model.BitrateCustom, Custom: strconv.Itoa(kbps)}, nil
}

// FormatSelector is the inverse of ParseSelector, used to persist the
// last-used choice.
func FormatSelector(sel model.BitrateSelector) string {
	switch sel.Mode {
	case model.BitrateVariable:
		return "vbr"
	case model.BitratePreset:
		return strconv.Itoa(sel.Preset.Kbps())
	case model.BitrateCustom:
		if kbps, ok := ParseKbps(sel.Custom); ok {
			return strconv.Itoa(kbps)
		}
		return "custom"
	default:
		return "original"
	}
}

func cbr(kbps int) model.EncodingSpec {
	return model.EncodingSpec{Bitrate: strconv.Itoa(kbps) + "k"}
}
