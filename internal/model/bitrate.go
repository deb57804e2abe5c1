package model

import "fmt"

// BitrateMode selects how the target bitrate is determined.
type BitrateMode int

const (
	BitrateOriginal BitrateMode = iota // keep each file's probed bitrate
	BitratePreset                      // one of the fixed Preset values
	BitrateVariable                    // quality-based VBR, no literal bitrate
	BitrateCustom                      // user-supplied kbps string
)

func (m BitrateMode) String() string {
	switch m {
	case BitrateOriginal:
		return "original"
	case BitratePreset:
		return "preset"
	case BitrateVariable:
		return "variable"
	case BitrateCustom:
		return "custom"
	default:
		return fmt.Sprintf("BitrateMode(%d)", int(m))
	}
}

// Preset is a fixed MP3 bitrate.
type Preset int

const (
	Preset32 Preset = iota + 1
	Preset40
	Preset48
	Preset56
	Preset64
	Preset80
	Preset96
	Preset112
	Preset128
	Preset144
	Preset160
	Preset176
	Preset192
	Preset224
	Preset256
	Preset288
	Preset320
)

// Kbps maps a preset to its bitrate in kilobits per second; 0 for an
// unknown preset.
func (p Preset) Kbps() int {
	switch p {
	case Preset32:
		return 32
	case Preset40:
		return 40
	case Preset48:
		return 48
	case Preset56:
		return 56
	case Preset64:
		return 64
	case Preset80:
		return 80
	case Preset96:
		return 96
	case Preset112:
		return 112
	case Preset128:
		return 128
	case Preset144:
		return 144
	case Preset160:
		return 160
	case Preset176:
		return 176
	case Preset192:
		return 192
	case Preset224:
		return 224
	case Preset256:
		return 256
	case Preset288:
		return 288
	case Preset320:
		return 320
	default:
		return 0
	}
}

// Presets lists every preset in ascending order.
func Presets() []Preset {
	out := make([]Preset, 0, int(Preset320))
	for p := Preset32; p <= Preset320; p++ {
		out = append(out, p)
	}
	return out
}

// PresetForKbps returns the preset with the given bitrate.
func PresetForKbps(kbps int) (Preset, bool) {
	for _, p := range Presets() {
		if p.Kbps() == kbps {
			return p, true
		}
	}
	return 0, false
}

// BitrateSelector is the user's choice of target bitrate.
type BitrateSelector struct {
	Mode   BitrateMode
	Preset Preset // BitratePreset only
	Custom string // BitrateCustom only, e.g. "250" or "250k"
}

// Validate rejects selectors that cannot be resolved.
func (s BitrateSelector) Validate() error {
	switch s.Mode {
	case BitrateOriginal, BitrateVariable, BitrateCustom:
		return nil
	case BitratePreset:
		if s.Preset.Kbps() == 0 {
			return fmt.Errorf("unknown bitrate preset %d", int(s.Preset))
		}
		return nil
	default:
		return fmt.Errorf("unknown bitrate mode %d", int(s.Mode))
	}
}

// EncodingSpec is the resolved encoder rate setting for one file.
type EncodingSpec struct {
	Bitrate  string // "<N>k" when !Variable
	Variable bool
	Quality  int // -q:a value when Variable
}

// Args renders the ffmpeg rate arguments.
func (e EncodingSpec) Args() []string {
	if e.Variable {
		return []string{"-q:a", fmt.Sprintf("%d", e.Quality)}
	}
	return []string{"-b:a", e.Bitrate}
}

func (e EncodingSpec) String() string {
	if e.Variable {
		return fmt.Sprintf("VBR q%d", e.Quality)
	}
	return e.Bitrate
}
