package model

import (
	"testing"
	"time"
)

func TestSilenceFrom(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		millis  int
		want    time.Duration
		wantErr bool
	}{
		{"zero", 0, 0, 0, false},
		{"seconds and millis", 2, 500, 2500 * time.Millisecond, false},
		{"fractional seconds", 1.25, 0, 1250 * time.Millisecond, false},
		{"negative seconds", -1, 0, 0, true},
		{"negative millis", 0, -5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SilenceFrom(tt.seconds, tt.millis)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SilenceFrom() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.SilenceEnd = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("negative silence accepted")
	}
	cfg = DefaultConfig()
	cfg.Bitrate = BitrateSelector{Mode: BitratePreset, Preset: Preset(99)}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown preset accepted")
	}
}

func TestPresets(t *testing.T) {
	ps := Presets()
	if len(ps) != 17 {
		t.Fatalf("len(Presets()) = %d, want 17", len(ps))
	}
	if ps[0].Kbps() != 32 || ps[len(ps)-1].Kbps() != 320 {
		t.Errorf("preset range = %d..%d", ps[0].Kbps(), ps[len(ps)-1].Kbps())
	}
	for i := 1; i < len(ps); i++ {
		if ps[i].Kbps() <= ps[i-1].Kbps() {
			t.Errorf("presets not ascending at %d", i)
		}
	}
	if p, ok := PresetForKbps(192); !ok || p != Preset192 {
		t.Errorf("PresetForKbps(192) = %v, %v", p, ok)
	}
	if _, ok := PresetForKbps(100); ok {
		t.Error("PresetForKbps(100) found a preset")
	}
}

func TestEncodingSpecArgs(t *testing.T) {
	cbr := EncodingSpec{Bitrate: "192k"}
	if got := cbr.Args(); len(got) != 2 || got[0] != "-b:a" || got[1] != "192k" {
		t.Errorf("CBR args = %v", got)
	}
	vbr := EncodingSpec{Variable: true, Quality: 2}
	if got := vbr.Args(); len(got) != 2 || got[0] != "-q:a" || got[1] != "2" {
		t.Errorf("VBR args = %v", got)
	}
}
