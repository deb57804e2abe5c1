package bitrate

import (
	"strings"
	"testing"

	"mp3space/internal/model"
)

func TestResolve(t *testing.T) {
	probed := &model.MediaInfo{BitRate: 192000}
	odd := &model.MediaInfo{BitRate: 192999}
	tiny := &model.MediaInfo{BitRate: 500}

	tests := []struct {
		name string
		sel  model.BitrateSelector
		info *model.MediaInfo
		want string
	}{
		{"preset 128", model.BitrateSelector{Mode: model.BitratePreset, Preset: model.Preset128}, nil, "128k"},
		{"preset 320", model.BitrateSelector{Mode: model.BitratePreset, Preset: model.Preset320}, nil, "320k"},
		{"original 192000", model.BitrateSelector{Mode: model.BitrateOriginal}, probed, "192k"},
		{"original rounds down", model.BitrateSelector{Mode: model.BitrateOriginal}, odd, "192k"},
		{"original probe failed", model.BitrateSelector{Mode: model.BitrateOriginal}, nil, "128k"},
		{"original below 1 kbps", model.BitrateSelector{Mode: model.BitrateOriginal}, tiny, "128k"},
		{"custom 256", model.BitrateSelector{Mode: model.BitrateCustom, Custom: "256"}, nil, "256k"},
		{"custom 256k", model.BitrateSelector{Mode: model.BitrateCustom, Custom: "256k"}, nil, "256k"},
		{"custom padded", model.BitrateSelector{Mode: model.BitrateCustom, Custom: "  200 "}, nil, "200k"},
		{"custom empty", model.BitrateSelector{Mode: model.BitrateCustom, Custom: ""}, nil, "128k"},
		{"custom invalid", model.BitrateSelector{Mode: model.BitrateCustom, Custom: "fast"}, nil, "128k"},
		{"custom negative", model.BitrateSelector{Mode: model.BitrateCustom, Custom: "-64"}, nil, "128k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.sel, tt.info)
			if got.Variable {
				t.Fatalf("Resolve() = VBR, want %s", tt.want)
			}
			if got.Bitrate != tt.want {
				t.Errorf("Resolve() = %q, want %q", got.Bitrate, tt.want)
			}
		})
	}
}

func TestResolveVariableHasNoLiteralBitrate(t *testing.T) {
	got := Resolve(model.BitrateSelector{Mode: model.BitrateVariable}, &model.MediaInfo{BitRate: 320000})
	if !got.Variable {
		t.Fatal("Variable = false")
	}
	if got.Bitrate != "" {
		t.Errorf("Bitrate = %q, want empty", got.Bitrate)
	}
	args := strings.Join(got.Args(), " ")
	if strings.Contains(args, "-b:a") || strings.HasSuffix(args, "k") {
		t.Errorf("VBR args contain a literal bitrate: %q", args)
	}
	if args != "-q:a 2" {
		t.Errorf("VBR args = %q, want %q", args, "-q:a 2")
	}
}

func TestEstimateBps(t *testing.T) {
	info := &model.MediaInfo{BitRate: 160000}
	tests := []struct {
		name string
		sel  model.BitrateSelector
		info *model.MediaInfo
		want int64
	}{
		{"preset", model.BitrateSelector{Mode: model.BitratePreset, Preset: model.Preset320}, info, 320000},
		{"variable nominal", model.BitrateSelector{Mode: model.BitrateVariable}, info, 128000},
		{"original", model.BitrateSelector{Mode: model.BitrateOriginal}, info, 160000},
		{"original unknown", model.BitrateSelector{Mode: model.BitrateOriginal}, nil, 128000},
		{"custom", model.BitrateSelector{Mode: model.BitrateCustom, Custom: "200k"}, info, 200000},
		{"custom invalid", model.BitrateSelector{Mode: model.BitrateCustom, Custom: "?"}, info, 128000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateBps(tt.sel, tt.info); got != tt.want {
				t.Errorf("EstimateBps() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		sel  model.BitrateSelector
		want string
	}{
		{model.BitrateSelector{Mode: model.BitrateOriginal}, "original"},
		{model.BitrateSelector{Mode: model.BitrateVariable}, "vbr"},
		{model.BitrateSelector{Mode: model.BitratePreset, Preset: model.Preset192}, "192kbps"},
		{model.BitrateSelector{Mode: model.BitrateCustom, Custom: "250"}, "250kbps"},
		{model.BitrateSelector{Mode: model.BitrateCustom}, "128kbps"},
	}
	for _, tt := range tests {
		if got := Label(tt.sel); got != tt.want {
			t.Errorf("Label(%+v) = %q, want %q", tt.sel, got, tt.want)
		}
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		value, custom string
		want          model.BitrateSelector
		wantErr       bool
	}{
		{"original", "", model.BitrateSelector{Mode: model.BitrateOriginal}, false},
		{"", "", model.BitrateSelector{Mode: model.BitrateOriginal}, false},
		{"VBR", "", model.BitrateSelector{Mode: model.BitrateVariable}, false},
		{"128", "", model.BitrateSelector{Mode: model.BitratePreset, Preset: model.Preset128}, false},
		{"320k", "", model.BitrateSelector{Mode: model.BitratePreset, Preset: model.Preset320}, false},
		{"250", "", model.BitrateSelector{Mode: model.BitrateCustom, Custom: "250"}, false},
		{"custom", "300", model.BitrateSelector{Mode: model.BitrateCustom, Custom: "300"}, false},
		{"loud", "", model.BitrateSelector{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSelector(tt.value, tt.custom)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSelector(%q) err = %v", tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSelector(%q, %q) = %+v, want %+v", tt.value, tt.custom, got, tt.want)
		}
	}
}

func TestFormatSelectorRoundTrip(t *testing.T) {
	for _, v := range []string{"original", "vbr", "128", "250"} {
		sel, err := ParseSelector(v, "")
		if err != nil {
			t.Fatal(err)
		}
		if got := FormatSelector(sel); got != v {
			t.Errorf("FormatSelector(ParseSelector(%q)) = %q", v, got)
		}
	}
}
