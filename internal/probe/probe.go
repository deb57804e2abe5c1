// Package probe reads duration, bitrate, and tags from audio files through
// ffprobe's JSON output.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mp3space/internal/failure"
	"mp3space/internal/model"
	"mp3space/internal/util"
)

const (
	// DefaultBitRate is assumed when ffprobe reports no usable bitrate.
	DefaultBitRate int64 = 128000
	// UnknownTag fills artist and title when a file has none.
	UnknownTag = "Unknown"
)

// Prober invokes ffprobe. The zero value is usable and runs "ffprobe" from PATH.
type Prober struct {
	FFprobePath string
	Runner      util.CmdRunner
}

// New returns a Prober for the given binary and runner. A nil runner uses
// the process-backed default.
func New(ffprobePath string, runner util.CmdRunner) *Prober {
	return &Prober{FFprobePath: ffprobePath, Runner: runner}
}

// Probe inspects path. Any failure is a failure.CodeProbe error; callers
// fall back to Defaults rather than aborting.
func (p *Prober) Probe(ctx context.Context, path string) (model.MediaInfo, error) {
	bin := p.FFprobePath
	if bin == "" {
		bin = "ffprobe"
	}
	runner := p.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}

	res, err := runner.Run(ctx, util.CmdSpec{
		Path: bin,
		Args: []string{
			"-v", "quiet",
			"-print_format", "json",
			"-show_format", "-show_streams",
			path,
		},
		CaptureStdout: true,
	})
	if err != nil {
		return model.MediaInfo{}, failure.Probe(path, &failure.ToolError{
			Tool:     "ffprobe",
			ExitCode: res.Code,
			Stderr:   string(res.Stderr),
			Cause:    err,
		})
	}

	info, err := ParseJSON(res.Stdout)
	if err != nil {
		return model.MediaInfo{}, failure.Probe(path, err)
	}
	return info, nil
}

// Defaults is the MediaInfo used when probing fails.
func Defaults() model.MediaInfo {
	return model.MediaInfo{
		BitRate: DefaultBitRate,
		Tags:    map[string]string{"artist": UnknownTag, "title": UnknownTag},
	}
}

// ParseJSON converts raw ffprobe JSON output into a MediaInfo.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (model.MediaInfo, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return model.MediaInfo{}, errors.New("empty ffprobe output")
	}
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.MediaInfo{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildInfo(&raw), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   flexString        `json:"duration"`
	Size       flexString        `json:"size"`
	BitRate    flexString        `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeStream struct {
	Index     int               `json:"index"`
	CodecName string            `json:"codec_name"`
	CodecType string            `json:"codec_type"`
	BitRate   flexString        `json:"bit_rate"`
	Duration  flexString        `json:"duration"`
	Tags      map[string]string `json:"tags"`
}

// flexString accepts ffprobe numbers whether they arrive quoted or bare.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}

func buildInfo(raw *ffprobeOutput) model.MediaInfo {
	audio := firstAudio(raw.Streams)

	duration, ok := parseFloat(string(raw.Format.Duration))
	if !ok && audio != nil {
		duration, ok = parseFloat(string(audio.Duration))
	}
	if !ok || duration < 0 {
		duration = 0
	}

	bitRate, ok := parseInt64(string(raw.Format.BitRate))
	if !ok && audio != nil {
		bitRate, ok = parseInt64(string(audio.BitRate))
	}
	if !ok || bitRate <= 0 {
		bitRate = DefaultBitRate
	}

	tags := make(map[string]string)
	if audio != nil {
		mergeTags(tags, audio.Tags)
	}
	mergeTags(tags, raw.Format.Tags)
	for _, k := range []string{"artist", "title"} {
		if strings.TrimSpace(tags[k]) == "" {
			tags[k] = UnknownTag
		}
	}

	return model.MediaInfo{
		Duration: duration,
		BitRate:  bitRate,
		Tags:     tags,
	}
}

func firstAudio(streams []ffprobeStream) *ffprobeStream {
	for i := range streams {
		if streams[i].CodecType == "audio" {
			return &streams[i]
		}
	}
	return nil
}

// mergeTags copies src into dst with lower-cased keys; ID3 frames surface
// as "ARTIST" in some containers and "artist" in others.
func mergeTags(dst, src map[string]string) {
	for k, v := range src {
		if v == "" {
			continue
		}
		dst[strings.ToLower(k)] = v
	}
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some muxers report fractional bit rates.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
