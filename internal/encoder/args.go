package encoder

import (
	"strconv"

	"mp3space/internal/model"
)

const (
	audioCodec = "libmp3lame"

	// SilenceSource is the lavfi generator for padding clips.
	SilenceSource = "anullsrc=channel_layout=stereo:sample_rate=44100"

	// silenceQuality is the VBR quality of generated clips.
	silenceQuality = 2

	concatFilter = "[0:a][1:a]concat=n=2:v=0:a=1"
)

// NoMetadata disables -map_metadata in BuildConcatArgs.
const NoMetadata = -1

// BuildTranscodeArgs re-encodes input to output at spec.
func BuildTranscodeArgs(input, output string, spec model.EncodingSpec, preserveMetadata, includeProgress bool) []string {
	args := []string{
		"-i", input,
		"-c:a", audioCodec,
	}
	args = append(args, spec.Args()...)
	if preserveMetadata {
		args = append(args, metadataArgs(0)...)
	}
	return finish(args, output, includeProgress)
}

// BuildSilenceArgs synthesizes seconds of stereo 44.1 kHz silence.
func BuildSilenceArgs(seconds float64, output string) []string {
	args := []string{
		"-f", "lavfi",
		"-i", SilenceSource,
		"-t", FormatSeconds(seconds),
		"-c:a", audioCodec,
		"-q:a", strconv.Itoa(silenceQuality),
	}
	return finish(args, output, false)
}

// BuildConcatArgs joins first then second into output at spec. When
// metadataFrom is an input index, that input's tags are copied.
func BuildConcatArgs(first, second, output string, spec model.EncodingSpec, metadataFrom int, includeProgress bool) []string {
	args := []string{
		"-i", first,
		"-i", second,
		"-filter_complex", concatFilter,
		"-c:a", audioCodec,
	}
	args = append(args, spec.Args()...)
	if metadataFrom >= 0 {
		args = append(args, metadataArgs(metadataFrom)...)
	}
	return finish(args, output, includeProgress)
}

// FormatSeconds renders a duration for -t without trailing zeros.
func FormatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func metadataArgs(input int) []string {
	return []string{"-map_metadata", strconv.Itoa(input), "-id3v2_version", "3"}
}

// finish appends the optional progress flags, then output and -y. The output
// path is always second to last.
func finish(args []string, output string, includeProgress bool) []string {
	if includeProgress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	return append(args, output, "-y")
}
