package encoder

import (
	"strconv"
	"strings"
	"time"
)

// Tick is one progress report parsed from ffmpeg's -progress output.
type Tick struct {
	Step    string        // compositor step, e.g. "transcode"
	OutTime time.Duration // audio written so far
	Speed   string        // e.g. "41.2x"
	Bytes   int64
	Percent float64 // -1 when the expected length is unknown
	Done    bool    // progress=end
}

// ProgressState accumulates key=value lines until a progress= marker.
type ProgressState struct {
	OutTime   time.Duration
	SpeedStr  string
	TotalSize int64
}

// UpdateFromLine folds one line into the state and returns a Tick when the
// line closes a progress block.
func (ps *ProgressState) UpdateFromLine(line string) (Tick, bool) {
	kv := strings.SplitN(line, "=", 2)
	if len(kv) != 2 {
		return Tick{}, false
	}

	key := strings.TrimSpace(kv[0])
	val := strings.TrimSpace(kv[1])

	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds.
		if v, err := strconv.ParseInt(val, 10, 64); err == nil && v >= 0 {
			ps.OutTime = time.Duration(v) * time.Microsecond
		}
	case "speed":
		ps.SpeedStr = val
	case "total_size":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.TotalSize = v
		}
	case "progress":
		return Tick{
			OutTime: ps.OutTime,
			Speed:   ps.SpeedStr,
			Bytes:   ps.TotalSize,
			Percent: -1,
			Done:    val == "end",
		}, true
	}
	return Tick{}, false
}

// percentOf returns done/expected as a percentage capped at 100, or -1 when
// expected is unknown.
func percentOf(done time.Duration, expected float64) float64 {
	if expected <= 0 {
		return -1
	}
	p := done.Seconds() / expected * 100
	if p > 100 {
		p = 100
	}
	return p
}
