package model

// MediaInfo is what the probe reports about one file. It is derived on
// demand and never cached.
type MediaInfo struct {
	Duration float64           // seconds
	BitRate  int64             // bits per second
	Tags     map[string]string // lower-cased keys
}

// Tag returns the tag value for key, or def when absent or empty.
func (m MediaInfo) Tag(key, def string) string {
	if v := m.Tags[key]; v != "" {
		return v
	}
	return def
}
