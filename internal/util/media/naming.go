// Package media renders output filenames from a name pattern.
package media

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// OutputExt is the extension every output file carries.
const OutputExt = ".mp3"

// Placeholders recognized in a name pattern, in substitution order.
const (
	PlaceholderFilename = "{filename}"
	PlaceholderExt      = "{ext}"
	PlaceholderBitrate  = "{bitrate}"
	PlaceholderDate     = "{date}"
	PlaceholderTime     = "{time}"
	PlaceholderCounter  = "{counter}"
	PlaceholderTotal    = "{total}"
	PlaceholderArtist   = "{artist}"
	PlaceholderTitle    = "{title}"
)

// NameFields supplies the values substituted into a pattern.
type NameFields struct {
	Input   string    // input path; basename and extension are derived from it
	Bitrate string    // already-rendered bitrate label, e.g. "192kbps" or "original"
	Now     time.Time // source of {date} and {time}
	Index   int       // zero-based position in the batch
	Total   int       // batch size
	Artist  string
	Title   string
}

// UsesTags reports whether pattern references {artist} or {title}, which
// require probing the input.
func UsesTags(pattern string) bool {
	return strings.Contains(pattern, PlaceholderArtist) || strings.Contains(pattern, PlaceholderTitle)
}

// RenderFilename substitutes placeholders in pattern, sanitizes the result
// and appends OutputExt when missing. Substitution is literal and ordered,
// so a value containing a later placeholder is expanded too.
func RenderFilename(pattern string, f NameFields) string {
	base := filepath.Base(f.Input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	replacements := [][2]string{
		{PlaceholderFilename, stem},
		{PlaceholderExt, ext},
		{PlaceholderBitrate, f.Bitrate},
		{PlaceholderDate, f.Now.Format("2006-01-02")},
		{PlaceholderTime, f.Now.Format("15-04-05")},
		{PlaceholderCounter, fmt.Sprintf("%02d", f.Index+1)},
		{PlaceholderTotal, fmt.Sprintf("%02d", f.Total)},
		{PlaceholderArtist, Sanitize(f.Artist)},
		{PlaceholderTitle, Sanitize(f.Title)},
	}

	name := pattern
	for _, r := range replacements {
		name = strings.ReplaceAll(name, r[0], r[1])
	}

	name = Sanitize(name)
	if !strings.HasSuffix(name, OutputExt) {
		name += OutputExt
	}
	return name
}

// Sanitize replaces every rune outside [A-Za-z0-9 ._-] with an underscore.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if allowed(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '.', r == '_', r == '-':
		return true
	}
	return false
}
