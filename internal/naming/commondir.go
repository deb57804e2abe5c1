package naming

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	errNoPaths     = errors.New("no paths given")
	errMixedPaths  = errors.New("cannot mix absolute and relative paths")
	errMixedVolume = errors.New("paths are on different volumes")
)

// CommonDir returns the deepest directory that is a prefix of every path,
// comparing whole path components. It fails when absolute and relative
// paths are mixed or when paths live on different volumes.
func CommonDir(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", errNoPaths
	}

	first := filepath.Clean(paths[0])
	abs := filepath.IsAbs(first)
	vol := filepath.VolumeName(first)
	common := components(first)

	for _, p := range paths[1:] {
		p = filepath.Clean(p)
		if filepath.IsAbs(p) != abs {
			return "", errMixedPaths
		}
		if !strings.EqualFold(filepath.VolumeName(p), vol) {
			return "", errMixedVolume
		}
		common = commonPrefix(common, components(p))
	}

	joined := strings.Join(common, string(filepath.Separator))
	if abs {
		return vol + string(filepath.Separator) + joined, nil
	}
	if joined == "" {
		return ".", nil
	}
	return joined, nil
}

func components(p string) []string {
	p = strings.TrimPrefix(p, filepath.VolumeName(p))
	p = strings.Trim(p, string(filepath.Separator))
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, string(filepath.Separator))
}

func commonPrefix(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
