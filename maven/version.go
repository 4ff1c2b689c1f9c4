package maven

import (
	"sort"
	"strings"
)

// CompareVersions defines the total order used for picking latest/release
// versions and for rendering metadata deterministically. It returns a
// negative value when a sorts before b, zero when they are equal and a
// positive value otherwise.
//
// Versions are split on "."; when the final segment contains "-", the
// suffix parts become additional ordering segments. Segments compare
// positionally: a missing segment sorts before a present one, a numeric
// segment sorts after a non-numeric one at the same position, two numeric
// segments compare as integers and anything else compares as strings.
//
// The missing-segment rule means "1.0.0" sorts before "1.0.0-alpha",
// which diverges from semver pre-release precedence. It is the
// established repository order; changing it would reshuffle the
// latest/release pointers of already published artifacts.
func CompareVersions(a, b string) int {
	x := versionSegments(a)
	y := versionSegments(b)

	max := len(x)
	if len(y) > max {
		max = len(y)
	}
	for i := 0; i < max; i++ {
		if i >= len(x) {
			return -1
		}
		if i >= len(y) {
			return 1
		}

		xnum := isNumeric(x[i])
		ynum := isNumeric(y[i])
		switch {
		case xnum && !ynum:
			return 1
		case !xnum && ynum:
			return -1
		case xnum && ynum:
			if c := compareNumeric(x[i], y[i]); c != 0 {
				return c
			}
		default:
			if c := strings.Compare(x[i], y[i]); c != 0 {
				return c
			}
		}
	}
	return 0
}

// SortVersions deduplicates the given versions and returns them in the
// ascending CompareVersions order. The input slice is not modified.
func SortVersions(versions []string) []string {
	seen := make(map[string]bool, len(versions))
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return CompareVersions(out[i], out[j]) < 0
	})
	return out
}

// MaxVersion returns the maximum element under CompareVersions, or the
// empty string for an empty input.
func MaxVersion(versions []string) string {
	max := ""
	for _, v := range versions {
		if max == "" || CompareVersions(v, max) > 0 {
			max = v
		}
	}
	return max
}

// versionSegments splits a version string into its ordering segments.
// A pre-release or build suffix in the last dot-segment contributes its
// own trailing segments.
func versionSegments(v string) []string {
	segments := strings.Split(v, ".")
	last := segments[len(segments)-1]
	if strings.Contains(last, "-") {
		segments = append(segments[:len(segments)-1], strings.Split(last, "-")...)
	}
	return segments
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// compareNumeric compares two digit strings as integers of arbitrary size.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
