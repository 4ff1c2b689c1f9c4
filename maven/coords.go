package maven

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidCoordinatePath reports a path with too few segments left after
// root stripping to carry the requested coordinate.
var ErrInvalidCoordinatePath = errors.New("maven: invalid coordinate path")

// ParseGA parses the groupId and artifactId from a standard path in a
// maven repository layout, e.g.
// "org/apache/maven/plugin/maven-plugin-plugin" yields
// ("org.apache.maven.plugin", "maven-plugin-plugin"). root is a path
// prefix that is not part of the coordinate.
func ParseGA(fullPath, root string) (group, artifact string, err error) {
	segments := coordinateSegments(fullPath, root)
	if len(segments) < 1 || segments[0] == "" {
		return "", "", fmt.Errorf("%w: %q with root %q", ErrInvalidCoordinatePath, fullPath, root)
	}
	artifact = segments[len(segments)-1]
	group = strings.Join(segments[:len(segments)-1], ".")
	return group, artifact, nil
}

// ParseGAV parses groupId, artifactId and version from a standard
// artifact path in a maven repository layout, e.g.
// "org/apache/maven/plugin/maven-plugin-plugin/1.0.0/maven-plugin-plugin-1.0.0.pom"
// yields ("org.apache.maven.plugin", "maven-plugin-plugin", "1.0.0").
// The final segment is the file name and carries no coordinate.
func ParseGAV(fullPath, root string) (group, artifact, version string, err error) {
	segments := coordinateSegments(fullPath, root)
	if len(segments) < 3 {
		return "", "", "", fmt.Errorf("%w: %q with root %q", ErrInvalidCoordinatePath, fullPath, root)
	}
	version = segments[len(segments)-2]
	artifact = segments[len(segments)-3]
	group = strings.Join(segments[:len(segments)-3], ".")
	return group, artifact, version, nil
}

// ParseGAVs parses a batch of descriptor paths into a
// map[groupId]map[artifactId][]version. Duplicate versions are preserved;
// deduplication happens when versions are ordered for metadata.
func ParseGAVs(paths []string, root string) (map[string]map[string][]string, error) {
	gavs := make(map[string]map[string][]string)
	for _, p := range paths {
		g, a, v, err := ParseGAV(p, root)
		if err != nil {
			return nil, err
		}
		avs, ok := gavs[g]
		if !ok {
			avs = make(map[string][]string)
			gavs[g] = avs
		}
		avs[a] = append(avs[a], v)
	}
	return gavs, nil
}

// GAPath returns the repository-relative directory of a GA,
// e.g. ("org.foo", "bar") -> "org/foo/bar".
func GAPath(group, artifact string) string {
	return path.Join(strings.ReplaceAll(group, ".", "/"), artifact)
}

// coordinateSegments strips the root prefix and a trailing separator from
// a path and splits what remains. Comparison is segment based: the root is
// normalized to end with a separator before stripping so "a/b" never
// matches the sibling prefix "a/bc".
func coordinateSegments(fullPath, root string) []string {
	p := strings.ReplaceAll(fullPath, "\\", "/")
	if root != "" {
		slashRoot := strings.ReplaceAll(root, "\\", "/")
		if !strings.HasSuffix(slashRoot, "/") {
			slashRoot += "/"
		}
		p = strings.TrimPrefix(p, slashRoot)
	}
	p = strings.TrimSuffix(p, "/")
	return strings.Split(p, "/")
}
