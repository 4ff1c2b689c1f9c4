package maven

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

// DescriptorSuffix marks the per-GAV descriptor files that drive metadata
// generation.
const DescriptorSuffix = ".pom"

// ScanResult is the output of classifying an extracted file tree.
type ScanResult struct {
	// Root is the effective repository root: the located root marker
	// directory, or the scanned tree root when the marker was not found.
	Root string

	// Paths are the in-scope files: under Root and not ignored.
	Paths []string

	// Poms are the in-scope descriptor files.
	Poms []string

	// Foreign are files outside Root. They are reported but excluded
	// from every remote operation.
	Foreign []string

	// Ignored are the file names that matched an ignore pattern.
	Ignored []string
}

// ScanPaths walks the extracted tree once, locates the root marker and
// classifies every file as in-scope, ignored or foreign. The marker is
// matched either as a directory bearing its name anywhere in the tree or
// as a path relative to filesRoot. A missing marker degrades the effective
// root to filesRoot with a warning; a missing filesRoot is fatal.
func ScanPaths(filesRoot string, ignorePatterns []string, rootMarker string, logger *log.Logger) (*ScanResult, error) {
	logger = ensureLogger(logger)

	if _, err := os.Stat(filesRoot); err != nil {
		return nil, fmt.Errorf("scan root %s does not exist: %w", filesRoot, err)
	}

	ignores, err := compilePatterns(ignorePatterns)
	if err != nil {
		return nil, err
	}

	relMarker := filepath.Join(filesRoot, rootMarker)

	effectiveRoot := ""
	var files []string
	err = filepath.WalkDir(filesRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if effectiveRoot == "" && rootMarker != "" && path != filesRoot {
				if d.Name() == rootMarker || path == relMarker {
					effectiveRoot = path
				}
			}
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", filesRoot, err)
	}

	if effectiveRoot == "" {
		if rootMarker != "" {
			logger.Warn("root marker not found in tarball, using tree root as prefix",
				"marker", rootMarker, "root", filesRoot)
		}
		effectiveRoot = filesRoot
	}

	result := &ScanResult{Root: effectiveRoot}
	rootPrefix := effectiveRoot + string(filepath.Separator)
	for _, path := range files {
		name := filepath.Base(path)
		if matchesAny(name, ignores) {
			result.Ignored = append(result.Ignored, name)
			continue
		}
		if path != effectiveRoot && !strings.HasPrefix(path, rootPrefix) {
			result.Foreign = append(result.Foreign, path)
			continue
		}
		result.Paths = append(result.Paths, path)
		if strings.HasSuffix(strings.TrimSpace(name), DescriptorSuffix) {
			result.Poms = append(result.Poms, path)
		}
	}

	if len(result.Foreign) > 0 {
		logger.Info("files outside the repository prefix will be skipped",
			"prefix", rootMarker, "count", len(result.Foreign))
	}
	if len(result.Ignored) > 0 {
		logger.Info("files matched ignore patterns",
			"patterns", ignorePatterns, "count", len(result.Ignored))
	}
	logger.Debug("scan finished",
		"root", effectiveRoot, "files", len(result.Paths), "poms", len(result.Poms))

	return result, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchesAny(name string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// ensureLogger returns a discard logger when the caller did not wire one.
func ensureLogger(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return logger
}
