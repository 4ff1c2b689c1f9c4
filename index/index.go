// Package index maintains the per-directory index.html pages that make
// the repository browsable. Pages are regenerated from fresh remote
// listings for every directory a run touched, walking up to the root so
// parent listings stay consistent with their children.
package index

import (
	"context"
	"html/template"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// PageFileName is the name of the generated listing page in every
// directory.
const PageFileName = "index.html"

// Lister provides the remote directory listings pages are rendered from.
type Lister interface {
	ListFiles(ctx context.Context, bucket, prefix, suffix string) ([]string, error)
}

var pageTemplate = template.Must(template.New(PageFileName).Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Index of {{ .Path }}</title>
</head>
<body>
    <h1>Index of {{ .Path }}</h1>
    <ul>
{{- range .Items }}
        <li><a href="{{ . }}" title="{{ . }}">{{ . }}</a></li>
{{- end }}
    </ul>
</body>
</html>
`))

type page struct {
	Path  string
	Items []string
}

// CreateIndexes regenerates the index pages for every directory touched
// by the changed keys and all of their ancestors up to the repository
// root. Pages are written under root mirroring the remote layout, and
// the local paths are returned for upload. Directories whose listing
// fails are logged and skipped.
func CreateIndexes(ctx context.Context, lister Lister, bucket, root string, changed []string, logger *log.Logger) []string {
	logger = ensureLogger(logger)

	var generated []string
	for _, dir := range affectedDirs(changed) {
		p, err := generatePage(ctx, lister, bucket, root, dir)
		if err != nil {
			logger.Error("failed to generate index page, skipping", "dir", dir, "err", err)
			continue
		}
		generated = append(generated, p)
	}
	return generated
}

// DeleteIndexes determines the index maintenance needed after a
// retraction. It returns the remote keys of pages whose directory is now
// empty and must be deleted, and the freshly generated local pages for
// directories that still hold content and need their listing refreshed.
func DeleteIndexes(ctx context.Context, lister Lister, bucket, root string, deleted []string, logger *log.Logger) (toDelete, toUpdate []string) {
	logger = ensureLogger(logger)

	for _, dir := range affectedDirs(deleted) {
		keys, err := listEntries(ctx, lister, bucket, dir)
		if err != nil {
			logger.Error("failed to list directory for index refresh, skipping", "dir", dir, "err", err)
			continue
		}
		if len(keys) == 0 {
			toDelete = append(toDelete, path.Join(dir, PageFileName))
			continue
		}
		p, err := renderPage(root, dir, keys)
		if err != nil {
			logger.Error("failed to render index page, skipping", "dir", dir, "err", err)
			continue
		}
		toUpdate = append(toUpdate, p)
	}
	return toDelete, toUpdate
}

// affectedDirs expands the changed keys into the ordered set of
// directories whose listings they influence: each key's directory and
// every ancestor up to and including the root (the empty prefix).
func affectedDirs(keys []string) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, key := range keys {
		dir := path.Dir(key)
		if dir == "." {
			dir = ""
		}
		for {
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
			if dir == "" {
				break
			}
			dir = path.Dir(dir)
			if dir == "." {
				dir = ""
			}
		}
	}
	sort.Strings(dirs)
	return dirs
}

// listEntries lists the keys under dir, excluding the directory's own
// index page. Pages never count toward a directory's content: a
// directory holding nothing but its page is empty.
func listEntries(ctx context.Context, lister Lister, bucket, dir string) ([]string, error) {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}
	keys, err := lister.ListFiles(ctx, bucket, prefix, "")
	if err != nil {
		return nil, err
	}
	var entries []string
	for _, key := range keys {
		if path.Base(key) == PageFileName {
			continue
		}
		entries = append(entries, key)
	}
	return entries, nil
}

func generatePage(ctx context.Context, lister Lister, bucket, root, dir string) (string, error) {
	keys, err := listEntries(ctx, lister, bucket, dir)
	if err != nil {
		return "", err
	}
	return renderPage(root, dir, keys)
}

// renderPage writes the listing page for dir under root and returns its
// local path. Listed keys are collapsed to immediate children: files
// keep their name, subdirectories become a single "name/" entry. Every
// page except the root's links back to its parent.
func renderPage(root, dir string, keys []string) (string, error) {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	seen := map[string]bool{}
	var items []string
	for _, key := range keys {
		rest := strings.TrimPrefix(key, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i+1]
		}
		if rest == "" || seen[rest] {
			continue
		}
		seen[rest] = true
		items = append(items, rest)
	}
	sort.Strings(items)
	if dir != "" {
		items = append([]string{"../"}, items...)
	}

	localDir := filepath.Join(root, filepath.FromSlash(dir))
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", err
	}
	localPath := filepath.Join(localDir, PageFileName)
	f, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data := page{Path: "/" + prefix, Items: items}
	if err := pageTemplate.Execute(f, data); err != nil {
		return "", err
	}
	return localPath, nil
}

func ensureLogger(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return logger
}
