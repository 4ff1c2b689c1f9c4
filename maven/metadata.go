package maven

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// MetadataFileName is the per-GA metadata document name.
const MetadataFileName = "maven-metadata.xml"

// lastUpdatedLayout is the timestamp format exposed in the metadata
// document's lastUpdated field.
const lastUpdatedLayout = "20060102150405"

// Metadata represents a maven-metadata.xml document for one GA. Versions
// are ordered ascending and deduplicated; latest and release are derived
// from the version list and never stored independently.
type Metadata struct {
	GroupID     string
	ArtifactID  string
	Versions    []string
	LastUpdated string
}

// NewMetadata builds a Metadata for the GA with the versions deduplicated
// and ordered by CompareVersions, stamped with the current time.
func NewMetadata(group, artifact string, versions []string) *Metadata {
	return &Metadata{
		GroupID:     group,
		ArtifactID:  artifact,
		Versions:    SortVersions(versions),
		LastUpdated: time.Now().Format(lastUpdatedLayout),
	}
}

// Latest returns the maximum known version.
func (m *Metadata) Latest() string {
	if len(m.Versions) == 0 {
		return ""
	}
	return m.Versions[len(m.Versions)-1]
}

// Release returns the release pointer, which equals the maximum version.
func (m *Metadata) Release() string {
	return m.Latest()
}

// Render executes the document template against the metadata.
func (m *Metadata) Render(tmpl *template.Template) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, m); err != nil {
		return "", fmt.Errorf("failed to render metadata for %s:%s: %w", m.GroupID, m.ArtifactID, err)
	}
	return sb.String(), nil
}

// GenerateMetadata renders the metadata document for a GA and writes it to
// the canonical local path <root>/<group-as-path>/<artifact>/maven-metadata.xml,
// returning that path. Parent directories are created as needed.
func GenerateMetadata(tmpl *template.Template, group, artifact string, versions []string, root string) (string, error) {
	content, err := NewMetadata(group, artifact, versions).Render(tmpl)
	if err != nil {
		return "", err
	}

	target := filepath.Join(root, filepath.FromSlash(GAPath(group, artifact)), MetadataFileName)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create metadata directory for %s:%s: %w", group, artifact, err)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write metadata file %s: %w", target, err)
	}
	return target, nil
}
