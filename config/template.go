package config

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// MetadataTemplateFile is the override file name looked up under
// TemplatesDir for the maven-metadata.xml document.
const MetadataTemplateFile = "maven-metadata.xml.tmpl"

// defaultMetadataTemplate renders the maven-metadata.xml document when no
// override template is configured. latest and release both point at the
// maximum known version.
const defaultMetadataTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>{{ .GroupID }}</groupId>
  <artifactId>{{ .ArtifactID }}</artifactId>
  <versioning>
    <latest>{{ .Latest }}</latest>
    <release>{{ .Release }}</release>
    <versions>
{{- range .Versions }}
      <version>{{ . }}</version>
{{- end }}
    </versions>
    <lastUpdated>{{ .LastUpdated }}</lastUpdated>
  </versioning>
</metadata>
`

// MetadataTemplate resolves the metadata document template. It prefers
// <TemplatesDir>/maven-metadata.xml.tmpl and falls back to the built-in
// default. The parsed template is a plain value; callers pass it to the
// synthesizer explicitly rather than reading shared process state.
func (c *Config) MetadataTemplate() (*template.Template, error) {
	text := defaultMetadataTemplate
	if c.TemplatesDir != "" {
		path := filepath.Join(c.TemplatesDir, MetadataTemplateFile)
		if data, err := os.ReadFile(path); err == nil {
			text = string(data)
		}
	}

	tmpl, err := template.New("maven-metadata").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata template: %w", err)
	}
	return tmpl, nil
}
