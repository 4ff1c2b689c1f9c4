package maven

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGA(t *testing.T) {
	g, a, err := ParseGA("org/apache/maven/plugins/maven-plugin-plugin", "/")
	require.NoError(t, err)
	assert.Equal(t, "org.apache.maven.plugins", g)
	assert.Equal(t, "maven-plugin-plugin", a)

	g, a, err = ParseGA("/repo/commons-io/commons-io", "/repo")
	require.NoError(t, err)
	assert.Equal(t, "commons-io", g)
	assert.Equal(t, "commons-io", a)
}

func TestParseGAInvalid(t *testing.T) {
	_, _, err := ParseGA("/repo", "/repo")
	assert.ErrorIs(t, err, ErrInvalidCoordinatePath)

	_, _, err = ParseGA("", "/repo")
	assert.ErrorIs(t, err, ErrInvalidCoordinatePath)
}

func TestParseGAV(t *testing.T) {
	g, a, v, err := ParseGAV("org/apache/maven/plugins/maven-plugin-plugin/1.0/maven-plugin-plugin-1.0.pom", "/")
	require.NoError(t, err)
	assert.Equal(t, "org.apache.maven.plugins", g)
	assert.Equal(t, "maven-plugin-plugin", a)
	assert.Equal(t, "1.0", v)

	// The minimal shape has exactly artifact, version and file name.
	g, a, v, err = ParseGAV("commons-io/2.11.0/commons-io-2.11.0.jar", "")
	require.NoError(t, err)
	assert.Equal(t, "", g)
	assert.Equal(t, "commons-io", a)
	assert.Equal(t, "2.11.0", v)
}

func TestParseGAVInvalid(t *testing.T) {
	_, _, _, err := ParseGAV("only/two.pom", "/")
	assert.ErrorIs(t, err, ErrInvalidCoordinatePath)
}

func TestParseGAVs(t *testing.T) {
	gavs, err := ParseGAVs([]string{
		"org/foo/bar/1.0/bar-1.0.pom",
		"org/foo/bar/2.0/bar-2.0.pom",
		"org/foo/baz/1.5/baz-1.5.pom",
		"org/foo/bar/1.0/bar-1.0-sources.pom",
	}, "")
	require.NoError(t, err)

	require.Contains(t, gavs, "org.foo")
	assert.Equal(t, []string{"1.0", "2.0", "1.0"}, gavs["org.foo"]["bar"])
	assert.Equal(t, []string{"1.5"}, gavs["org.foo"]["baz"])
}

func TestGAPath(t *testing.T) {
	assert.Equal(t, "org/apache/maven/plugins/maven-plugin-plugin", GAPath("org.apache.maven.plugins", "maven-plugin-plugin"))
	assert.Equal(t, "commons-io/commons-io", GAPath("commons-io", "commons-io"))
}
