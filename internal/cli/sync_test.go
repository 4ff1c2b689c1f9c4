package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadCommandFlags(t *testing.T) {
	configPath := ""
	cmd := newUploadCmd(&configPath)

	assert.Equal(t, "upload TARBALL", cmd.Use)
	for _, name := range []string{"product", "bucket", "root", "ignore", "no-index", "tmp-dir", "concurrency"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %s", name)
	}

	required, err := cmd.Flags().GetString("product")
	require.NoError(t, err)
	assert.Empty(t, required)
	assert.Error(t, cmd.Args(cmd, nil), "the tarball argument is mandatory")
	assert.NoError(t, cmd.Args(cmd, []string{"release.tar.gz"}))
}

func TestDeleteCommandFlags(t *testing.T) {
	configPath := ""
	cmd := newDeleteCmd(&configPath)

	assert.Equal(t, "delete TARBALL", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("product"))
	assert.Error(t, cmd.Args(cmd, []string{"a.tar.gz", "b.tar.gz"}))
}
