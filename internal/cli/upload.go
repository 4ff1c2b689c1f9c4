package cli

import (
	"github.com/spf13/cobra"
)

// newUploadCmd creates the upload command, which publishes a product
// release tarball into the repository.
func newUploadCmd(configPath *string) *cobra.Command {
	opts := &syncOpts{}

	cmd := &cobra.Command{
		Use:   "upload TARBALL",
		Short: "Publish a product release tarball into the repository",
		Long: `Publish the Maven artifact tree inside a product release tarball.

Artifacts are uploaded under the key derived from their path below the
root marker directory, each GA's maven-metadata.xml is rebuilt from the
remote state and the index pages of every touched directory are
regenerated.

Examples:
  charon upload my-product-1.0.0.tar.gz -p my-product-1.0.0 -b prod-maven
  charon upload repo.tar.gz -p my-product-1.0.0 --ignore '\.sha256$' --no-index`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, *configPath, opts, args[0], false)
		},
	}
	opts.register(cmd)
	return cmd
}
