package cli

import (
	"github.com/spf13/cobra"
)

// newDeleteCmd creates the delete command, which retracts a previously
// published product release from the repository.
func newDeleteCmd(configPath *string) *cobra.Command {
	opts := &syncOpts{}

	cmd := &cobra.Command{
		Use:   "delete TARBALL",
		Short: "Retract a product release from the repository",
		Long: `Retract the Maven artifact tree inside a product release tarball.

The tarball names what to retract. Each artifact loses this product's
reference and is deleted once no other product references it; metadata
and index pages are then rebuilt from what remains in the bucket.

Examples:
  charon delete my-product-1.0.0.tar.gz -p my-product-1.0.0 -b prod-maven`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, *configPath, opts, args[0], true)
		},
	}
	opts.register(cmd)
	return cmd
}
