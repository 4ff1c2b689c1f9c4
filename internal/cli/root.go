// Package cli implements the charon command-line interface.
//
// The CLI publishes and retracts Maven product release tarballs against
// an S3-backed repository. Both commands take the tarball path as the
// single positional argument and identify the owning product release via
// --product; shared objects are reference counted, so retracting one
// product never removes artifacts another product still ships.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
// Typically called by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the charon CLI and returns an error if any command fails.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands
// via loggerFromContext.
func Execute() error {
	var verbose bool
	var configPath string

	root := &cobra.Command{
		Use:          "charon",
		Short:        "Charon synchronizes Maven product releases into object storage",
		Long:         `Charon publishes and retracts Maven artifact trees in an S3-backed repository, keeping per-GA maven-metadata.xml documents and browsable index pages consistent with the remote state.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("charon %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.charon/charon.yaml)")

	root.AddCommand(newUploadCmd(&configPath))
	root.AddCommand(newDeleteCmd(&configPath))

	return root.ExecuteContext(context.Background())
}
