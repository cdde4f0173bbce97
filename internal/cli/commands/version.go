package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmine/pkg/extract"
	"github.com/leapstack-labs/sqlmine/pkg/sandbox"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the sqlmine version, the sandbox engines compiled in and the handled file extensions.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlmine v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sandbox engines: %s\n", strings.Join(sandbox.ListEngines(), ", "))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Extensions: %s\n", strings.Join(extract.Supported(), " "))
		},
	}
}
