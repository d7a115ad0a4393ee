package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	appconfig "absence-desk/pkg/config"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", appconfig.AppName, appconfig.AppVersion)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
