package cli

import (
	"github.com/spf13/cobra"

	"absence-desk/internal/app"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the shell over stdin and stdout",
		Long: `Run the event loop: read JSON-RPC messages from stdin and write responses
and notifications to stdout until stdin is closed or the process is
interrupted.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := configFrom(cmd)

	return app.Run(cmd.Context(), app.Options{
		Config:         cfg,
		LoggingManager: newLoggingManager(cmd, cfg),
	}, cmd.InOrStdin(), cmd.OutOrStdout())
}
