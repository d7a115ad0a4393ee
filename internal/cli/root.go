// Package cli provides the command-line interface of the absence desk backend.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"absence-desk/internal/config"
	appconfig "absence-desk/pkg/config"
	"absence-desk/pkg/logging"
)

// configKey is used to store the loaded config in the command context
type configKey struct{}

// NewRootCmd creates the root command. Without a subcommand it serves the
// shell over stdin and stdout.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   appconfig.AppIdentifier,
		Short: "Absence desk backend",
		Long: `Backend process of the absence desk desktop application.

The shell talks to it with newline-delimited JSON-RPC 2.0 on stdin and
stdout. Logs go to stderr.`,
		Version: appconfig.AppVersion,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			result, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey{}, result.Config))

			if result.FileUsed != "" {
				lm := newLoggingManager(cmd, result.Config)
				lm.GetLogger("config").WithContext("file", result.FileUsed).Debug("Loaded config file")
			}
			return nil
		},
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./absence-desk.yaml)")
	flags.String("resource-dir", "", "Resource directory containing assets/ (default: platform location)")
	flags.String("identifier", config.DefaultIdentifier, "Application identifier used to locate the resource directory")
	flags.String("log-level", config.DefaultLogLevel, "Log level (DEBUG|INFO|WARN|ERROR)")
	flags.Bool("watch-assets", false, "Notify the shell when asset files change")
	flags.Int("max-in-flight", config.DefaultMaxInFlight, "Maximum concurrently running commands")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"DEBUG", "INFO", "WARN", "ERROR"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewReadCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command with ctx
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// configFrom returns the config stored by PersistentPreRunE
func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok && cfg != nil {
		return cfg
	}
	return config.Default()
}

func newLoggingManager(cmd *cobra.Command, cfg *config.Config) *logging.LoggingManager {
	lm := logging.NewLoggingManagerWithWriter(cmd.ErrOrStderr())
	lm.SetLogLevel(cfg.LogLevel)
	return lm
}
