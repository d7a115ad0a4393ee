// Command absence-bridge exposes the backend over TCP for development. Each
// connection gets its own backend process speaking the same newline-delimited
// JSON-RPC protocol as the desktop shell.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"absence-desk/pkg/logging"
)

func newRootCmd() *cobra.Command {
	var (
		port       int
		host       string
		serverPath string
		serverArgs []string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "absence-bridge",
		Short: "Bridge TCP clients to the stdio backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lm := logging.NewLoggingManagerWithWriter(cmd.ErrOrStderr())
			lm.SetLogLevel(logLevel)

			bridge := NewBridge(net.JoinHostPort(host, strconv.Itoa(port)), serverPath, serverArgs, lm)
			if err := bridge.Listen(); err != nil {
				return err
			}

			err := bridge.Serve(cmd.Context())
			lm.GetLogger("bridge").Info("Bridge shutdown completed")
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.Flags()
	flags.IntVar(&port, "port", 8080, "TCP server port")
	flags.StringVar(&host, "host", "localhost", "TCP server host")
	flags.StringVar(&serverPath, "server", "./bin/absence-desk", "Path to the backend binary")
	flags.StringSliceVar(&serverArgs, "server-arg", []string{"serve"}, "Arguments passed to the backend")
	flags.StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
