// Package app assembles the backend: it registers the asset commands and
// plugins on a host and runs the event loop.
package app

import (
	"context"
	"io"
	"time"

	"github.com/spf13/afero"

	"absence-desk/internal/config"
	"absence-desk/internal/host"
	"absence-desk/internal/plugins/assetwatch"
	"absence-desk/internal/plugins/opener"
	"absence-desk/pkg/assets"
	appconfig "absence-desk/pkg/config"
	"absence-desk/pkg/errors"
	"absence-desk/pkg/logging"
	"absence-desk/pkg/resdir"
)

// Options are the dependencies of the backend. Zero values select the
// production implementation.
type Options struct {
	Config         *config.Config
	Fs             afero.Fs
	Resolver       resdir.Resolver
	LoggingManager *logging.LoggingManager
	Launcher       opener.Launcher
	WatchDebounce  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Config == nil {
		o.Config = config.Default()
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Resolver == nil {
		o.Resolver = o.Config.Resolver()
	}
	if o.LoggingManager == nil {
		o.LoggingManager = logging.NewLoggingManager()
		o.LoggingManager.SetLogLevel(o.Config.LogLevel)
	}
	if o.Launcher == nil {
		o.Launcher = opener.NewSystemLauncher()
	}
	return o
}

// NewHost builds a host with the asset commands and plugins registered
func NewHost(opts Options) (*host.Host, error) {
	opts = opts.withDefaults()

	opts.LoggingManager.SetGlobalContext("service", appconfig.AppName)
	opts.LoggingManager.SetGlobalContext("version", appconfig.AppVersion)

	builder := host.NewBuilder(
		host.WithInfo(appconfig.AppName, appconfig.AppVersion),
		host.WithResolver(opts.Resolver),
		host.WithLoggingManager(opts.LoggingManager),
		host.WithMaxInFlight(opts.Config.MaxInFlight),
	).
		Plugin(opener.New(opts.Launcher)).
		InvokeHandler(Commands(assets.NewReader(opts.Fs)))

	if opts.Config.WatchAssets {
		builder.Plugin(assetwatch.New(opts.WatchDebounce))
	}

	h, err := builder.Build()
	if err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeInitialization, "failed to build host", err)
	}
	return h, nil
}

// Run builds the host and serves the shell on r and w until r is exhausted
// or ctx is cancelled. Cancellation is a clean shutdown.
func Run(ctx context.Context, opts Options, r io.Reader, w io.Writer) error {
	opts = opts.withDefaults()
	lm := opts.LoggingManager

	startTime := time.Now()
	h, err := NewHost(opts)
	if err != nil {
		lm.LogStartupSequence("host_build", map[string]interface{}{"error": err.Error()}, time.Since(startTime), false)
		return err
	}
	lm.LogStartupSequence("host_build", map[string]interface{}{
		"commands":     h.Commands(),
		"watch_assets": opts.Config.WatchAssets,
	}, time.Since(startTime), true)

	err = h.Run(ctx, r, w)
	shutdownStart := time.Now()
	if err != nil && ctx.Err() == nil {
		runErr := errors.NewSystemError(errors.ErrCodeEventLoopFailed, "event loop failed", err)
		lm.LogShutdownSequence("event_loop", map[string]interface{}{"error": runErr.Error()}, time.Since(shutdownStart), false)
		return runErr
	}

	lm.LogShutdownSequence("event_loop", nil, time.Since(shutdownStart), true)
	return nil
}
