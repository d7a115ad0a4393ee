// Package opener is the host plugin that hands URLs and files to the
// operating system's default handler.
package opener

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"os/exec"
	"runtime"

	"absence-desk/internal/host"
	"absence-desk/internal/models"
	"absence-desk/pkg/errors"
	"absence-desk/pkg/validation"
)

// PluginName is the namespace of the plugin's commands
const PluginName = "opener"

// Command names within the plugin namespace
const (
	CommandOpenURL  = "open_url"
	CommandOpenPath = "open_path"
)

// Launcher starts the program that opens target
type Launcher interface {
	Launch(ctx context.Context, target, with string) error
}

// SystemLauncher uses the platform's default opener
type SystemLauncher struct {
	goos string
}

// NewSystemLauncher returns a launcher for the current platform
func NewSystemLauncher() *SystemLauncher {
	return &SystemLauncher{goos: runtime.GOOS}
}

// Command builds the process that opens target. with names an explicit
// application and is optional.
func (l *SystemLauncher) Command(ctx context.Context, target, with string) *exec.Cmd {
	switch l.goos {
	case "darwin":
		if with != "" {
			return exec.CommandContext(ctx, "open", "-a", with, target)
		}
		return exec.CommandContext(ctx, "open", target)
	case "windows":
		if with != "" {
			return exec.CommandContext(ctx, with, target)
		}
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	default:
		if with != "" {
			return exec.CommandContext(ctx, with, target)
		}
		return exec.CommandContext(ctx, "xdg-open", target)
	}
}

// Launch implements Launcher. It does not wait for the opened program.
// with must name an application in validation.AllowedOpenWith.
func (l *SystemLauncher) Launch(ctx context.Context, target, with string) error {
	app, err := validation.ValidateOpenWith(with)
	if err != nil {
		return err
	}

	cmd := l.Command(context.WithoutCancel(ctx), target, app)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// Plugin exposes open_url and open_path
type Plugin struct {
	launcher Launcher
	stat     func(string) (os.FileInfo, error)
}

// New creates the plugin. A nil launcher means the system launcher.
func New(launcher Launcher) *Plugin {
	if launcher == nil {
		launcher = NewSystemLauncher()
	}
	return &Plugin{launcher: launcher, stat: os.Stat}
}

// Name implements host.Plugin
func (p *Plugin) Name() string { return PluginName }

// Commands implements host.Plugin
func (p *Plugin) Commands() map[string]host.CommandFunc {
	return map[string]host.CommandFunc{
		CommandOpenURL:  p.openURL,
		CommandOpenPath: p.openPath,
	}
}

// Start implements host.Plugin
func (p *Plugin) Start(context.Context, *host.AppHandle) error { return nil }

// Close implements host.Plugin
func (p *Plugin) Close() error { return nil }

func (p *Plugin) openURL(ctx context.Context, app *host.AppHandle, raw json.RawMessage) (interface{}, error) {
	var params models.OpenURLParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}

	u, err := validation.ValidateOpenURL(params.URL)
	if err != nil {
		code := errors.ErrCodeInvalidParams
		if stderrors.Is(err, validation.ErrUnsupportedScheme) {
			code = errors.ErrCodeUnsupportedScheme
		}
		return nil, errors.NewValidationError(code, "invalid url", err).
			WithContext("url", params.URL)
	}

	with, err := validateWith(params.With)
	if err != nil {
		return nil, err
	}

	if err := p.launcher.Launch(ctx, u.String(), with); err != nil {
		return nil, errors.NewPluginError(errors.ErrCodeLaunchFailed, "failed to open url", err).
			WithContext("url", params.URL)
	}
	app.Logger().WithContext("scheme", u.Scheme).Debug("Opened url")
	return nil, nil
}

func (p *Plugin) openPath(ctx context.Context, app *host.AppHandle, raw json.RawMessage) (interface{}, error) {
	var params models.OpenPathParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}

	if _, err := validation.ValidateOpenPath(params.Path); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidParams, "invalid path", err)
	}
	if _, err := p.stat(params.Path); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodePathNotFound, "path does not exist", err).
			WithContext("path", params.Path)
	}

	with, err := validateWith(params.With)
	if err != nil {
		return nil, err
	}

	if err := p.launcher.Launch(ctx, params.Path, with); err != nil {
		return nil, errors.NewPluginError(errors.ErrCodeLaunchFailed, "failed to open path", err).
			WithContext("path", params.Path)
	}
	app.Logger().Debug("Opened path")
	return nil, nil
}

func validateWith(with string) (string, error) {
	app, err := validation.ValidateOpenWith(with)
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedApp, "invalid application", err).
			WithContext("with", with)
	}
	return app, nil
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidParams, "Missing parameters", nil)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidParams, "Invalid parameters format", err)
	}
	return nil
}
