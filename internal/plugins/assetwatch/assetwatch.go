// Package assetwatch notifies the shell when bundled asset files change on
// disk. It contributes no commands.
package assetwatch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"absence-desk/internal/host"
	"absence-desk/internal/models"
	"absence-desk/pkg/assets"
	"absence-desk/pkg/config"
	"absence-desk/pkg/errors"
	"absence-desk/pkg/monitor"
)

// PluginName is the namespace of the plugin
const PluginName = "assetwatch"

// Plugin watches the assets directory under the resource directory
type Plugin struct {
	debounce time.Duration

	mu      sync.Mutex
	monitor *monitor.FileSystemMonitor
}

// New creates the plugin. A zero debounce uses the monitor default.
func New(debounce time.Duration) *Plugin {
	return &Plugin{debounce: debounce}
}

// Name implements host.Plugin
func (p *Plugin) Name() string {
	return PluginName
}

// Commands implements host.Plugin
func (p *Plugin) Commands() map[string]host.CommandFunc {
	return nil
}

// Start resolves the assets directory and begins watching it. Events are
// pushed to the shell as assets/changed notifications.
func (p *Plugin) Start(_ context.Context, app *host.AppHandle) error {
	dir, err := app.ResourceDir()
	if err != nil {
		return errors.NewResourceDirError("cannot watch assets", err)
	}
	assetsDir := filepath.Join(dir, config.AssetsDir)

	fsm, err := monitor.NewFileSystemMonitor(config.JSONExtension)
	if err != nil {
		return errors.NewPluginError(errors.ErrCodeLaunchFailed, "failed to create asset watcher", err)
	}
	if p.debounce > 0 {
		fsm.SetDebounceDelay(p.debounce)
	}

	logger := app.Logger().WithContext("plugin", PluginName)
	fsm.OnError(func(err error) {
		logger.WithError(err).Warn("Asset watcher error")
	})

	if err := fsm.WatchDirectory(assetsDir, func(event models.AssetEvent) {
		event.Asset = assetName(event.Path)
		logger.LogAssetEvent(event.Type, event.Asset, event.Path)
		if err := app.Emit(config.EventAssetsChanged, event); err != nil {
			logger.WithError(err).Warn("Failed to emit asset event")
		}
	}); err != nil {
		_ = fsm.StopWatching()
		return errors.NewFileSystemError(errors.ClassifyFileError(err), "failed to watch assets directory", err).
			WithContext("path", assetsDir)
	}

	p.mu.Lock()
	p.monitor = fsm
	p.mu.Unlock()

	logger.WithContext("path", assetsDir).Info("Watching assets directory")
	return nil
}

// Close stops the watcher if it was started
func (p *Plugin) Close() error {
	p.mu.Lock()
	fsm := p.monitor
	p.monitor = nil
	p.mu.Unlock()

	if fsm == nil {
		return nil
	}
	return fsm.StopWatching()
}

// assetName maps a file path to the logical asset name, or "" for files that
// are not bundled assets.
func assetName(path string) string {
	base := filepath.Base(path)
	for _, a := range assets.All() {
		if strings.EqualFold(filepath.Base(filepath.FromSlash(a.Path)), base) {
			return a.Name
		}
	}
	return ""
}
