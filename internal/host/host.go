// Package host implements the runtime that sits between a desktop shell and
// the backend commands: a command registry, plugins, and a JSON-RPC event loop
// over a pair of streams.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"absence-desk/internal/models"
	"absence-desk/pkg/config"
	"absence-desk/pkg/errors"
	"absence-desk/pkg/logging"
	"absence-desk/pkg/resdir"
)

// DefaultMaxInFlight bounds concurrently running invocations
const DefaultMaxInFlight = 8

// CommandFunc handles one invocation. params is the raw JSON sent by the
// shell and may be empty. The result is encoded as the response result.
type CommandFunc func(ctx context.Context, app *AppHandle, params json.RawMessage) (interface{}, error)

// Emitter pushes notifications to the shell
type Emitter interface {
	Emit(method string, params interface{}) error
}

// Plugin contributes namespaced commands and optional background work
type Plugin interface {
	Name() string
	Commands() map[string]CommandFunc
	Start(ctx context.Context, app *AppHandle) error
	Close() error
}

// PluginCommand returns the fully qualified name of a plugin command
func PluginCommand(plugin, command string) string {
	return config.PluginCommandPrefix + plugin + "|" + command
}

// AppHandle is the capability object handed to every command. It resolves
// the resource directory on demand and gives access to logging and events.
type AppHandle struct {
	resolver resdir.Resolver
	logger   *logging.StructuredLogger
	emitter  Emitter
}

// ResourceDir resolves the application resource directory. AppHandle
// therefore satisfies resdir.Resolver.
func (a *AppHandle) ResourceDir() (string, error) {
	if a.resolver == nil {
		return "", fmt.Errorf("no resource directory resolver configured")
	}
	return a.resolver.ResourceDir()
}

// Logger returns the command logger
func (a *AppHandle) Logger() *logging.StructuredLogger {
	return a.logger
}

// Emit sends a notification to the shell
func (a *AppHandle) Emit(method string, params interface{}) error {
	if a.emitter == nil {
		return fmt.Errorf("event channel not available")
	}
	return a.emitter.Emit(method, params)
}

// Option configures a Builder
type Option func(*Builder)

// WithResolver sets the resource directory resolver handed to commands
func WithResolver(r resdir.Resolver) Option {
	return func(b *Builder) { b.resolver = r }
}

// WithLoggingManager sets the logging manager
func WithLoggingManager(lm *logging.LoggingManager) Option {
	return func(b *Builder) { b.loggingManager = lm }
}

// WithMaxInFlight bounds concurrently running invocations
func WithMaxInFlight(n int) Option {
	return func(b *Builder) { b.maxInFlight = n }
}

// WithInfo sets the name and version reported on initialize
func WithInfo(name, version string) Option {
	return func(b *Builder) { b.info = models.HostInfo{Name: name, Version: version} }
}

// Builder collects commands and plugins before the host is started
type Builder struct {
	info           models.HostInfo
	resolver       resdir.Resolver
	loggingManager *logging.LoggingManager
	maxInFlight    int

	commands map[string]CommandFunc
	plugins  []Plugin
	errs     []string
}

// NewBuilder creates a builder with the given options
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		info:        models.HostInfo{Name: config.AppName, Version: config.AppVersion},
		maxInFlight: DefaultMaxInFlight,
		commands:    make(map[string]CommandFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Command registers a single command
func (b *Builder) Command(name string, fn CommandFunc) *Builder {
	switch {
	case strings.TrimSpace(name) == "":
		b.errs = append(b.errs, "command name must not be empty")
	case fn == nil:
		b.errs = append(b.errs, fmt.Sprintf("command %q has no handler", name))
	case isReserved(name):
		b.errs = append(b.errs, fmt.Sprintf("command %q collides with a host method", name))
	default:
		if _, exists := b.commands[name]; exists {
			b.errs = append(b.errs, fmt.Sprintf("command %q registered twice", name))
			return b
		}
		b.commands[name] = fn
	}
	return b
}

// InvokeHandler registers a complete set of commands
func (b *Builder) InvokeHandler(commands map[string]CommandFunc) *Builder {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b.Command(name, commands[name])
	}
	return b
}

// Plugin registers a plugin and its namespaced commands
func (b *Builder) Plugin(p Plugin) *Builder {
	if p == nil || p.Name() == "" {
		b.errs = append(b.errs, "plugin must have a name")
		return b
	}
	for _, existing := range b.plugins {
		if existing.Name() == p.Name() {
			b.errs = append(b.errs, fmt.Sprintf("plugin %q registered twice", p.Name()))
			return b
		}
	}

	b.plugins = append(b.plugins, p)
	for name, fn := range p.Commands() {
		b.Command(PluginCommand(p.Name(), name), fn)
	}
	return b
}

// Build validates the registrations and returns a host ready to run
func (b *Builder) Build() (*Host, error) {
	if len(b.errs) > 0 {
		return nil, errors.NewIPCError(errors.ErrCodeDuplicateMethod,
			"invalid host configuration: "+strings.Join(b.errs, "; "), nil)
	}

	lm := b.loggingManager
	if lm == nil {
		lm = logging.NewLoggingManager()
	}

	maxInFlight := b.maxInFlight
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}

	commands := make(map[string]CommandFunc, len(b.commands))
	for name, fn := range b.commands {
		commands[name] = fn
	}

	h := &Host{
		info:           b.info,
		commands:       commands,
		plugins:        append([]Plugin(nil), b.plugins...),
		maxInFlight:    maxInFlight,
		loggingManager: lm,
		logger:         lm.GetLogger("host"),
	}
	h.app = &AppHandle{
		resolver: b.resolver,
		logger:   lm.GetLogger("commands"),
		emitter:  h,
	}

	return h, nil
}

func isReserved(name string) bool {
	switch name {
	case config.MethodInitialize, config.MethodInitialized, config.MethodHostCommands:
		return true
	}
	return false
}

// Host dispatches shell invocations to registered commands
type Host struct {
	info        models.HostInfo
	commands    map[string]CommandFunc
	plugins     []Plugin
	maxInFlight int
	app         *AppHandle

	loggingManager *logging.LoggingManager
	logger         *logging.StructuredLogger

	initialized atomic.Bool

	writeMu sync.Mutex
	encoder *json.Encoder
}

// App returns the capability object handed to commands
func (h *Host) App() *AppHandle {
	return h.app
}

// Commands returns the registered command names in sorted order
func (h *Host) Commands() []string {
	names := make([]string, 0, len(h.commands))
	for name := range h.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Plugins returns the registered plugin names
func (h *Host) Plugins() []string {
	names := make([]string, 0, len(h.plugins))
	for _, p := range h.plugins {
		names = append(names, p.Name())
	}
	return names
}

// Initialized reports whether the shell has completed the handshake
func (h *Host) Initialized() bool {
	return h.initialized.Load()
}
