// Package resdir resolves the directory where bundled application resources
// are installed at runtime.
package resdir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Resolver locates the application resource directory.
// Implementations are consulted on every read; results are not cached.
type Resolver interface {
	ResourceDir() (string, error)
}

// Func adapts a plain function to a Resolver
type Func func() (string, error)

// ResourceDir implements Resolver
func (f Func) ResourceDir() (string, error) {
	return f()
}

// Static always resolves to a fixed directory
type Static string

// ResourceDir implements Resolver
func (s Static) ResourceDir() (string, error) {
	dir := strings.TrimSpace(string(s))
	if dir == "" {
		return "", fmt.Errorf("resource directory is not configured")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to make resource directory absolute: %w", err)
	}
	return abs, nil
}

// PlatformResolver derives the resource directory from the location of the
// running executable, following desktop packaging conventions.
type PlatformResolver struct {
	// Identifier names the install directory under /usr/lib on linux
	Identifier string

	goos       string
	executable func() (string, error)
}

// NewPlatformResolver creates a resolver for the current platform
func NewPlatformResolver(identifier string) *PlatformResolver {
	return &PlatformResolver{
		Identifier: identifier,
		goos:       runtime.GOOS,
		executable: os.Executable,
	}
}

// ResourceDir implements Resolver
func (p *PlatformResolver) ResourceDir() (string, error) {
	exe, err := p.executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	exeDir := filepath.Dir(exe)

	switch p.goos {
	case "darwin":
		// <App>.app/Contents/MacOS/<binary> -> <App>.app/Contents/Resources
		if filepath.Base(exeDir) == "MacOS" {
			return filepath.Join(filepath.Dir(exeDir), "Resources"), nil
		}
		return exeDir, nil
	case "linux":
		if filepath.ToSlash(exeDir) == "/usr/bin" {
			if p.Identifier == "" {
				return "", fmt.Errorf("application identifier is required to resolve /usr/lib resources")
			}
			return filepath.Join("/usr/lib", p.Identifier), nil
		}
		return exeDir, nil
	default:
		return exeDir, nil
	}
}
