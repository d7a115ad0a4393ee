// Package validation checks untrusted paths and URLs before they reach the
// filesystem or the operating system's opener.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	// ErrUnsupportedScheme is returned for URLs outside the allowed schemes
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	// ErrUnsupportedApp is returned for applications outside AllowedOpenWith
	ErrUnsupportedApp = errors.New("unsupported application")

	validAssetPath = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)
)

// AllowedURLSchemes are the schemes the opener may hand to the OS
var AllowedURLSchemes = []string{"http", "https", "mailto", "tel"}

// AllowedOpenWith are the named applications the shell may ask the opener to
// use. Names only: paths and arbitrary executables are never accepted.
var AllowedOpenWith = []string{
	"firefox",
	"google chrome",
	"chromium",
	"safari",
	"open",
	"start",
	"xdg-open",
	"gio",
	"gnome-open",
	"kde-open",
	"wslview",
}

// SanitizeAssetPath validates a slash-separated path relative to the
// resource directory and returns it cleaned.
func SanitizeAssetPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	// Check for directory traversal attempts before cleaning
	if strings.Contains(p, "..") {
		return "", fmt.Errorf("path contains directory traversal sequence")
	}

	if strings.HasPrefix(p, "/") || strings.Contains(p, `\`) || strings.Contains(p, ":") {
		return "", fmt.Errorf("path must be relative and slash-separated")
	}

	if strings.Contains(p, "\x00") {
		return "", fmt.Errorf("path contains null bytes")
	}

	cleanPath := path.Clean(p)
	if !validAssetPath.MatchString(cleanPath) {
		return "", fmt.Errorf("path contains invalid characters")
	}

	return cleanPath, nil
}

// ValidateOpenURL parses raw and checks it against AllowedURLSchemes
func ValidateOpenURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("url cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("url has no scheme")
	}

	scheme := strings.ToLower(u.Scheme)
	for _, allowed := range AllowedURLSchemes {
		if scheme == allowed {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

// ValidateOpenPath checks a local path given by the shell. Existence is
// checked separately.
func ValidateOpenPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if strings.Contains(p, "\x00") {
		return "", fmt.Errorf("path contains null bytes")
	}
	return p, nil
}

// ValidateOpenWith checks the optional application name given by the shell.
// An empty name selects the system default handler.
func ValidateOpenWith(with string) (string, error) {
	if with == "" {
		return "", nil
	}

	name := strings.ToLower(strings.TrimSpace(with))
	for _, allowed := range AllowedOpenWith {
		if name == allowed {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedApp, with)
}
