// Package assets reads the static JSON files bundled with the application.
package assets

import (
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/afero"

	"absence-desk/pkg/config"
	"absence-desk/pkg/errors"
	"absence-desk/pkg/resdir"
	"absence-desk/pkg/validation"
)

// Asset is a bundled, read-only file identified by a path relative to the
// resource directory.
type Asset struct {
	Name string
	Path string
}

var (
	// Employees is the employee roster
	Employees = Asset{Name: config.AssetEmployees, Path: config.EmployeesAssetPath}
	// Codes is the absence code table
	Codes = Asset{Name: config.AssetCodes, Path: config.CodesAssetPath}
)

// All returns every known asset
func All() []Asset {
	return []Asset{Employees, Codes}
}

// Lookup finds an asset by its logical name
func Lookup(name string) (Asset, bool) {
	for _, a := range All() {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}

// Reader reads assets through a filesystem abstraction. It holds no state
// besides the filesystem and is safe for concurrent use.
type Reader struct {
	fs afero.Fs
}

// NewReader creates a reader over fs. A nil fs means the OS filesystem.
func NewReader(fs afero.Fs) *Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Reader{fs: fs}
}

// ReadEmployeeJSON returns the raw contents of assets/employees.json
func (r *Reader) ReadEmployeeJSON(env resdir.Resolver) (string, error) {
	return r.Read(env, Employees)
}

// ReadCodeJSON returns the raw contents of assets/codes.json
func (r *Reader) ReadCodeJSON(env resdir.Resolver) (string, error) {
	return r.Read(env, Codes)
}

// Read resolves the resource directory and returns the full text of asset.
// The content is not parsed or validated beyond being UTF-8.
func (r *Reader) Read(env resdir.Resolver, asset Asset) (string, error) {
	rel, err := validation.SanitizeAssetPath(asset.Path)
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidAssetPath, "invalid asset path", err).
			WithContext("asset", asset.Name)
	}

	dir, err := env.ResourceDir()
	if err != nil {
		return "", errors.NewResourceDirError("unable to resolve resource directory", err).
			WithContext("asset", asset.Name)
	}

	path := filepath.Join(dir, filepath.FromSlash(rel))
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return "", errors.NewFileSystemError(errors.ClassifyFileError(err), "failed to read asset", err).
			WithContext("asset", asset.Name).
			WithContext("path", path)
	}

	if !utf8.Valid(data) {
		return "", errors.NewEncodingError("stream did not contain valid UTF-8").
			WithContext("asset", asset.Name).
			WithContext("path", path)
	}

	return string(data), nil
}
