package resdir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func platform(goos, exe string, id string) *PlatformResolver {
	return &PlatformResolver{
		Identifier: id,
		goos:       goos,
		executable: func() (string, error) { return exe, nil },
	}
}

func TestPlatformResolver(t *testing.T) {
	tests := []struct {
		name string
		goos string
		exe  string
		want string
	}{
		{"darwin bundle", "darwin", "/Applications/Absence.app/Contents/MacOS/absence-desk", "/Applications/Absence.app/Contents/Resources"},
		{"darwin loose binary", "darwin", "/tmp/build/absence-desk", "/tmp/build"},
		{"linux system install", "linux", "/usr/bin/absence-desk", "/usr/lib/absence-desk"},
		{"linux portable", "linux", "/opt/absence/absence-desk", "/opt/absence"},
		{"other platforms use executable dir", "freebsd", "/usr/local/bin/absence-desk", "/usr/local/bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := platform(tt.goos, tt.exe, "absence-desk").ResourceDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestPlatformResolverFailures(t *testing.T) {
	t.Run("executable lookup failure", func(t *testing.T) {
		r := &PlatformResolver{
			goos:       "linux",
			executable: func() (string, error) { return "", errors.New("no proc") },
		}
		_, err := r.ResourceDir()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no proc")
	})

	t.Run("linux system install without identifier", func(t *testing.T) {
		_, err := platform("linux", "/usr/bin/absence-desk", "").ResourceDir()
		require.Error(t, err)
	})
}

func TestPlatformResolverFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	realDir := filepath.Join(dir, "real")
	require.NoError(t, os.MkdirAll(realDir, 0o755))
	realExe := filepath.Join(realDir, "absence-desk")
	require.NoError(t, os.WriteFile(realExe, []byte("bin"), 0o755))
	link := filepath.Join(dir, "link")
	if err := os.Symlink(realExe, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := platform("linux", link, "absence-desk").ResourceDir()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(realDir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStatic(t *testing.T) {
	t.Run("absolute path", func(t *testing.T) {
		dir := t.TempDir()
		got, err := Static(dir).ResourceDir()
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("relative path becomes absolute", func(t *testing.T) {
		got, err := Static("resources").ResourceDir()
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("empty path fails", func(t *testing.T) {
		_, err := Static("  ").ResourceDir()
		require.Error(t, err)
	})
}

func TestFunc(t *testing.T) {
	var calls int
	r := Func(func() (string, error) {
		calls++
		return "/res", nil
	})

	for i := 0; i < 3; i++ {
		dir, err := r.ResourceDir()
		require.NoError(t, err)
		assert.Equal(t, "/res", dir)
	}
	assert.Equal(t, 3, calls, "resolution is not cached")
}
