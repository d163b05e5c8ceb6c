// pkg/paths/paths_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Environment variables, temp directories
// PURPOSE: Test source root resolution, XDG overrides and home expansion

package paths_test

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/bonsetup/pkg/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "bare tilde", in: "~", want: "/home/tester"},
		{name: "tilde slash", in: "~/.bashrc", want: "/home/tester/.bashrc"},
		{name: "other user untouched", in: "~root/.bashrc", want: "~root/.bashrc"},
		{name: "absolute untouched", in: "/etc/profile", want: "/etc/profile"},
		{name: "relative untouched", in: "runtime", want: "runtime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paths.ExpandHome(tt.in))
		})
	}
}

func TestNew_ExplicitSourceRoot(t *testing.T) {
	root := t.TempDir()
	state := t.TempDir()
	cache := t.TempDir()
	config := t.TempDir()
	t.Setenv(paths.EnvStateDir, state)
	t.Setenv(paths.EnvCacheDir, cache)
	t.Setenv(paths.EnvConfigDir, config)

	p, err := paths.New(root)
	require.NoError(t, err)

	assert.Equal(t, root, p.SourceRoot())
	assert.False(t, p.UsedFallback())
	assert.Equal(t, filepath.Join(state, "bonsetup.log"), p.LogFilePath())
	assert.Equal(t, filepath.Join(state, "history.db"), p.JournalPath())
	assert.Equal(t, filepath.Join(cache, "downloads", "SugarCubes.jar"), p.DownloadPath("SugarCubes.jar"))
	assert.Equal(t, filepath.Join(config, "config.toml"), p.ConfigFilePath())
	assert.Equal(t, filepath.Join(root, "bonsetup.toml"), p.ProjectConfigPath())
}

func TestNew_SourceRootFromEnvironment(t *testing.T) {
	root := t.TempDir()
	t.Setenv(paths.EnvSourceRoot, root)

	p, err := paths.New("")
	require.NoError(t, err)

	assert.Equal(t, root, p.SourceRoot())
	assert.False(t, p.UsedFallback())
}

func TestSourcePath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	root := t.TempDir()

	p, err := paths.New(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "runtime"), p.SourcePath("runtime"))
	assert.Equal(t, "/opt/libstd", p.SourcePath("/opt/libstd"))
	assert.Equal(t, "/home/tester/src/bonsai", p.SourcePath("~/src/bonsai"))
}
