// cmd/bonsetup/commands_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Scripted runner, temp XDG dirs and HOME, built-in profiles
// PURPOSE: Test the commands end to end without touching the real machine

package bonsetup

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/host"
	"github.com/arthur-debert/bonsetup/pkg/paths"
	"github.com/arthur-debert/bonsetup/pkg/runner/runnertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	fake   *runnertest.Fake
	in     *strings.Reader
	out    *bytes.Buffer
	errOut *bytes.Buffer
	state  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(paths.EnvStateDir, filepath.Join(home, "state"))
	t.Setenv(paths.EnvCacheDir, filepath.Join(home, "cache"))
	t.Setenv(paths.EnvConfigDir, filepath.Join(home, "config"))
	t.Setenv(paths.EnvSourceRoot, t.TempDir())
	t.Setenv("NO_COLOR", "1")

	return &harness{
		fake:   runnertest.New(),
		in:     strings.NewReader(""),
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		state:  filepath.Join(home, "state"),
	}
}

func (h *harness) run(args ...string) error {
	cmd := newRootCmd(environment{
		runner: h.fake,
		in:     h.in,
		out:    h.out,
		errOut: h.errOut,
		host:   func() host.Profile { return host.ProbeOS("linux") },
	})
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestProfilesCommandJSON(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("profiles", "--format", "json"))

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "v1", list[0]["name"])
	assert.Equal(t, "nightly-2017-06-14", list[2]["toolchain"])
}

func TestProfilesCommandSingle(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("profiles", "latest", "--format", "text"))
	assert.Contains(t, h.out.String(), "Profile v3")

	err := h.run("profiles", "v9")
	assert.True(t, errors.IsErrorCode(err, errors.ErrProfileNotFound))
}

func TestHostCommand(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("host", "--format", "text"))
	assert.Contains(t, h.out.String(), "LD_LIBRARY_PATH")
	assert.Contains(t, h.out.String(), "~/.bashrc")
}

func TestInstallDryRunRecordsHistory(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("install", "--profile", "v2", "--dry-run", "--format", "json"))

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &report))
	assert.Equal(t, "v2", report["profile"])
	assert.Equal(t, true, report["dryRun"])
	assert.Equal(t, float64(0), report["exitCode"])

	assert.Zero(t, h.fake.CountTool("cargo"))
	assert.Zero(t, h.fake.CountTool("mvn"))
	assert.Zero(t, h.fake.CountTool("curl"))
	assert.Zero(t, h.fake.Count("rustup override add nightly-2017-01-16"))

	h.out.Reset()
	require.NoError(t, h.run("history", "--format", "json"))

	var runs []map[string]interface{}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "v2", runs[0]["profile"])
	assert.Equal(t, true, runs[0]["dryRun"])
}

func TestInstallManualBootstrapExitsTwo(t *testing.T) {
	h := newHarness(t)
	h.fake.On("rustup show active-toolchain", runnertest.Missing())
	h.fake.On("rustup override add nightly-2017-01-16", runnertest.Missing())

	err := h.run("install", "--profile", "v2", "--format", "text")
	require.Error(t, err)

	var reported *ReportedError
	assert.True(t, stderrors.As(err, &reported))
	assert.Equal(t, 2, errors.ExitCode(err))
	assert.True(t, errors.IsErrorCode(err, errors.ErrManualAction))

	assert.Contains(t, h.errOut.String(), "Installing rustup")
	assert.Contains(t, h.out.String(), "Installation stopped (profile v2)")
	assert.Zero(t, h.fake.CountTool("cargo"))
	assert.Zero(t, h.fake.CountTool("sh"))
}

func TestInstallRemoteScriptFlag(t *testing.T) {
	h := newHarness(t)
	h.fake.On("rustup show active-toolchain",
		runnertest.Missing(),
		runnertest.OK("nightly-2017-01-16-x86_64-unknown-linux-gnu (directory override)\n"))
	h.fake.On("rustup override add nightly-2017-01-16", runnertest.Missing(), runnertest.OK(""))

	// the scripted mvn never writes the jar, so the SugarCubes step fails verification
	err := h.run("install", "--profile", "v2", "--allow-remote-script", "--format", "text")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrVerifyFailed))

	assert.Equal(t, 1, h.fake.Count("sh -s -- -y --default-toolchain none"))
	assert.Equal(t, 2, h.fake.Count("rustup override add nightly-2017-01-16"))
	assert.NotContains(t, h.errOut.String(), "Installing rustup")
	assert.Contains(t, h.out.String(), "toolchain      installed")
}

func TestCheckReportsMissing(t *testing.T) {
	h := newHarness(t)
	h.fake.On("rustup show active-toolchain", runnertest.Missing())

	err := h.run("check", "--profile", "v2", "--format", "text")
	require.Error(t, err)
	assert.Equal(t, 1, errors.ExitCode(err))
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	out := h.out.String()
	assert.Contains(t, out, "toolchain")
	assert.Contains(t, out, "absent")
	assert.Contains(t, out, "compiler")
	assert.Contains(t, out, "present")
	assert.Zero(t, h.fake.CountTool("cargo"))
}

func TestConfigCommand(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("config", "--profile", "v1"))
	assert.Contains(t, h.out.String(), `profile = "v1"`)

	h.out.Reset()
	require.NoError(t, h.run("config", "--template"))
	assert.Contains(t, h.out.String(), `# profile = "latest"`)
}

func TestConfigRejectsBadFormat(t *testing.T) {
	h := newHarness(t)

	err := h.run("host", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfigInvalid, errors.GetErrorCode(err))
}

func TestGuideCommand(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("guide", "--format", "text"))
	assert.Contains(t, h.out.String(), "rustup")

	h.out.Reset()
	require.NoError(t, h.run("guide", "maven", "--format", "text"))
	assert.Contains(t, h.out.String(), "Maven")

	err := h.run("guide", "nope")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("version", "--format", "json"))

	var info map[string]string
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &info))
	assert.Equal(t, "dev", info["version"])
}

func TestNoCommand(t *testing.T) {
	h := newHarness(t)

	err := h.run()
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}
