// pkg/envpatch/envpatch_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Temp HOME directory, scripted prompts
// PURPOSE: Test consent handling and the append-once startup file patch

package envpatch_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/bonsetup/pkg/envpatch"
	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/host"
	"github.com/arthur-debert/bonsetup/pkg/prompt"
	"github.com/arthur-debert/bonsetup/pkg/step"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	original = "alias ll='ls -l'\n"
	line     = "export LD_LIBRARY_PATH=$LD_LIBRARY_PATH:~/.multirust/toolchains/nightly-2016-10-21-x86_64-unknown-linux-gnu/lib"
)

func fixedDir(context.Context) (string, error) {
	return "nightly-2016-10-21-x86_64-unknown-linux-gnu", nil
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	rc := filepath.Join(home, ".bashrc")
	require.NoError(t, os.WriteFile(rc, []byte(original), 0644))
	return rc
}

func TestLine(t *testing.T) {
	assert.Equal(t, line, envpatch.Line(host.ProbeOS("linux"), envpatch.DefaultToolchainsDir, "nightly-2016-10-21-x86_64-unknown-linux-gnu"))
	assert.Equal(t,
		"export DYLD_LIBRARY_PATH=$DYLD_LIBRARY_PATH:~/.multirust/toolchains/custom/lib",
		envpatch.Line(host.ProbeOS("darwin"), envpatch.DefaultToolchainsDir, "custom"))
}

func TestOfferConsent(t *testing.T) {
	for _, answer := range []string{"y", "Y", "yes", "YES", ""} {
		t.Run("answer "+answer, func(t *testing.T) {
			rc := setupHome(t)
			s := envpatch.New(envpatch.Options{
				ToolchainDir: fixedDir,
				Prompter:     &prompt.Scripted{Answers: []string{answer}},
			})

			outcome := s.Run(context.Background(), host.ProbeOS("linux"))

			assert.Equal(t, step.StatusInstalled, outcome.Status)
			assert.Contains(t, outcome.Note, "source ~/.bashrc")
			data, err := os.ReadFile(rc)
			require.NoError(t, err)
			assert.Equal(t, original+"\n"+line+"\n", string(data))
			assert.Equal(t, 1, strings.Count(string(data), line))
		})
	}
}

func TestOfferRefusal(t *testing.T) {
	for _, answer := range []string{"n", "no", "q", "yep"} {
		t.Run("answer "+answer, func(t *testing.T) {
			rc := setupHome(t)
			s := envpatch.New(envpatch.Options{
				ToolchainDir: fixedDir,
				Prompter:     &prompt.Scripted{Answers: []string{answer}},
			})

			outcome := s.Run(context.Background(), host.ProbeOS("linux"))

			assert.Equal(t, step.StatusDeclined, outcome.Status)
			assert.True(t, errors.IsErrorCode(outcome.Err, errors.ErrUserDeclined))
			data, err := os.ReadFile(rc)
			require.NoError(t, err)
			assert.Equal(t, original, string(data))
		})
	}
}

func TestOfferAlreadyPatchedDoesNotAsk(t *testing.T) {
	rc := setupHome(t)
	require.NoError(t, os.WriteFile(rc, []byte(original+"\n"+line+"\n"), 0644))
	asker := &prompt.Scripted{}
	s := envpatch.New(envpatch.Options{ToolchainDir: fixedDir, Prompter: asker})

	outcome := s.Run(context.Background(), host.ProbeOS("linux"))

	assert.Equal(t, step.StatusAlreadySatisfied, outcome.Status)
	assert.Empty(t, asker.Asked)
}

func TestOfferCreatesMissingStartupFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	s := envpatch.New(envpatch.Options{ToolchainDir: fixedDir, Prompter: &prompt.Scripted{Answers: []string{"y"}}})

	patch, err := s.Offer(context.Background(), host.ProbeOS("linux"))

	require.NoError(t, err)
	assert.True(t, patch.Applied)
	assert.FileExists(t, filepath.Join(home, ".bashrc"))
}

func TestOfferUnknownHost(t *testing.T) {
	s := envpatch.New(envpatch.Options{ToolchainDir: fixedDir, Prompter: &prompt.Scripted{}})

	outcome := s.Run(context.Background(), host.ProbeOS("windows"))

	assert.Equal(t, step.StatusFailedFatal, outcome.Status)
	assert.True(t, errors.IsErrorCode(outcome.Err, errors.ErrUnresolvedConfig))
}

func TestOfferUnresolvedToolchainDir(t *testing.T) {
	setupHome(t)
	s := envpatch.New(envpatch.Options{
		ToolchainDir: func(context.Context) (string, error) {
			return "", errors.New(errors.ErrUnresolvedConfig, "no toolchain directory given")
		},
		Prompter: &prompt.Scripted{},
	})

	outcome := s.Run(context.Background(), host.ProbeOS("linux"))

	assert.Equal(t, step.StatusFailedFatal, outcome.Status)
	assert.Equal(t, 2, errors.ExitCode(outcome.Err))
}

func TestOfferDryRun(t *testing.T) {
	rc := setupHome(t)
	asker := &prompt.Scripted{}
	s := envpatch.New(envpatch.Options{ToolchainDir: fixedDir, Prompter: asker, DryRun: true})

	outcome := s.Run(context.Background(), host.ProbeOS("linux"))

	assert.Equal(t, step.StatusInstalled, outcome.Status)
	assert.True(t, outcome.DryRun)
	assert.Empty(t, asker.Asked)
	data, err := os.ReadFile(rc)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}
