// pkg/compiler/compiler_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Scripted runner, temp directories
// PURPOSE: Test compiler source selection and idempotence

package compiler_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/bonsetup/pkg/compiler"
	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/runner/runnertest"
	"github.com/arthur-debert/bonsetup/pkg/step"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const repo = "https://github.com/ptal/bonsai"

func checkout(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nname = \"bonsai\"\n"), 0644))
	return dir
}

func TestEnsurePresentSkipsInstall(t *testing.T) {
	fake := runnertest.New().On("bonsai -h", runnertest.Exit(1, "usage: bonsai"))
	layer := compiler.New(step.NewInstaller(fake, false))

	outcome := layer.Ensure(context.Background(), compiler.Spec{Repository: repo})

	assert.Equal(t, step.StatusAlreadySatisfied, outcome.Status)
	assert.Equal(t, 0, fake.CountTool("cargo"))
}

func TestEnsureFromGitWhenAbsent(t *testing.T) {
	fake := runnertest.New().On("bonsai -h", runnertest.Missing(), runnertest.OK("usage"))
	layer := compiler.New(step.NewInstaller(fake, false))

	outcome := layer.Ensure(context.Background(), compiler.Spec{Repository: repo, SourceDir: t.TempDir()})

	assert.Equal(t, step.StatusInstalled, outcome.Status)
	assert.Equal(t, 1, fake.Count("cargo install --git "+repo))
}

func TestEnsureFromLocalCheckoutWhenAbsent(t *testing.T) {
	dir := checkout(t)
	fake := runnertest.New().On("bonsai -h", runnertest.Missing(), runnertest.OK("usage"))
	layer := compiler.New(step.NewInstaller(fake, false))

	outcome := layer.Ensure(context.Background(), compiler.Spec{Repository: repo, SourceDir: dir})

	assert.Equal(t, step.StatusInstalled, outcome.Status)
	assert.Equal(t, 1, fake.Count("cargo install --path "+dir))
}

func TestEnsureForceLocalAlwaysReinstalls(t *testing.T) {
	dir := checkout(t)
	fake := runnertest.New().On("bonsai -h", runnertest.OK("usage"))
	layer := compiler.New(step.NewInstaller(fake, false))

	outcome := layer.Ensure(context.Background(), compiler.Spec{Repository: repo, SourceDir: dir, ForceLocal: true})

	assert.Equal(t, step.StatusInstalled, outcome.Status)
	assert.Equal(t, 1, fake.Count("cargo install --force --path "+dir))
}

func TestEnsureForceLocalWithoutCheckoutFallsBackToGit(t *testing.T) {
	fake := runnertest.New().On("bonsai -h", runnertest.OK("usage"))
	layer := compiler.New(step.NewInstaller(fake, false))

	outcome := layer.Ensure(context.Background(), compiler.Spec{Repository: repo, SourceDir: t.TempDir(), ForceLocal: true})

	assert.Equal(t, step.StatusAlreadySatisfied, outcome.Status)
	assert.Equal(t, 0, fake.CountTool("cargo"))
}

func TestEnsureMissingCargoHint(t *testing.T) {
	fake := runnertest.New().
		On("bonsai -h", runnertest.Missing()).
		On("cargo install --git "+repo, runnertest.Missing())
	layer := compiler.New(step.NewInstaller(fake, false))

	outcome := layer.Ensure(context.Background(), compiler.Spec{Repository: repo})

	assert.Equal(t, step.StatusFailedFatal, outcome.Status)
	assert.True(t, errors.IsErrorCode(outcome.Err, errors.ErrToolNotFound))
	assert.Contains(t, outcome.Error(), "reinstall it")
}
