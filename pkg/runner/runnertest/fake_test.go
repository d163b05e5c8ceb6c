// pkg/runner/runnertest/fake_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test the scripted runner used by the installer tests

package runnertest_test

import (
	"context"
	"os"
	"testing"

	"github.com/arthur-debert/bonsetup/pkg/runner"
	"github.com/arthur-debert/bonsetup/pkg/runner/runnertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeQueuesAndStickyLastResponse(t *testing.T) {
	ctx := context.Background()
	fake := runnertest.New().
		On("rustup show active-toolchain", runnertest.Missing(), runnertest.OK("nightly-2017-06-14\n"))

	cmd := runner.Cmd("rustup", "show", "active-toolchain")
	assert.Equal(t, runner.ToolNotFound, fake.Run(ctx, cmd).Kind)
	assert.Equal(t, "nightly-2017-06-14\n", fake.Run(ctx, cmd).Stdout)
	assert.Equal(t, "nightly-2017-06-14\n", fake.Run(ctx, cmd).Stdout)
	assert.Equal(t, 3, fake.Count("rustup show active-toolchain"))
	assert.Equal(t, 3, fake.CountTool("rustup"))
}

func TestFakeUnscriptedSucceedsAndRecordsCwd(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	fake := runnertest.New()
	result := fake.Run(context.Background(), runner.Cmd("mvn", "package"))

	assert.True(t, result.OK())
	assert.Equal(t, "mvn package", result.Command.String())
	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, cwd, calls[0].Cwd)
}

func TestFakePipeAndEffects(t *testing.T) {
	installed := false
	fake := runnertest.New().
		On("curl -sSf https://sh.rustup.rs | sh", runnertest.Exit(1, "offline")).
		Then("cargo install bonsai", func() { installed = true })

	ctx := context.Background()
	result := fake.Pipe(ctx, runner.Cmd("curl", "-sSf", "https://sh.rustup.rs"), runner.Cmd("sh"))
	assert.Equal(t, runner.NonZeroExit, result.Kind)
	assert.Equal(t, "offline", result.Stderr)

	fake.Run(ctx, runner.Cmd("cargo", "install", "bonsai"))
	assert.True(t, installed)
}

func TestFakePipeProducerFailure(t *testing.T) {
	fake := runnertest.New().On("curl -sSf https://sh.rustup.rs", runnertest.Missing())

	result := fake.Pipe(context.Background(), runner.Cmd("curl", "-sSf", "https://sh.rustup.rs"), runner.Cmd("sh"))

	assert.Equal(t, runner.ToolNotFound, result.Kind)
	assert.Equal(t, "curl", result.Command.Name)
	assert.Equal(t, 1, fake.CountTool("curl"))
	assert.Zero(t, fake.CountTool("sh"))
}
