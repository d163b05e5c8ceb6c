// pkg/chain/scenario_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Scripted runner, built-in profiles, temp source tree and Maven repository
// PURPOSE: Test whole runs of the built-in profiles against simulated machines

package chain_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/bonsetup/pkg/artifact"
	"github.com/arthur-debert/bonsetup/pkg/chain"
	"github.com/arthur-debert/bonsetup/pkg/compiler"
	"github.com/arthur-debert/bonsetup/pkg/envpatch"
	"github.com/arthur-debert/bonsetup/pkg/host"
	"github.com/arthur-debert/bonsetup/pkg/profiles"
	"github.com/arthur-debert/bonsetup/pkg/prompt"
	"github.com/arthur-debert/bonsetup/pkg/runner/runnertest"
	"github.com/arthur-debert/bonsetup/pkg/step"
	"github.com/arthur-debert/bonsetup/pkg/toolchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type machine struct {
	fake *runnertest.Fake
	root string
	repo string
}

func newMachine(t *testing.T) *machine {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return &machine{fake: runnertest.New(), root: root, repo: t.TempDir()}
}

func (m *machine) register(t *testing.T, c artifact.Coordinates) {
	t.Helper()
	jar := c.RepositoryPath(m.repo)
	require.NoError(t, os.MkdirAll(filepath.Dir(jar), 0755))
	require.NoError(t, os.WriteFile(jar, []byte("PK"), 0644))
}

func (m *machine) file(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(m.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (m *machine) chain(t *testing.T, profile string, bootstrap string) *chain.Chain {
	t.Helper()
	catalogue, err := profiles.Builtin()
	require.NoError(t, err)
	p, err := catalogue.Get(profile)
	require.NoError(t, err)

	installer := step.NewInstaller(m.fake, false)
	tc := toolchain.New(installer, toolchain.Options{Bootstrap: bootstrap, Prompter: &prompt.Scripted{}})
	layers := chain.Layers{
		Toolchain: tc,
		Compiler:  compiler.New(installer),
		Artifacts: artifact.New(installer, artifact.Options{
			LocalRepository: m.repo,
			DownloadPath:    func(name string) string { return filepath.Join(m.root, ".cache", name) },
		}),
		EnvPatch: envpatch.New(envpatch.Options{
			ToolchainDir: func(ctx context.Context) (string, error) { return tc.ResolveTarget(ctx, p.Toolchain) },
			Prompter:     &prompt.Scripted{Answers: []string{"y"}},
		}),
		Host: host.ProbeOS("linux"),
		SourcePath: func(rel string) string {
			return filepath.Join(m.root, rel)
		},
	}
	return chain.New(p.Name, false, chain.Plan(p, layers)...)
}

var (
	sugarCubes = artifact.Coordinates{Group: "inria.meije.rc", Artifact: "SugarCubes", Version: "4.0.0a5"}
	chocoCubes = artifact.Coordinates{Group: "bonsai", Artifact: "ChocoCubes", Version: "1.0"}
)

func TestScenarioEverythingPresent(t *testing.T) {
	m := newMachine(t)
	m.fake.On("rustup show active-toolchain", runnertest.OK("nightly-2017-01-16-x86_64-unknown-linux-gnu (directory override)\n"))
	m.fake.On("bonsai -h", runnertest.OK("usage: bonsai"))
	m.register(t, sugarCubes)
	m.register(t, chocoCubes)

	report := m.chain(t, "v2", toolchain.BootstrapManual).Run(context.Background())

	require.True(t, report.Succeeded(), report.Error())
	assert.Equal(t, 0, report.ExitCode())
	require.Len(t, report.Outcomes, 4)
	for _, o := range report.Outcomes {
		assert.Equal(t, step.StatusAlreadySatisfied, o.Status, o.Step)
	}
	assert.Equal(t, 0, m.fake.CountTool("cargo"))
	assert.Equal(t, 0, m.fake.CountTool("mvn"))
	assert.Equal(t, 0, m.fake.CountTool("curl"))
	assert.Equal(t, 0, m.fake.Count("rustup override add nightly-2017-01-16"))
}

func TestScenarioRustupBootstrappedByScript(t *testing.T) {
	m := newMachine(t)
	m.fake.On("rustup show active-toolchain", runnertest.Missing(), runnertest.OK("nightly-2017-01-16-x86_64-unknown-linux-gnu\n"))
	m.fake.On("rustup override add nightly-2017-01-16", runnertest.Missing(), runnertest.OK(""))
	m.fake.On("bonsai -h", runnertest.OK("usage: bonsai"))
	m.register(t, sugarCubes)
	m.register(t, chocoCubes)

	report := m.chain(t, "v2", toolchain.BootstrapScript).Run(context.Background())

	require.True(t, report.Succeeded(), report.Error())
	assert.Equal(t, 0, report.ExitCode())
	assert.Equal(t, 1, m.fake.CountTool("sh"), "rustup installer piped to sh exactly once")
	assert.Equal(t, 2, m.fake.Count("rustup override add nightly-2017-01-16"))
	assert.Equal(t, step.StatusInstalled, report.Outcomes[0].Status)
}

func TestScenarioRustupMissingManualPolicy(t *testing.T) {
	m := newMachine(t)
	m.fake.On("rustup show active-toolchain", runnertest.Missing())
	m.fake.On("rustup override add nightly-2017-06-14", runnertest.Missing())

	report := m.chain(t, "v3", toolchain.BootstrapManual).Run(context.Background())

	assert.Equal(t, 2, report.ExitCode())
	assert.Len(t, report.Outcomes, 1)
	assert.Equal(t, 0, m.fake.CountTool("sh"))
	assert.Equal(t, 0, m.fake.Count("bonsai -h"))
}

func TestScenarioRuntimePackagingFails(t *testing.T) {
	m := newMachine(t)
	m.file(t, "Cargo.toml", "[package]\nname = \"bonsai\"\n")
	m.file(t, "runtime/pom.xml", "<project><groupId>bonsai</groupId><artifactId>runtime</artifactId><version>1.0</version></project>")
	m.file(t, "libstd/pom.xml", "<project><groupId>bonsai</groupId><artifactId>libstd</artifactId><version>1.0</version></project>")
	m.register(t, sugarCubes)

	m.fake.On("rustup show active-toolchain", runnertest.OK("nightly-2017-06-14-x86_64-unknown-linux-gnu\n"))
	m.fake.On("bonsai -h", runnertest.OK("usage: bonsai"))
	m.fake.On("mvn package -quiet --fail-fast", runnertest.Exit(1, "[ERROR] runtime/src/main/java/Process.java:[12,5] cannot find symbol"))

	start, err := os.Getwd()
	require.NoError(t, err)

	report := m.chain(t, "v3", toolchain.BootstrapManual).Run(context.Background())

	assert.Equal(t, 1, report.ExitCode())
	assert.Contains(t, report.Error(), "cannot find symbol")
	assert.Equal(t, 1, m.fake.Count("cargo install --force --path "+m.root))

	packages := 0
	for _, c := range m.fake.Calls() {
		if c.Command.String() == "mvn package -quiet --fail-fast" {
			packages++
			assert.Equal(t, filepath.Join(m.root, "runtime"), c.Cwd)
		}
	}
	assert.Equal(t, 1, packages, "libstd must never be packaged")

	last := report.Outcomes[len(report.Outcomes)-1]
	assert.Equal(t, "runtime", last.Step)
	assert.Equal(t, step.StatusFailedFatal, last.Status)

	now, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, now)
}

func TestScenarioFirstProfilePatchesShell(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	m := newMachine(t)
	m.fake.On("rustup show active-toolchain", runnertest.OK("nightly-2016-10-21-x86_64-unknown-linux-gnu\n"))
	m.fake.On("bonsai -h", runnertest.Missing(), runnertest.OK("usage"))
	m.fake.On("rustup target list", runnertest.OK("x86_64-unknown-linux-gnu (default)\n"))
	m.register(t, sugarCubes)
	m.register(t, chocoCubes)

	report := m.chain(t, "v1", toolchain.BootstrapManual).Run(context.Background())

	require.True(t, report.Succeeded(), report.Error())
	names := make([]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		names = append(names, o.Step)
	}
	assert.Equal(t, []string{"toolchain", "compiler", "env-patch", "SugarCubes", "ChocoCubes"}, names)
	assert.Equal(t, 1, m.fake.Count("cargo install --git https://github.com/ptal/bonsai"))

	data, err := os.ReadFile(filepath.Join(home, ".bashrc"))
	require.NoError(t, err)
	assert.Equal(t,
		"\nexport LD_LIBRARY_PATH=$LD_LIBRARY_PATH:~/.multirust/toolchains/nightly-2016-10-21-x86_64-unknown-linux-gnu/lib\n",
		string(data))
	assert.Len(t, report.Notes, 1)
}
