// Package compiler installs the bonsai compiler with cargo.
package compiler

import (
	"context"
	"os"
	"path/filepath"

	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/arthur-debert/bonsetup/pkg/probe"
	"github.com/arthur-debert/bonsetup/pkg/runner"
	"github.com/arthur-debert/bonsetup/pkg/step"
)

// StepName identifies the compiler step in reports
const StepName = "compiler"

// DefaultBinary is the installed compiler's executable name
const DefaultBinary = "bonsai"

// Spec describes where the compiler comes from
type Spec struct {
	// Binary is checked for presence; defaults to DefaultBinary
	Binary string

	// SourceDir holds a local checkout with a Cargo.toml
	SourceDir string

	// Repository is the git URL used when no local checkout is available
	Repository string

	// ForceLocal reinstalls from SourceDir on every run when it exists
	ForceLocal bool
}

// Layer installs the compiler
type Layer struct {
	installer *step.Installer
}

// New creates a compiler layer
func New(installer *step.Installer) *Layer {
	return &Layer{installer: installer}
}

// Probe checks that the compiler can be started
func (l *Layer) Probe(spec Spec) probe.Prober {
	return probe.CommandProbe{
		Runner:  l.installer.Runner(),
		Command: runner.Cmd(binary(spec), "-h"),
	}
}

// DependencySpec builds the step for spec
func (l *Layer) DependencySpec(spec Spec) step.DependencySpec {
	p := l.Probe(spec)
	dep := step.DependencySpec{
		Name:     StepName,
		Presence: p,
		Verify:   p,
		Hints: map[string]string{
			"cargo": "cargo is missing; it ships with rustup, reinstall it (see `bonsetup guide rustup`)",
		},
	}

	if spec.ForceLocal && hasLocalCheckout(spec.SourceDir) {
		dep.Force = true
		dep.Version = "local"
		dep.Install = []runner.Command{
			runner.Cmd("cargo", "install", "--force", "--path", spec.SourceDir).Streaming(),
		}
		return dep
	}

	if hasLocalCheckout(spec.SourceDir) {
		dep.Version = "local"
		dep.Install = []runner.Command{
			runner.Cmd("cargo", "install", "--path", spec.SourceDir).Streaming(),
		}
		return dep
	}

	dep.Version = spec.Repository
	dep.Install = []runner.Command{
		runner.Cmd("cargo", "install", "--git", spec.Repository).Streaming(),
	}
	return dep
}

// Ensure installs the compiler when it is missing, or always when a forced
// local rebuild is configured and the checkout exists
func (l *Layer) Ensure(ctx context.Context, spec Spec) step.Outcome {
	dep := l.DependencySpec(spec)
	logger := logging.GetLogger("compiler")
	logger.Debug().
		Bool("force", dep.Force).
		Str("source", dep.Version).
		Msg("Compiler source selected")
	return l.installer.Run(ctx, dep)
}

func binary(spec Spec) string {
	if spec.Binary != "" {
		return spec.Binary
	}
	return DefaultBinary
}

func hasLocalCheckout(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, "Cargo.toml"))
	return err == nil && !info.IsDir()
}
