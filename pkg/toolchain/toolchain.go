// Package toolchain pins the nightly Rust toolchain the Bonsai compiler is
// built with.
package toolchain

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/guide"
	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/arthur-debert/bonsetup/pkg/probe"
	"github.com/arthur-debert/bonsetup/pkg/prompt"
	"github.com/arthur-debert/bonsetup/pkg/runner"
	"github.com/arthur-debert/bonsetup/pkg/step"
)

// Bootstrap policies for a missing rustup
const (
	// BootstrapManual shows the installation guide and stops
	BootstrapManual = "manual"
	// BootstrapScript downloads the rustup installer and pipes it to sh
	BootstrapScript = "script"
)

// DefaultBootstrapURL is the rustup installer location
const DefaultBootstrapURL = "https://sh.rustup.rs"

// StepName identifies the toolchain step in reports
const StepName = "toolchain"

// Options configures the layer
type Options struct {
	// Bootstrap is BootstrapManual or BootstrapScript
	Bootstrap    string
	BootstrapURL string

	// Guide receives the rendered installation guide under the manual policy
	Guide    io.Writer
	Renderer guide.Renderer

	Prompter prompt.Prompter
}

// Layer ensures the pinned toolchain is the active one
type Layer struct {
	installer *step.Installer
	opts      Options
}

// New creates a toolchain layer
func New(installer *step.Installer, opts Options) *Layer {
	if opts.Bootstrap == "" {
		opts.Bootstrap = BootstrapManual
	}
	if opts.BootstrapURL == "" {
		opts.BootstrapURL = DefaultBootstrapURL
	}
	if opts.Guide == nil {
		opts.Guide = io.Discard
	}
	return &Layer{installer: installer, opts: opts}
}

// Probe checks that version is the active toolchain
func (l *Layer) Probe(version string) probe.Prober {
	return probe.CommandProbe{
		Runner:         l.installer.Runner(),
		Command:        runner.Cmd("rustup", "show", "active-toolchain"),
		RequireSuccess: true,
		ExpectPrefix:   version,
	}
}

// Spec describes pinning version
func (l *Layer) Spec(version string) step.DependencySpec {
	p := l.Probe(version)
	return step.DependencySpec{
		Name:     StepName,
		Version:  version,
		Presence: p,
		Install:  []runner.Command{runner.Cmd("rustup", "override", "add", version).Streaming()},
		Fallback: step.FallbackFunc(l.bootstrap),
		Verify:   p,
		Hints: map[string]string{
			"rustup": "rustup is required, see https://rustup.rs or `bonsetup guide rustup`",
		},
	}
}

// Ensure pins version, installing rustup first according to the bootstrap
// policy when it is missing
func (l *Layer) Ensure(ctx context.Context, version string) step.Outcome {
	return l.installer.Run(ctx, l.Spec(version))
}

func (l *Layer) bootstrap(ctx context.Context) error {
	logger := logging.GetLogger("toolchain.bootstrap")

	switch l.opts.Bootstrap {
	case BootstrapScript:
		logger.Warn().Str("url", l.opts.BootstrapURL).Msg("Running remote rustup installer")
		fetch := runner.Cmd("curl", "--proto", "=https", "--tlsv1.2", "-sSf", l.opts.BootstrapURL)
		install := runner.Cmd("sh", "-s", "--", "-y", "--default-toolchain", "none").Streaming()
		result := l.installer.Runner().Pipe(ctx, fetch, install)
		if !result.OK() {
			return errors.Wrap(result.Failure(), errors.ErrNonZeroExit,
				"rustup bootstrap failed")
		}
		return nil

	default:
		rendered, err := guide.Render(guide.Rustup, l.opts.Renderer)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(l.opts.Guide, rendered)
		logger.Info().Msg("rustup missing, manual installation required")
		return errors.New(errors.ErrManualAction,
			"rustup is not installed; install it as described above and run bonsetup again")
	}
}

// DefaultTarget returns the host target rustup marks as default, or "" when
// no line carries the marker
func (l *Layer) DefaultTarget(ctx context.Context) (string, error) {
	cmd := runner.Cmd("rustup", "target", "list")
	result := l.installer.Runner().Run(ctx, cmd)
	if !result.OK() {
		return "", result.AsError(cmd)
	}
	return parseDefaultTarget(result.Stdout), nil
}

func parseDefaultTarget(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasSuffix(line, "(default)") {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// ResolveTarget returns the directory name of version's toolchain under the
// rustup toolchains dir: "<version>-<target>". Without a default target the
// operator is asked for the directory name, which is used verbatim. An empty
// answer is an unresolved setting, never a guess.
func (l *Layer) ResolveTarget(ctx context.Context, version string) (string, error) {
	logger := logging.GetLogger("toolchain.target")

	target, err := l.DefaultTarget(ctx)
	if err != nil && !errors.IsErrorCode(err, errors.ErrNonZeroExit) {
		return "", err
	}
	if target != "" {
		dir := version + "-" + target
		logger.Debug().Str("dir", dir).Msg("Resolved toolchain directory")
		return dir, nil
	}
	logger.Warn().Err(err).Msg("No default target reported by rustup")

	if l.opts.Prompter == nil {
		return "", errors.New(errors.ErrUnresolvedConfig, "cannot determine the toolchain directory")
	}
	answer, askErr := l.opts.Prompter.Ask(
		fmt.Sprintf("Could not detect the host target. Name of the %s toolchain directory?", version))
	if askErr != nil {
		return "", askErr
	}
	if answer == "" {
		return "", errors.New(errors.ErrUnresolvedConfig, "no toolchain directory given").
			WithDetail("version", version)
	}
	return answer, nil
}
