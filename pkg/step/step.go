// Package step runs one idempotent installation: check, install if needed,
// verify. Every dependency bonsetup manages goes through Installer.Run.
package step

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/arthur-debert/bonsetup/pkg/probe"
	"github.com/arthur-debert/bonsetup/pkg/runner"
	"github.com/rs/zerolog"
)

// Fallback makes a missing tool available, e.g. by installing it. It runs at
// most once per step.
type Fallback interface {
	Bootstrap(ctx context.Context) error
}

// FallbackFunc adapts a function to Fallback
type FallbackFunc func(ctx context.Context) error

// Bootstrap implements Fallback
func (f FallbackFunc) Bootstrap(ctx context.Context) error {
	return f(ctx)
}

// DependencySpec describes one dependency and how to install it
type DependencySpec struct {
	Name    string
	Version string

	// Presence decides whether installing is needed; nil means always install
	Presence probe.Prober

	// Install commands run in order; the first failure stops the step
	Install []runner.Command

	// Fallback runs when an install command's tool is missing
	Fallback Fallback

	// Verify is checked after installing; nil skips verification
	Verify probe.Prober

	Policy FailurePolicy

	// Force skips the presence check and always installs
	Force bool

	// Hints maps a tool name to advice shown when it is missing
	Hints map[string]string
}

// Outcome is the result of running one step
type Outcome struct {
	Step     string        `json:"step"`
	Version  string        `json:"version,omitempty"`
	Status   Status        `json:"status"`
	Err      error         `json:"-"`
	Detail   string        `json:"detail,omitempty"`
	Note     string        `json:"note,omitempty"`
	DryRun   bool          `json:"dryRun,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Error returns the error message, or an empty string
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// MarshalJSON includes the error message
func (o Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain(o), o.Error()})
}

// Installer runs dependency specs against a runner
type Installer struct {
	runner runner.Runner
	dryRun bool
	logger zerolog.Logger
}

// NewInstaller creates an installer. In dry-run mode presence is still
// checked but no install command is started.
func NewInstaller(r runner.Runner, dryRun bool) *Installer {
	return &Installer{
		runner: r,
		dryRun: dryRun,
		logger: logging.GetLogger("step.installer"),
	}
}

// Runner returns the runner install commands go through
func (in *Installer) Runner() runner.Runner {
	return in.runner
}

// DryRun reports whether install commands are skipped
func (in *Installer) DryRun() bool {
	return in.dryRun
}

// Run drives spec to a terminal outcome
func (in *Installer) Run(ctx context.Context, spec DependencySpec) Outcome {
	start := time.Now()
	logger := in.logger.With().Str("step", spec.Name).Str("version", spec.Version).Logger()
	done := logging.LogOperationStart(logger, "install "+spec.Name)
	defer done()

	outcome := in.run(ctx, spec, logger)
	outcome.Step = spec.Name
	outcome.Version = spec.Version
	outcome.Duration = time.Since(start)

	event := logger.Info()
	if outcome.Status.IsFailure() {
		event = logger.Error().Err(outcome.Err)
	}
	event.Str("status", outcome.Status.String()).Bool("dryRun", outcome.DryRun).Msg("Step finished")
	return outcome
}

func (in *Installer) run(ctx context.Context, spec DependencySpec, logger zerolog.Logger) Outcome {
	if !spec.Force && spec.Presence != nil {
		presence, err := spec.Presence.Check(ctx)
		switch presence {
		case probe.Present:
			return Outcome{Status: StatusAlreadySatisfied, Detail: spec.Presence.Describe()}
		case probe.Indeterminate:
			return Outcome{Status: spec.Policy.failedStatus(), Err: err}
		}
		logger.Debug().Str("probe", spec.Presence.Describe()).Msg("Dependency absent")
	}

	if in.dryRun {
		lines := make([]string, 0, len(spec.Install))
		for _, cmd := range spec.Install {
			logger.Info().Str("command", cmd.String()).Msg("Dry run: would execute")
			lines = append(lines, cmd.String())
		}
		return Outcome{Status: StatusInstalled, DryRun: true, Detail: strings.Join(lines, "; ")}
	}

	fallbackUsed := false
	for _, cmd := range spec.Install {
		result := in.runner.Run(ctx, cmd)

		if result.Kind == runner.ToolNotFound && spec.Fallback != nil && !fallbackUsed {
			fallbackUsed = true
			logger.Warn().Str("tool", cmd.Name).Msg("Tool missing, running fallback")
			if err := spec.Fallback.Bootstrap(ctx); err != nil {
				return Outcome{Status: spec.Policy.failedStatus(), Err: err}
			}
			result = in.runner.Run(ctx, cmd)
		}

		if !result.OK() {
			return Outcome{Status: spec.Policy.failedStatus(), Err: failure(spec, cmd, result)}
		}
	}

	if spec.Verify != nil {
		presence, err := spec.Verify.Check(ctx)
		if presence != probe.Present {
			if err == nil {
				err = errors.Newf(errors.ErrVerifyFailed, "%s is still missing after installation", spec.Name).
					WithDetail("probe", spec.Verify.Describe())
			}
			return Outcome{Status: spec.Policy.failedStatus(), Err: err}
		}
	}

	return Outcome{Status: StatusInstalled}
}

func failure(spec DependencySpec, cmd runner.Command, result runner.Result) error {
	err := result.AsError(cmd)
	if result.Kind == runner.ToolNotFound {
		if hint, ok := spec.Hints[cmd.Name]; ok {
			return errors.Wrap(err, errors.ErrToolNotFound, hint)
		}
	}
	return err
}
