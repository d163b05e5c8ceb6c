// Package chain runs the installation stages in their fixed order and stops
// at the first fatal failure.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/arthur-debert/bonsetup/pkg/probe"
	"github.com/arthur-debert/bonsetup/pkg/step"
)

// Stage is one step of the chain
type Stage struct {
	Name string

	// Run drives the stage to an outcome
	Run func(ctx context.Context) step.Outcome

	// Check reports presence without installing; nil for stages that have
	// nothing to probe
	Check func(ctx context.Context) (probe.Presence, error)
}

// Report is the result of a chain run
type Report struct {
	Profile  string         `json:"profile"`
	DryRun   bool           `json:"dryRun"`
	Outcomes []step.Outcome `json:"outcomes"`
	Notes    []string       `json:"notes,omitempty"`
	Err      error          `json:"-"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
}

// MarshalJSON includes the fatal error message and exit code
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		plain
		Error    string `json:"error,omitempty"`
		ExitCode int    `json:"exitCode"`
	}{plain(r), r.Error(), r.ExitCode()})
}

// Succeeded reports whether no stage failed fatally
func (r Report) Succeeded() bool {
	return r.Err == nil
}

// ExitCode is the process exit status for the run
func (r Report) ExitCode() int {
	return errors.ExitCode(r.Err)
}

// Error returns the fatal error message, or an empty string
func (r Report) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Message is the closing text of a run: every step with its status, any
// notes, and the fatal error if there was one
func (r Report) Message() string {
	var b strings.Builder
	if r.Succeeded() {
		fmt.Fprintf(&b, "Bonsai environment ready (profile %s).\n", r.Profile)
	} else {
		fmt.Fprintf(&b, "Installation stopped (profile %s).\n", r.Profile)
	}
	for _, o := range r.Outcomes {
		label := o.Status.Label()
		if o.DryRun {
			label = "would install"
		}
		fmt.Fprintf(&b, "  %-12s %s\n", o.Step, label)
	}
	for _, note := range r.Notes {
		fmt.Fprintf(&b, "Note: %s\n", note)
	}
	if r.Err != nil {
		fmt.Fprintf(&b, "Error: %s\n", r.Err)
	}
	return b.String()
}

// Observer is told about stage progress, e.g. to draw status lines
type Observer interface {
	StageStarted(name string)
	StageFinished(outcome step.Outcome)
}

// Chain is an ordered list of stages
type Chain struct {
	profile  string
	dryRun   bool
	stages   []Stage
	observer Observer
}

// WithObserver sets the progress observer
func (c *Chain) WithObserver(o Observer) *Chain {
	c.observer = o
	return c
}

// New creates a chain over stages, run in the given order
func New(profile string, dryRun bool, stages ...Stage) *Chain {
	return &Chain{profile: profile, dryRun: dryRun, stages: stages}
}

// Stages returns the stages in run order
func (c *Chain) Stages() []Stage {
	return c.stages
}

// Run executes the stages in order. A fatal outcome ends the run and later
// stages are never invoked; recoverable failures and refusals continue.
func (c *Chain) Run(ctx context.Context) Report {
	logger := logging.GetLogger("chain")
	report := Report{Profile: c.profile, DryRun: c.dryRun, Started: time.Now()}

	for _, stage := range c.stages {
		if err := ctx.Err(); err != nil {
			report.Err = errors.Wrapf(err, errors.ErrInternal, "interrupted before %s", stage.Name)
			break
		}

		logger.Info().Str("stage", stage.Name).Msg("Stage started")
		if c.observer != nil {
			c.observer.StageStarted(stage.Name)
		}
		outcome := stage.Run(ctx)
		if outcome.Step == "" {
			outcome.Step = stage.Name
		}
		if c.observer != nil {
			c.observer.StageFinished(outcome)
		}
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Note != "" {
			report.Notes = append(report.Notes, outcome.Note)
		}

		if outcome.Status.IsFatal() {
			report.Err = outcome.Err
			if report.Err == nil {
				report.Err = errors.Newf(errors.ErrInternal, "%s failed", outcome.Step)
			}
			logger.Error().Err(report.Err).Str("stage", stage.Name).Msg("Chain halted")
			break
		}
	}

	report.Duration = time.Since(report.Started)
	return report
}

// Presence is the result of probing one stage
type Presence struct {
	Stage    string         `json:"stage"`
	Presence probe.Presence `json:"-"`
	State    string         `json:"presence"`
	Err      error          `json:"-"`
}

// Check probes every stage that can be probed, without installing anything
func (c *Chain) Check(ctx context.Context) []Presence {
	var out []Presence
	for _, stage := range c.stages {
		if stage.Check == nil {
			continue
		}
		p, err := stage.Check(ctx)
		out = append(out, Presence{Stage: stage.Name, Presence: p, State: p.String(), Err: err})
	}
	return out
}
