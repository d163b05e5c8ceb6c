// Package console renders bonsetup results for people: styled for
// terminals, or plain text when output is piped or NO_COLOR is set.
package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/arthur-debert/bonsetup/pkg/chain"
	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/host"
	"github.com/arthur-debert/bonsetup/pkg/journal"
	"github.com/arthur-debert/bonsetup/pkg/profiles"
	"github.com/arthur-debert/bonsetup/pkg/step"
	"github.com/arthur-debert/bonsetup/pkg/ui/styles"
)

// Renderer writes human readable output
type Renderer struct {
	output io.Writer
	plain  bool
}

// New creates a console renderer. With plain set no styling is applied.
func New(w io.Writer, plain bool) *Renderer {
	return &Renderer{output: w, plain: plain}
}

func (r *Renderer) style(name, s string) string {
	if r.plain {
		return s
	}
	return styles.GetStyle(name).Render(s)
}

// column pads a step name so statuses line up in both modes
func (r *Renderer) column(s string) string {
	if r.plain {
		return fmt.Sprintf("%-14s", s)
	}
	return styles.GetStyle("Step").Render(s)
}

func (r *Renderer) printf(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(r.output, format, args...)
	return err
}

// RenderResult renders any of the bonsetup result types
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case chain.Report:
		return r.renderReport(v)
	case *chain.Report:
		return r.renderReport(*v)
	case []chain.Presence:
		return r.renderPresence(v)
	case host.Profile:
		return r.renderHost(v)
	case []profiles.Profile:
		return r.renderProfiles(v)
	case profiles.Profile:
		return r.renderProfile(v)
	case []journal.Run:
		return r.renderHistory(v)
	case string:
		return r.RenderMessage(v)
	default:
		return r.printf("%+v\n", result)
	}
}

// RenderError renders an error with its code when it has one
func (r *Renderer) RenderError(err error) error {
	code := errors.GetErrorCode(err)
	if code == errors.ErrUnknown {
		return r.printf("%s %v\n", r.style("Error", "Error:"), err)
	}
	return r.printf("%s %v\n", r.style("Error", fmt.Sprintf("Error (%s):", code)), err)
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	return r.printf("%s\n", strings.TrimRight(msg, "\n"))
}

func (r *Renderer) statusStyle(o step.Outcome) (string, string) {
	if o.DryRun {
		return "Info", "would install"
	}
	switch o.Status {
	case step.StatusAlreadySatisfied, step.StatusInstalled:
		return "Success", o.Status.Label()
	case step.StatusDeclined, step.StatusFailedRecoverable:
		return "Warning", o.Status.Label()
	case step.StatusFailedFatal:
		return "Error", o.Status.Label()
	}
	return "Muted", o.Status.Label()
}

func (r *Renderer) renderReport(report chain.Report) error {
	title := fmt.Sprintf("Bonsai environment ready (profile %s)", report.Profile)
	if !report.Succeeded() {
		title = fmt.Sprintf("Installation stopped (profile %s)", report.Profile)
	}
	if report.DryRun {
		title += " [dry run]"
	}
	if err := r.printf("%s\n", r.style("Header", title)); err != nil {
		return err
	}

	for _, o := range report.Outcomes {
		styleName, label := r.statusStyle(o)
		line := r.column(o.Step) + " " + r.style(styleName, label)
		if o.Version != "" {
			line += " " + r.style("Version", o.Version)
		}
		if err := r.printf("  %s\n", line); err != nil {
			return err
		}
		if o.DryRun && o.Detail != "" {
			if err := r.printf("    %s\n", r.style("Muted", o.Detail)); err != nil {
				return err
			}
		}
	}

	for _, note := range report.Notes {
		if err := r.printf("%s %s\n", r.style("Note", "Note:"), note); err != nil {
			return err
		}
	}
	if report.Err != nil {
		return r.RenderError(report.Err)
	}
	return nil
}

func (r *Renderer) renderPresence(list []chain.Presence) error {
	for _, p := range list {
		styleName := "Warning"
		switch p.State {
		case "present":
			styleName = "Success"
		case "indeterminate":
			styleName = "Error"
		}
		line := r.column(p.Stage) + " " + r.style(styleName, p.State)
		if p.Err != nil {
			line += " " + r.style("Muted", p.Err.Error())
		}
		if err := r.printf("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderHost(h host.Profile) error {
	rows := [][2]string{
		{"family", h.Family},
		{"startup file", h.StartupFile},
		{"library var", h.LibraryPathVar},
	}
	for _, row := range rows {
		value := row[1]
		if value == "" {
			value = r.style("Muted", "(unknown)")
		}
		if err := r.printf("%s %s\n", r.column(row[0]), value); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderProfiles(list []profiles.Profile) error {
	for _, p := range list {
		if err := r.printf("%s %s\n", r.column(p.Name), p.Description); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderProfile(p profiles.Profile) error {
	if err := r.printf("%s\n", r.style("Header", "Profile "+p.Name)); err != nil {
		return err
	}
	if p.Description != "" {
		if err := r.printf("%s\n", p.Description); err != nil {
			return err
		}
	}
	envPatch := "no"
	if p.EnvPatch {
		envPatch = "yes"
	}
	rows := [][2]string{
		{"toolchain", p.Toolchain},
		{"compiler", p.Compiler.Repository},
		{"env patch", envPatch},
	}
	for _, row := range rows {
		if err := r.printf("%s %s\n", r.column(row[0]), row[1]); err != nil {
			return err
		}
	}
	for _, lib := range p.Libraries {
		origin := "built from " + lib.Source
		if lib.Upstream() {
			origin = "fetched from " + lib.URL
		}
		coords := fmt.Sprintf("%s:%s:%s", lib.Group, lib.Artifact, lib.Version)
		if err := r.printf("  %s %s %s\n", r.column(lib.Name), r.style("Version", coords), origin); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderHistory(runs []journal.Run) error {
	if len(runs) == 0 {
		return r.RenderMessage("No recorded runs.")
	}
	for _, run := range runs {
		styleName, state := "Success", "ok"
		if run.ExitCode != 0 {
			styleName, state = "Error", fmt.Sprintf("exit %d", run.ExitCode)
		}
		if run.DryRun {
			state += " (dry run)"
		}
		line := fmt.Sprintf("#%-4d %s %-4s %s %s",
			run.ID,
			run.Started.Local().Format(time.DateTime),
			run.Profile,
			r.style(styleName, state),
			r.style("Muted", run.Duration.Round(time.Millisecond).String()),
		)
		if err := r.printf("%s\n", line); err != nil {
			return err
		}
		if run.Error != "" {
			if err := r.printf("      %s\n", r.style("Muted", run.Error)); err != nil {
				return err
			}
		}
	}
	return nil
}
