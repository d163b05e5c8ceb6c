package console

import (
	"fmt"
	"io"

	"github.com/arthur-debert/bonsetup/pkg/step"
	"github.com/pterm/pterm"
)

// Progress prints one line per finished stage while a chain runs. It
// implements chain.Observer.
type Progress struct {
	output io.Writer
	plain  bool
}

// NewProgress creates a progress printer
func NewProgress(w io.Writer, plain bool) *Progress {
	return &Progress{output: w, plain: plain}
}

// StageStarted announces a stage
func (p *Progress) StageStarted(name string) {
	if p.plain {
		fmt.Fprintf(p.output, "-> %s\n", name)
		return
	}
	fmt.Fprintf(p.output, "%s %s\n", pterm.Info.Prefix.Text, pterm.Bold.Sprint(name))
}

// StageFinished prints the stage status as a badge
func (p *Progress) StageFinished(o step.Outcome) {
	label := o.Status.Label()
	if o.DryRun {
		label = "would install"
	}
	if p.plain {
		fmt.Fprintf(p.output, "   %s: %s\n", o.Step, label)
		return
	}
	fmt.Fprintf(p.output, "   %s %s\n", badge(o).Sprintf(" %s ", label), o.Step)
}

func badge(o step.Outcome) *pterm.Style {
	if o.DryRun {
		return pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	}
	switch o.Status {
	case step.StatusAlreadySatisfied, step.StatusInstalled:
		return pterm.NewStyle(pterm.BgGreen, pterm.FgWhite)
	case step.StatusFailedFatal:
		return pterm.NewStyle(pterm.BgRed, pterm.FgWhite, pterm.Bold)
	case step.StatusFailedRecoverable, step.StatusDeclined:
		return pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	}
	return pterm.NewStyle(pterm.FgGray)
}
