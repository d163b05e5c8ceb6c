// Package probe answers "is this dependency already here?" without changing
// anything on the machine.
package probe

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/arthur-debert/bonsetup/pkg/runner"
)

// Presence is the tri-state answer of a probe
type Presence int

const (
	// Absent means the dependency needs installing
	Absent Presence = iota
	// Present means the dependency is already satisfied
	Present
	// Indeterminate means the probe itself could not run
	Indeterminate
)

// String returns the string representation of the presence
func (p Presence) String() string {
	switch p {
	case Absent:
		return "absent"
	case Present:
		return "present"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Prober checks whether something is installed
type Prober interface {
	Check(ctx context.Context) (Presence, error)
	Describe() string
}

// CommandProbe runs a command with its output captured and discarded.
//
// By default a command that runs but exits non-zero still counts as Present:
// many tools print usage and fail on a bare invocation, and only
// reachability matters. RequireSuccess makes a non-zero exit count as Absent.
type CommandProbe struct {
	Runner         runner.Runner
	Command        runner.Command
	RequireSuccess bool

	// ExpectPrefix, when set, requires a stdout line starting with it
	ExpectPrefix string
}

// Check implements Prober
func (p CommandProbe) Check(ctx context.Context) (Presence, error) {
	logger := logging.GetLogger("probe.command")
	result := p.Runner.Run(ctx, p.Command)

	presence := Absent
	var err error
	switch result.Kind {
	case runner.ToolNotFound:
		presence = Absent
	case runner.SpawnFailed:
		presence = Indeterminate
		err = errors.Wrapf(result.AsError(p.Command), errors.ErrIndeterminate,
			"cannot tell whether `%s` is installed", p.Command.Name)
	case runner.NonZeroExit:
		if !p.RequireSuccess {
			presence = Present
		}
	case runner.Success:
		presence = Present
		if p.ExpectPrefix != "" && !hasLinePrefix(result.Stdout, p.ExpectPrefix) {
			presence = Absent
		}
	}

	logger.Debug().
		Str("probe", p.Describe()).
		Str("kind", result.Kind.String()).
		Str("presence", presence.String()).
		Msg("Presence checked")
	return presence, err
}

// Describe implements Prober
func (p CommandProbe) Describe() string {
	return p.Command.String()
}

func hasLinePrefix(output, prefix string) bool {
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			return true
		}
	}
	return false
}

// FileProbe reports Present when Path exists
type FileProbe struct {
	Path string
}

// Check implements Prober
func (p FileProbe) Check(_ context.Context) (Presence, error) {
	_, err := os.Stat(p.Path)
	switch {
	case err == nil:
		return Present, nil
	case os.IsNotExist(err):
		return Absent, nil
	default:
		return Indeterminate, errors.Wrapf(err, errors.ErrIndeterminate, "cannot inspect %s", p.Path)
	}
}

// Describe implements Prober
func (p FileProbe) Describe() string {
	return fmt.Sprintf("file %s", p.Path)
}
