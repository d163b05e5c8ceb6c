package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	setuperrors "github.com/arthur-debert/bonsetup/pkg/errors"
)

// Kind classifies the result of starting an external command
type Kind int

const (
	// Success means the command ran and exited zero
	Success Kind = iota
	// ToolNotFound means the executable could not be located
	ToolNotFound
	// SpawnFailed means the executable was found but could not be started
	SpawnFailed
	// NonZeroExit means the command ran and exited non-zero
	NonZeroExit
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ToolNotFound:
		return "tool-not-found"
	case SpawnFailed:
		return "spawn-failed"
	case NonZeroExit:
		return "non-zero-exit"
	default:
		return "unknown"
	}
}

// Classify maps the error returned by exec.Cmd.Run (or Start/Wait) to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return Success
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return NonZeroExit
	}

	// exec.LookPath failures wrap ErrNotFound; a missing absolute path
	// surfaces as an fs.PathError carrying ENOENT.
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return ToolNotFound
	}

	return SpawnFailed
}

// Command is an argument vector. It runs in the process's working directory
// and environment; workdir.Enter scopes a directory change.
type Command struct {
	Name string
	Args []string

	// Passthrough streams output to the operator while still capturing it
	Passthrough bool
}

// Cmd builds a Command from a name and arguments
func Cmd(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// Streaming returns a copy of the command whose output is shown to the operator
func (c Command) Streaming() Command {
	c.Passthrough = true
	return c
}

// String renders the command line for logs and messages
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result captures what happened when a command was run
type Result struct {
	// Command is the command the result belongs to. For a pipe it is the
	// side that failed, or the consumer on success.
	Command  Command
	Kind     Kind
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// OK reports whether the command exited zero
func (r Result) OK() bool {
	return r.Kind == Success
}

// Failure converts a failed result into a coded error naming the command it
// belongs to
func (r Result) Failure() error {
	return r.AsError(r.Command)
}

// AsError converts a failed result into a coded error for cmd. The captured
// stderr is carried verbatim so the operator sees the tool's own message.
func (r Result) AsError(cmd Command) error {
	switch r.Kind {
	case Success:
		return nil
	case ToolNotFound:
		return wrapOrNew(r.Err, setuperrors.ErrToolNotFound,
			fmt.Sprintf("`%s` is not installed or not on PATH", cmd.Name)).
			WithDetail("command", cmd.String())
	case SpawnFailed:
		return wrapOrNew(r.Err, setuperrors.ErrSpawnFailed,
			fmt.Sprintf("could not start `%s`", cmd.String())).
			WithDetail("command", cmd.String())
	default:
		msg := fmt.Sprintf("`%s` exited with status %d", cmd.String(), r.ExitCode)
		if output := failureOutput(r); output != "" {
			msg += ":\n" + output
		}
		return setuperrors.New(setuperrors.ErrNonZeroExit, msg).
			WithDetail("command", cmd.String()).
			WithDetail("exitCode", r.ExitCode)
	}
}

func wrapOrNew(err error, code setuperrors.ErrorCode, msg string) *setuperrors.SetupError {
	if err == nil {
		return setuperrors.New(code, msg)
	}
	return setuperrors.Wrap(err, code, msg)
}

// failureOutput picks the most useful captured stream for an error message
func failureOutput(r Result) string {
	if s := strings.TrimRight(r.Stderr, "\n"); s != "" {
		return s
	}
	return strings.TrimRight(r.Stdout, "\n")
}

// Runner starts external commands
type Runner interface {
	// Run executes cmd and waits for it to exit
	Run(ctx context.Context, cmd Command) Result

	// Pipe connects producer's stdout to consumer's stdin and waits for both
	Pipe(ctx context.Context, producer, consumer Command) Result
}
