package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/rs/zerolog"
)

// ExecRunner runs commands as child processes
type ExecRunner struct {
	logger zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewExecRunner creates a runner that streams passthrough output to the
// process's own stdout and stderr
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		logger: logging.GetLogger("runner.exec"),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// WithOutput redirects passthrough output
func (r *ExecRunner) WithOutput(stdout, stderr io.Writer) *ExecRunner {
	r.stdout = stdout
	r.stderr = stderr
	return r
}

// Run executes a single command and returns a classified result
func (r *ExecRunner) Run(ctx context.Context, c Command) Result {
	logging.LogCommand(c.Name, c.Args)

	cmd := r.build(ctx, c)
	var stdout, stderr bytes.Buffer
	r.attachOutput(cmd, c, &stdout, &stderr)

	err := cmd.Run()
	result := newResult(c, err, &stdout, &stderr)

	r.logger.Debug().
		Str("command", c.String()).
		Str("kind", result.Kind.String()).
		Int("exitCode", result.ExitCode).
		Msg("Command finished")

	return result
}

// Pipe runs producer | consumer without involving a shell. The result is the
// producer's when it fails, the consumer's otherwise; Result.Command says
// which.
func (r *ExecRunner) Pipe(ctx context.Context, producer, consumer Command) Result {
	logging.LogCommand(producer.Name, producer.Args)
	logging.LogCommand(consumer.Name, consumer.Args)

	prod := r.build(ctx, producer)
	cons := r.build(ctx, consumer)

	var prodStderr, consStdout, consStderr bytes.Buffer
	prod.Stderr = &prodStderr
	r.attachOutput(cons, consumer, &consStdout, &consStderr)

	out, err := prod.StdoutPipe()
	if err != nil {
		return newResult(producer, err, &bytes.Buffer{}, &prodStderr)
	}
	cons.Stdin = out

	if err := prod.Start(); err != nil {
		return newResult(producer, err, &bytes.Buffer{}, &prodStderr)
	}

	consErr := cons.Run()
	if consErr != nil {
		// unblock a producer still writing into the pipe
		_ = out.Close()
	}
	prodErr := prod.Wait()

	// a consumer that never started explains a broken pipe on the producer side
	if kind := Classify(consErr); kind == ToolNotFound || kind == SpawnFailed {
		return newResult(consumer, consErr, &consStdout, &consStderr)
	}
	if prodErr != nil {
		return newResult(producer, prodErr, &bytes.Buffer{}, &prodStderr)
	}
	return newResult(consumer, consErr, &consStdout, &consStderr)
}

func (r *ExecRunner) build(ctx context.Context, c Command) *exec.Cmd {
	return exec.CommandContext(ctx, c.Name, c.Args...)
}

func (r *ExecRunner) attachOutput(cmd *exec.Cmd, c Command, stdout, stderr *bytes.Buffer) {
	if c.Passthrough {
		cmd.Stdout = io.MultiWriter(stdout, r.stdout)
		cmd.Stderr = io.MultiWriter(stderr, r.stderr)
		return
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
}

func newResult(c Command, err error, stdout, stderr *bytes.Buffer) Result {
	result := Result{
		Command: c,
		Kind:    Classify(err),
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Err:     err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}
	return result
}
