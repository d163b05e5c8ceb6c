// Package runnertest provides a scripted Runner for tests.
package runnertest

import (
	"context"
	"os"
	"sync"

	"github.com/arthur-debert/bonsetup/pkg/runner"
)

// Response is a scripted outcome for one invocation
type Response struct {
	Kind     runner.Kind
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK is a successful run printing stdout
func OK(stdout string) Response {
	return Response{Kind: runner.Success, Stdout: stdout}
}

// Missing is a ToolNotFound outcome
func Missing() Response {
	return Response{Kind: runner.ToolNotFound}
}

// Exit is a non-zero exit with the given stderr
func Exit(code int, stderr string) Response {
	return Response{Kind: runner.NonZeroExit, ExitCode: code, Stderr: stderr}
}

// Call records one invocation and the working directory it happened in
type Call struct {
	Command runner.Command
	Cwd     string
}

// Fake is a Runner that answers from a script keyed by command line.
// Queued responses are consumed in order; the last one keeps answering.
// Unscripted commands succeed with no output.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]Response
	effects   map[string]func()
	calls     []Call
}

// New creates an empty fake
func New() *Fake {
	return &Fake{
		responses: make(map[string][]Response),
		effects:   make(map[string]func()),
	}
}

// On scripts the responses for a command line such as "mvn package -quiet"
func (f *Fake) On(cmdline string, responses ...Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = append(f.responses[cmdline], responses...)
	return f
}

// Then registers a side effect run every time cmdline succeeds
func (f *Fake) Then(cmdline string, effect func()) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.effects[cmdline] = effect
	return f
}

// Run implements runner.Runner
func (f *Fake) Run(_ context.Context, cmd runner.Command) runner.Result {
	return f.answer(cmd.String(), cmd)
}

// Pipe implements runner.Runner; the pipe is keyed as "producer | consumer".
// A failure scripted for the producer alone ends the pipe before the consumer
// is recorded.
func (f *Fake) Pipe(_ context.Context, producer, consumer runner.Command) runner.Result {
	if f.scripted(producer.String()) {
		if result := f.answer(producer.String(), producer); !result.OK() {
			return result
		}
	}
	return f.answer(producer.String()+" | "+consumer.String(), consumer)
}

func (f *Fake) scripted(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.responses[key]) > 0
}

func (f *Fake) answer(key string, cmd runner.Command) runner.Result {
	f.mu.Lock()
	cwd, _ := os.Getwd()
	f.calls = append(f.calls, Call{Command: cmd, Cwd: cwd})

	resp := Response{Kind: runner.Success}
	if queue := f.responses[key]; len(queue) > 0 {
		resp = queue[0]
		if len(queue) > 1 {
			f.responses[key] = queue[1:]
		}
	}
	effect := f.effects[key]
	f.mu.Unlock()

	if resp.Kind == runner.Success && effect != nil {
		effect()
	}

	return runner.Result{
		Command:  cmd,
		Kind:     resp.Kind,
		ExitCode: resp.ExitCode,
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
	}
}

// Calls returns every recorded invocation in order
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many times cmdline was invoked
func (f *Fake) Count(cmdline string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Command.String() == cmdline {
			n++
		}
	}
	return n
}

// CountTool returns how many invocations ran the named executable
func (f *Fake) CountTool(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Command.Name == name {
			n++
		}
	}
	return n
}

var _ runner.Runner = (*Fake)(nil)
