// Package prompt asks the operator questions on the console.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/logging"
)

// Prompter asks yes/no and free-text questions
type Prompter interface {
	// Confirm asks a yes/no question. An empty answer takes defaultYes.
	Confirm(question string, defaultYes bool) (bool, error)

	// Ask asks for a free-text answer, trimmed of surrounding space
	Ask(question string) (string, error)
}

// Console prompts on a terminal
type Console struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

// NewConsole creates a prompter reading from stdin and writing to stderr
func NewConsole(assumeYes bool) *Console {
	return NewConsoleIO(os.Stdin, os.Stderr, assumeYes)
}

// NewConsoleIO creates a prompter on the given streams
func NewConsoleIO(in io.Reader, out io.Writer, assumeYes bool) *Console {
	return &Console{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

// Confirm implements Prompter. With assume-yes the default is taken without
// reading input. Closed input declines.
func (c *Console) Confirm(question string, defaultYes bool) (bool, error) {
	marker := "[y/N]"
	if defaultYes {
		marker = "[Y/n]"
	}
	_, _ = fmt.Fprintf(c.out, "%s %s ", question, marker)

	if c.assumeYes {
		_, _ = fmt.Fprintln(c.out)
		return defaultYes, nil
	}

	answer, eof, err := c.readLine()
	if err != nil {
		return false, err
	}
	if eof && answer == "" {
		_, _ = fmt.Fprintln(c.out)
		logger := logging.GetLogger("prompt")
		logger.Debug().Str("question", question).Msg("Input closed, declining")
		return false, nil
	}
	return IsConsent(answer, defaultYes), nil
}

// Ask implements Prompter. With assume-yes or closed input the answer is empty.
func (c *Console) Ask(question string) (string, error) {
	_, _ = fmt.Fprintf(c.out, "%s ", question)
	if c.assumeYes {
		_, _ = fmt.Fprintln(c.out)
		return "", nil
	}
	answer, _, err := c.readLine()
	return answer, err
}

func (c *Console) readLine() (string, bool, error) {
	line, err := c.in.ReadString('\n')
	if err == io.EOF {
		return strings.TrimSpace(line), true, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, errors.ErrInvalidInput, "failed to read user input")
	}
	return strings.TrimSpace(line), false, nil
}

// IsConsent interprets an answer to a yes/no question. "y" and "yes" in any
// case agree, an empty answer takes the default, anything else refuses.
func IsConsent(answer string, defaultYes bool) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" {
		return defaultYes
	}
	return answer == "y" || answer == "yes"
}

// Scripted answers from a fixed list, for non-interactive callers and tests
type Scripted struct {
	Answers []string
	Asked   []string
}

// Confirm implements Prompter
func (s *Scripted) Confirm(question string, defaultYes bool) (bool, error) {
	answer, err := s.next(question)
	if err != nil {
		return false, err
	}
	return IsConsent(answer, defaultYes), nil
}

// Ask implements Prompter
func (s *Scripted) Ask(question string) (string, error) {
	answer, err := s.next(question)
	return strings.TrimSpace(answer), err
}

func (s *Scripted) next(question string) (string, error) {
	s.Asked = append(s.Asked, question)
	if len(s.Answers) == 0 {
		return "", errors.Newf(errors.ErrInvalidInput, "no scripted answer for %q", question)
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, nil
}
