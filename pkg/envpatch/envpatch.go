// Package envpatch appends the toolchain's library directory to the library
// search path in the operator's shell startup file, after asking.
package envpatch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/host"
	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/arthur-debert/bonsetup/pkg/paths"
	"github.com/arthur-debert/bonsetup/pkg/prompt"
	"github.com/arthur-debert/bonsetup/pkg/step"
)

// StepName identifies the patch step in reports
const StepName = "env-patch"

// DefaultToolchainsDir is where rustup keeps toolchains, as written into
// the startup file
const DefaultToolchainsDir = "~/.multirust/toolchains"

// Patch describes one startup file change
type Patch struct {
	Target  string `json:"target"`
	Line    string `json:"line"`
	Applied bool   `json:"applied"`

	// AlreadyPresent means the file contained the line before this run
	AlreadyPresent bool `json:"alreadyPresent"`
}

// Options configures the step
type Options struct {
	// ToolchainsDir is written verbatim into the exported path
	ToolchainsDir string

	// ToolchainDir resolves the toolchain's directory name under ToolchainsDir
	ToolchainDir func(ctx context.Context) (string, error)

	Prompter prompt.Prompter
	DryRun   bool
}

// Step offers the startup file patch
type Step struct {
	opts Options
}

// New creates the patch step
func New(opts Options) *Step {
	if opts.ToolchainsDir == "" {
		opts.ToolchainsDir = DefaultToolchainsDir
	}
	return &Step{opts: opts}
}

// Line is the export statement for h
func Line(h host.Profile, toolchainsDir, toolchainDir string) string {
	v := h.LibraryPathVar
	return fmt.Sprintf("export %s=$%s:%s", v, v, path.Join(toolchainsDir, toolchainDir, "lib"))
}

// Offer shows the line and appends it to the host's startup file on
// consent. A refusal returns the patch with an ErrUserDeclined error and the
// file untouched.
func (s *Step) Offer(ctx context.Context, h host.Profile) (Patch, error) {
	logger := logging.GetLogger("envpatch")

	if err := h.Validate(); err != nil {
		return Patch{}, err
	}

	dir, err := s.opts.ToolchainDir(ctx)
	if err != nil {
		return Patch{}, err
	}

	patch := Patch{
		Target: h.StartupFile,
		Line:   Line(h, s.opts.ToolchainsDir, dir),
	}
	file := paths.ExpandHome(h.StartupFile)

	present, err := containsLine(file, patch.Line)
	if err != nil {
		return patch, err
	}
	if present {
		patch.AlreadyPresent = true
		logger.Debug().Str("file", file).Msg("Startup file already patched")
		return patch, nil
	}

	if s.opts.DryRun {
		logger.Info().Str("file", file).Str("line", patch.Line).Msg("Dry run: would append")
		return patch, nil
	}

	question := fmt.Sprintf("The Bonsai runtime needs the toolchain libraries on %s.\n"+
		"Append this line to %s?\n\n    %s\n\n", h.LibraryPathVar, h.StartupFile, patch.Line)
	ok, err := s.opts.Prompter.Confirm(question, true)
	if err != nil {
		return patch, err
	}
	if !ok {
		logger.Info().Str("file", file).Msg("Startup file patch declined")
		return patch, errors.Newf(errors.ErrUserDeclined, "%s left unchanged", h.StartupFile)
	}

	if err := appendLine(file, patch.Line); err != nil {
		return patch, err
	}
	patch.Applied = true
	logger.Info().Str("file", file).Str("line", patch.Line).Msg("Startup file patched")
	return patch, nil
}

// Run offers the patch and reports it as a step outcome
func (s *Step) Run(ctx context.Context, h host.Profile) step.Outcome {
	start := time.Now()
	patch, err := s.Offer(ctx, h)
	outcome := step.Outcome{Step: StepName, Detail: patch.Line, Duration: time.Since(start)}

	switch {
	case errors.IsErrorCode(err, errors.ErrUserDeclined):
		outcome.Status = step.StatusDeclined
		outcome.Err = err
		outcome.Note = fmt.Sprintf("add `%s` to %s yourself before running Bonsai programs", patch.Line, patch.Target)
	case err != nil:
		outcome.Status = step.StatusFailedFatal
		outcome.Err = err
	case patch.AlreadyPresent:
		outcome.Status = step.StatusAlreadySatisfied
	case s.opts.DryRun:
		outcome.Status = step.StatusInstalled
		outcome.DryRun = true
	default:
		outcome.Status = step.StatusInstalled
		outcome.Note = fmt.Sprintf("run `source %s` or open a new shell to load it", patch.Target)
	}
	return outcome
}

func containsLine(file, line string) (bool, error) {
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", file)
	}
	for _, l := range bytes.Split(data, []byte("\n")) {
		if string(bytes.TrimSpace(l)) == line {
			return true, nil
		}
	}
	return false, nil
}

func appendLine(file, line string) error {
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to open %s", file)
	}
	if _, err := fmt.Fprintf(f, "\n%s\n", line); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", file)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to close %s", file)
	}
	return nil
}
