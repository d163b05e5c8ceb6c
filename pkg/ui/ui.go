// Package ui provides a unified interface for rendering output in different formats.
// It supports terminal (styled), text (plain), and JSON output formats.
package ui

import (
	"io"
	"os"

	"github.com/arthur-debert/bonsetup/pkg/chain"
	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/ui/console"
	"github.com/arthur-debert/bonsetup/pkg/ui/json"
)

// Renderer is the common interface for all output renderers
type Renderer interface {
	// RenderResult renders a command result (reports, probes, history...)
	RenderResult(result interface{}) error

	// RenderError renders an error with appropriate formatting
	RenderError(err error) error

	// RenderMessage renders a simple message
	RenderMessage(msg string) error
}

// Resolve turns FormatAuto into a concrete format for output
func Resolve(format Format, output io.Writer) Format {
	if format != FormatAuto {
		return format
	}
	if file, ok := output.(*os.File); ok {
		return DetectFormat(file)
	}
	return FormatText
}

// NewRenderer creates a renderer for the format. FormatAuto is resolved
// against the output first.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch Resolve(format, output) {
	case FormatTerminal:
		return console.New(output, false), nil
	case FormatText:
		return console.New(output, true), nil
	case FormatJSON:
		return json.New(output), nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format: %v", format)
	}
}

// NewProgress returns a stage observer for the format, or nil when progress
// lines would corrupt the output (JSON)
func NewProgress(format Format, output io.Writer) chain.Observer {
	switch Resolve(format, output) {
	case FormatTerminal:
		return console.NewProgress(output, false)
	case FormatText:
		return console.NewProgress(output, true)
	}
	return nil
}
