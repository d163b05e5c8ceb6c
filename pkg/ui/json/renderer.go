// Package json provides machine-readable JSON output
package json

import (
	"encoding/json"
	"io"

	"github.com/arthur-debert/bonsetup/pkg/errors"
)

// Renderer provides JSON output for machine consumption
type Renderer struct {
	encoder *json.Encoder
}

// New creates a new JSON renderer
func New(output io.Writer) *Renderer {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return &Renderer{encoder: encoder}
}

// RenderResult renders any result type as JSON
func (r *Renderer) RenderResult(result interface{}) error {
	return r.encoder.Encode(result)
}

// RenderError renders an error as JSON, with its code and exit status
func (r *Renderer) RenderError(err error) error {
	errorObj := struct {
		Error    string                 `json:"error"`
		Code     errors.ErrorCode       `json:"code"`
		ExitCode int                    `json:"exitCode"`
		Details  map[string]interface{} `json:"details,omitempty"`
	}{
		Error:    err.Error(),
		Code:     errors.GetErrorCode(err),
		ExitCode: errors.ExitCode(err),
		Details:  errors.GetErrorDetails(err),
	}
	return r.encoder.Encode(errorObj)
}

// RenderMessage renders a simple message as JSON
func (r *Renderer) RenderMessage(msg string) error {
	return r.encoder.Encode(map[string]string{"message": msg})
}
