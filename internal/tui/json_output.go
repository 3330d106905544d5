package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSONOutput writes one JSON object per message, for machine consumers.
type JSONOutput struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewJSONOutput creates a JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{w: w, encoder: json.NewEncoder(w)}
}

type jsonMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type jsonError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Context    string `json:"context,omitempty"`
}

func (o *JSONOutput) message(kind, msg string) {
	//nolint:errchkjson // interface methods have no error return
	_ = o.encoder.Encode(jsonMessage{Type: kind, Message: msg})
}

// Step outputs {"type":"step","message":...}.
func (o *JSONOutput) Step(msg string) { o.message("step", msg) }

// Skip outputs {"type":"skip","message":...}.
func (o *JSONOutput) Skip(msg string) { o.message("skip", msg) }

// Success outputs {"type":"success","message":...}.
func (o *JSONOutput) Success(msg string) { o.message("success", msg) }

// Warning outputs {"type":"warning","message":...}.
func (o *JSONOutput) Warning(msg string) { o.message("warning", msg) }

// Info outputs {"type":"info","message":...}.
func (o *JSONOutput) Info(msg string) { o.message("info", msg) }

// Error outputs the error, with suggestion and context for an ActionableError.
func (o *JSONOutput) Error(err error) {
	out := jsonError{Type: "error", Message: err.Error()}
	var ae *ActionableError
	if errors.As(err, &ae) {
		out.Message = ae.Message
		out.Suggestion = ae.Suggestion
		out.Context = ae.Context
	}
	//nolint:errchkjson // interface methods have no error return
	_ = o.encoder.Encode(out)
}

// Table outputs an array of header → cell objects.
func (o *JSONOutput) Table(headers []string, rows [][]string) {
	result := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				obj[h] = row[i]
			} else {
				obj[h] = ""
			}
		}
		result = append(result, obj)
	}
	//nolint:errchkjson // interface methods have no error return
	_ = o.encoder.Encode(result)
}

// JSON writes v as indented JSON.
func (o *JSONOutput) JSON(v any) error {
	if err := encodeIndented(o.w, v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

var _ Output = (*JSONOutput)(nil)
