package tui

import (
	"encoding/json"
	"io"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Output is where commands report progress and results.
type Output interface {
	// Step announces a pipeline step, e.g. "Clone website repository".
	Step(msg string)
	// Skip reports a deliberate skip; msg is the full skip message.
	Skip(msg string)
	Success(msg string)
	Error(err error)
	Warning(msg string)
	Info(msg string)
	// Table prints aligned rows under headers.
	Table(headers []string, rows [][]string)
	// JSON writes v as indented JSON.
	JSON(v any) error
}

// NewOutput creates the output for format. Anything but "json" is text.
func NewOutput(w io.Writer, format string) Output {
	if format == FormatJSON {
		return NewJSONOutput(w)
	}
	return NewTTYOutput(w)
}

func encodeIndented(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
