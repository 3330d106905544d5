package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/atilaneves/flycheck/internal/tui"
)

// OutputEvent is one message captured by RecordingOutput.
type OutputEvent struct {
	Kind    string
	Message string
}

// RecordingOutput is a tui.Output that keeps every message in order.
type RecordingOutput struct {
	mu     sync.Mutex
	events []OutputEvent
}

// NewRecordingOutput creates an empty RecordingOutput.
func NewRecordingOutput() *RecordingOutput {
	return &RecordingOutput{}
}

func (o *RecordingOutput) record(kind, msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, OutputEvent{Kind: kind, Message: msg})
}

// Step implements tui.Output.
func (o *RecordingOutput) Step(msg string) { o.record("step", msg) }

// Skip implements tui.Output.
func (o *RecordingOutput) Skip(msg string) { o.record("skip", msg) }

// Success implements tui.Output.
func (o *RecordingOutput) Success(msg string) { o.record("success", msg) }

// Error implements tui.Output.
func (o *RecordingOutput) Error(err error) { o.record("error", err.Error()) }

// Warning implements tui.Output.
func (o *RecordingOutput) Warning(msg string) { o.record("warning", msg) }

// Info implements tui.Output.
func (o *RecordingOutput) Info(msg string) { o.record("info", msg) }

// Table implements tui.Output. Rows are recorded tab separated, one event per row.
func (o *RecordingOutput) Table(headers []string, rows [][]string) {
	o.record("table", strings.Join(headers, "\t"))
	for _, row := range rows {
		o.record("table", strings.Join(row, "\t"))
	}
}

// JSON implements tui.Output.
func (o *RecordingOutput) JSON(v any) error {
	o.record("json", fmt.Sprintf("%+v", v))
	return nil
}

// Events returns a copy of the captured messages.
func (o *RecordingOutput) Events() []OutputEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]OutputEvent(nil), o.events...)
}

// Messages returns the messages of the given kind, in order.
func (o *RecordingOutput) Messages(kind string) []string {
	var msgs []string
	for _, e := range o.Events() {
		if e.Kind == kind {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

var _ tui.Output = (*RecordingOutput)(nil)
