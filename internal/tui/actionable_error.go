package tui

// ActionableError pairs a failure message with what the user can do about it.
//
//	err := NewActionableError("deployment secret missing", "Enable secure variables for the build")
//	output.Error(err)
//	// ✗ deployment secret missing
//	//   ▸ Try: Enable secure variables for the build
type ActionableError struct {
	Message    string
	Suggestion string
	// Context is appended to Message in parentheses when set.
	Context string
}

// NewActionableError creates an ActionableError.
func NewActionableError(msg, suggestion string) *ActionableError {
	return &ActionableError{Message: msg, Suggestion: suggestion}
}

// Error implements the error interface.
func (e *ActionableError) Error() string {
	if e.Context != "" {
		return e.Message + " (" + e.Context + ")"
	}
	return e.Message
}

// WithContext sets Context and returns e for chaining.
func (e *ActionableError) WithContext(ctx string) *ActionableError {
	e.Context = ctx
	return e
}
