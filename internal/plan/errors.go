package plan

import "fmt"

// Validation error codes.
const (
	ErrCodeGeneric  = "E001" // unclassified error
	ErrCodeNotFound = "E002" // plan file not found or unreadable
	ErrCodeParse    = "E003" // YAML syntax or decode failure
	ErrCodeSchema   = "E004" // schema constraint violation
	ErrCodeInvalid  = "E005" // semantic validation failure
)

// ValidationError describes one problem found in a plan.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}
