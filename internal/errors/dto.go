package errors

// ErrorResponse represents the standard error response structure.
// Message is kept at the top level so clients that only read `message` keep working.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
