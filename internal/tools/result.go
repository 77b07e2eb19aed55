package tools

import "fmt"

// Failure codes carried in Result.Code. The model sees these alongside
// the human-readable error and can correct its arguments in the next turn.
const (
	CodeDocumentNotFound = "DOCUMENT_NOT_FOUND"
	CodeInvalidPosition  = "INVALID_POSITION"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnknownTool      = "UNKNOWN_TOOL"
)

// Result is the unified return type from tool execution.
type Result struct {
	// Success reports whether the tool ran to completion.
	Success bool

	// Code is a machine-readable failure code, empty on success.
	Code string

	// Err is a human-readable failure message, empty on success.
	Err string

	// Data is the tool-specific payload on success.
	Data map[string]any
}

// OK creates a successful result with the given payload.
func OK(data map[string]any) *Result {
	return &Result{Success: true, Data: data}
}

// Errorf creates a failed result with a code and formatted message.
func Errorf(code, format string, args ...any) *Result {
	return &Result{Code: code, Err: fmt.Sprintf(format, args...)}
}

// Payload flattens the result into the map serialised as the tool-role
// message content: {"success": true, ...data} or
// {"success": false, "error": ..., "code": ...}.
func (r *Result) Payload() map[string]any {
	out := make(map[string]any, len(r.Data)+3)
	out["success"] = r.Success
	if !r.Success {
		out["error"] = r.Err
		out["code"] = r.Code
		return out
	}
	for k, v := range r.Data {
		out[k] = v
	}
	return out
}
