package core

import (
	"fmt"
)

// Error represents a bridge error.
type Error struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	Tool          string    `json:"tool,omitempty"`
	Code          string    `json:"code,omitempty"`
	CallID        string    `json:"call_id,omitempty"`
	UpstreamError any       `json:"upstream_error,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("%s: %s (tool: %s)", e.Type, e.Message, e.Tool)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrTransport     ErrorType = "transport_error"
	ErrProtocol      ErrorType = "protocol_error"
	ErrNotConnected  ErrorType = "not_connected_error"
	ErrUnknownTool   ErrorType = "unknown_tool_error"
	ErrArgumentParse ErrorType = "argument_parse_error"
	ErrExecution     ErrorType = "execution_fault"
	ErrStore         ErrorType = "store_error"
	ErrConfig        ErrorType = "config_error"
)

// NewTransportError creates a transport error wrapping an underlying failure.
func NewTransportError(message string, underlying error) *Error {
	e := &Error{
		Type:    ErrTransport,
		Message: message,
	}
	if underlying != nil {
		e.UpstreamError = underlying.Error()
	}
	return e
}

// NewProtocolError creates a protocol error.
func NewProtocolError(message string) *Error {
	return &Error{
		Type:    ErrProtocol,
		Message: message,
	}
}

// NewNotConnectedError creates an error for operations attempted before the
// session is active.
func NewNotConnectedError(message string) *Error {
	return &Error{
		Type:    ErrNotConnected,
		Message: message,
	}
}

// NewUnknownToolError creates an error for a tool name with no registered action.
func NewUnknownToolError(tool string) *Error {
	return &Error{
		Type:    ErrUnknownTool,
		Message: fmt.Sprintf("no action registered for tool %q", tool),
		Tool:    tool,
	}
}

// NewArgumentParseError creates an error for malformed tool arguments.
func NewArgumentParseError(tool string, underlying error) *Error {
	e := &Error{
		Type:    ErrArgumentParse,
		Message: fmt.Sprintf("malformed arguments for tool %q", tool),
		Tool:    tool,
	}
	if underlying != nil {
		e.UpstreamError = underlying.Error()
	}
	return e
}

// NewExecutionFault creates an error for a fault raised while running a tool.
func NewExecutionFault(tool string, underlying error) *Error {
	e := &Error{
		Type:    ErrExecution,
		Message: fmt.Sprintf("tool %q failed", tool),
		Tool:    tool,
	}
	if underlying != nil {
		e.UpstreamError = underlying.Error()
	}
	return e
}

// NewStoreError creates a customer store error.
func NewStoreError(message string, underlying error) *Error {
	e := &Error{
		Type:    ErrStore,
		Message: message,
	}
	if underlying != nil {
		e.UpstreamError = underlying.Error()
	}
	return e
}

// NewConfigError creates a configuration error.
func NewConfigError(message string) *Error {
	return &Error{
		Type:    ErrConfig,
		Message: message,
	}
}

// IsRetryable returns true if the error is worth retrying.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrTransport, ErrStore:
		return true
	default:
		return false
	}
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	if ue, ok := e.UpstreamError.(error); ok {
		return ue
	}
	return nil
}
