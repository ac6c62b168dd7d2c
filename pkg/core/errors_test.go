package core

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Type:    ErrProtocol,
		Message: "missing event type",
	}

	expected := "protocol_error: missing event type"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestError_WithTool(t *testing.T) {
	err := &Error{
		Type:    ErrExecution,
		Message: "lookup failed",
		Tool:    "verify_customer",
	}

	expected := "execution_fault: lookup failed (tool: verify_customer)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewUnknownToolError(t *testing.T) {
	err := NewUnknownToolError("reset_modem")
	if err.Type != ErrUnknownTool {
		t.Errorf("Type = %v, want %v", err.Type, ErrUnknownTool)
	}
	if err.Tool != "reset_modem" {
		t.Errorf("Tool = %q, want %q", err.Tool, "reset_modem")
	}
}

func TestNewArgumentParseError(t *testing.T) {
	underlying := errors.New("unexpected end of JSON input")
	err := NewArgumentParseError("run_speed_test", underlying)

	if err.Type != ErrArgumentParse {
		t.Errorf("Type = %v, want %v", err.Type, ErrArgumentParse)
	}
	if err.UpstreamError == nil {
		t.Error("UpstreamError should not be nil")
	}
}

func TestNewTransportError(t *testing.T) {
	err := NewTransportError("dial failed", errors.New("connection refused"))
	if err.Type != ErrTransport {
		t.Errorf("Type = %v, want %v", err.Type, ErrTransport)
	}
	if err.UpstreamError != "connection refused" {
		t.Errorf("UpstreamError = %v, want %q", err.UpstreamError, "connection refused")
	}
}

func TestError_IsRetryable(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrTransport, true},
		{ErrStore, true},
		{ErrProtocol, false},
		{ErrNotConnected, false},
		{ErrUnknownTool, false},
		{ErrArgumentParse, false},
		{ErrExecution, false},
		{ErrConfig, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			err := &Error{Type: tt.errType, Message: "test"}
			if got := err.IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
