package tools

import (
	"context"
	"testing"

	"github.com/voicecare-ai/voicecare/pkg/core"
)

type fakeAction struct {
	name   string
	result map[string]any
	err    *core.Error
	calls  int
}

func (f *fakeAction) Name() string { return f.name }

func (f *fakeAction) Execute(_ context.Context, _ map[string]any) (map[string]any, *core.Error) {
	f.calls++
	return f.result, f.err
}

func TestRegistry_Execute(t *testing.T) {
	t.Parallel()

	fake := &fakeAction{name: "verify_customer", result: map[string]any{"found": true}}
	r := NewRegistry(fake)

	got, err := r.Execute(context.Background(), "verify_customer", map[string]any{"identifier": "CL123456"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got["found"] != true {
		t.Errorf("result = %v, want found=true", got)
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1", fake.calls)
	}
}

func TestRegistry_ExecuteUnknown(t *testing.T) {
	t.Parallel()

	r := NewRegistry(&fakeAction{name: "verify_customer"})

	_, err := r.Execute(context.Background(), "reset_modem", nil)
	if err == nil {
		t.Fatal("Execute() error = nil, want unknown tool error")
	}
	if err.Type != core.ErrUnknownTool {
		t.Errorf("Type = %v, want %v", err.Type, core.ErrUnknownTool)
	}
}

func TestRegistry_Names(t *testing.T) {
	t.Parallel()

	r := NewRegistry(
		&fakeAction{name: "reset_modem"},
		&fakeAction{name: "verify_customer"},
	)

	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("Names() = %v, want 2 entries", names)
	}
	if names[0] != "reset_modem" || names[1] != "verify_customer" {
		t.Errorf("Names() = %v, want sorted", names)
	}
}

func TestRegistry_Validate(t *testing.T) {
	t.Parallel()

	r := NewRegistry(
		&fakeAction{name: "verify_customer"},
		&fakeAction{name: "reset_modem"},
	)

	if err := r.Validate([]string{"verify_customer", "reset_modem"}); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
	if err := r.Validate([]string{"verify_customer", "change_wifi_password"}); err == nil {
		t.Error("Validate() error = nil, want missing binding error")
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	t.Parallel()

	var r *Registry
	if r.Has("verify_customer") {
		t.Error("Has() on nil registry = true, want false")
	}
	if _, err := r.Execute(context.Background(), "verify_customer", nil); err == nil {
		t.Error("Execute() on nil registry error = nil, want error")
	}
}
