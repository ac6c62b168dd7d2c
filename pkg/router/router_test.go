package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voicecare-ai/voicecare/pkg/core"
	"github.com/voicecare-ai/voicecare/pkg/store"
	"github.com/voicecare-ai/voicecare/pkg/tools"
)

type fakeReasoner struct {
	response string
	err      error
	prompts  []string
	resets   int
}

func (f *fakeReasoner) ProcessMessage(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeReasoner) Reset() { f.resets++ }

type panicAction struct{}

func (panicAction) Name() string { return tools.ToolVerifyCustomer }

func (panicAction) Execute(_ context.Context, _ map[string]any) (map[string]any, *core.Error) {
	panic("boom")
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	return tools.NewRegistry(tools.NewActions(store.NewSeededMemoryStore()).All()...)
}

func TestRouter_FastPath(t *testing.T) {
	r, err := New(testRegistry(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := r.Execute(context.Background(), tools.ToolVerifyCustomer, map[string]any{"identifier": "CL123456"})
	if !got.Success {
		t.Fatalf("Execute() = %+v, want success", got)
	}
	if got.Message != "Cliente verificato: Mario Rossi" {
		t.Errorf("Message = %q, want verified customer sentence", got.Message)
	}
	if got.Raw["customer_id"] != "CL123456" {
		t.Errorf("Raw customer_id = %v, want CL123456", got.Raw["customer_id"])
	}
}

func TestRouter_DeepPathUsesReasoner(t *testing.T) {
	reasoner := &fakeReasoner{response: "La linea è in buone condizioni."}
	r, err := New(testRegistry(t), WithReasoner(reasoner))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := r.Execute(context.Background(), tools.ToolCheckLineStatus, map[string]any{"customer_id": "CL123456"})
	if !got.Success {
		t.Fatalf("Execute() = %+v, want success", got)
	}
	if got.Message != "La linea è in buone condizioni." {
		t.Errorf("Message = %q, want reasoner analysis verbatim", got.Message)
	}
	if len(reasoner.prompts) != 1 {
		t.Fatalf("reasoner prompts = %d, want 1", len(reasoner.prompts))
	}
	if !strings.Contains(reasoner.prompts[0], "CL123456") {
		t.Errorf("prompt missing customer id: %q", reasoner.prompts[0])
	}
}

func TestRouter_DeepFallsBackWithoutReasoner(t *testing.T) {
	r, err := New(testRegistry(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// check_line_status is deep-tier but has a deterministic action, so
	// without a reasoner it still produces a formatted reading.
	got := r.Execute(context.Background(), tools.ToolCheckLineStatus, map[string]any{"customer_id": "CL123456"})
	if !got.Success {
		t.Fatalf("Execute() = %+v, want success", got)
	}
	if !strings.Contains(got.Message, "Qualità segnale") && !strings.Contains(got.Message, "ottime condizioni") {
		t.Errorf("Message = %q, want line status sentence", got.Message)
	}
}

func TestRouter_DeepOnlyToolWithoutReasonerFails(t *testing.T) {
	r, err := New(testRegistry(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := r.Execute(context.Background(), tools.ToolDiagnoseConnection, map[string]any{
		"customer_id":         "CL123456",
		"problem_description": "internet assente",
	})
	if got.Success {
		t.Fatalf("Execute() = %+v, want failure", got)
	}
	if got.Message != "Si è verificato un errore. Riprovo..." {
		t.Errorf("Message = %q, want generic retry sentence", got.Message)
	}
	if got.Error == "" {
		t.Error("Error field empty, want diagnostic detail")
	}
}

func TestRouter_ReasonerErrorBecomesFailedResult(t *testing.T) {
	reasoner := &fakeReasoner{err: errors.New("model unavailable")}
	r, err := New(testRegistry(t), WithReasoner(reasoner))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := r.Execute(context.Background(), tools.ToolDiagnoseConnection, map[string]any{
		"customer_id":         "CL123456",
		"problem_description": "internet assente",
	})
	if got.Success {
		t.Fatalf("Execute() = %+v, want failure", got)
	}
	if got.Message != "Si è verificato un errore. Riprovo..." {
		t.Errorf("Message = %q, want generic retry sentence", got.Message)
	}
}

func TestRouter_PanicBecomesFailedResult(t *testing.T) {
	registry := tools.NewRegistry(panicAction{})
	r, err := New(registry, func(rt *Router) {})
	if err == nil {
		// Registry only has verify_customer; other fast bindings missing.
		t.Fatal("New() error = nil, want validation failure")
	}

	// Build a router around the panicking action only for the one fast
	// tool it provides.
	full := tools.NewActions(store.NewSeededMemoryStore()).All()
	actions := []tools.Action{panicAction{}}
	for _, a := range full {
		if a.Name() != tools.ToolVerifyCustomer {
			actions = append(actions, a)
		}
	}
	r, err = New(tools.NewRegistry(actions...))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := r.Execute(context.Background(), tools.ToolVerifyCustomer, map[string]any{"identifier": "CL123456"})
	if got.Success {
		t.Fatalf("Execute() = %+v, want failure", got)
	}
	if !strings.Contains(got.Error, "panic") {
		t.Errorf("Error = %q, want panic detail", got.Error)
	}
}

func TestRouter_ValidationRejectsMissingFastBinding(t *testing.T) {
	if _, err := New(tools.NewRegistry()); err == nil {
		t.Fatal("New() with empty registry error = nil, want config error")
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		name string
		want Tier
	}{
		{tools.ToolVerifyCustomer, TierFast},
		{tools.ToolResetModem, TierFast},
		{tools.ToolChangeWifiPassword, TierFast},
		{tools.ToolChangeWifiChannel, TierFast},
		{tools.ToolCheckLineStatus, TierDeep},
		{tools.ToolRunSpeedTest, TierDeep},
		{tools.ToolDiagnoseConnection, TierDeep},
		{tools.ToolComplexTroubleshooting, TierDeep},
		{"never_heard_of_it", TierDeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TierFor(tt.name); got != tt.want {
				t.Errorf("TierFor(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
