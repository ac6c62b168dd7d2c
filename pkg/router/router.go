// Package router dispatches tool invocations from the realtime session to
// either a fast deterministic action or the deep reasoning path, and turns
// every outcome into a voice-ready result.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voicecare-ai/voicecare/pkg/agent"
	"github.com/voicecare-ai/voicecare/pkg/core"
	"github.com/voicecare-ai/voicecare/pkg/tools"
)

// Tier selects the execution path for a tool.
type Tier string

const (
	// TierFast is a direct action call, target latency under 500ms.
	TierFast Tier = "fast"
	// TierDeep goes through the reasoning collaborator, 2-3s is acceptable.
	TierDeep Tier = "deep"
)

// tierTable is the static tool-to-tier binding. Read-only after init.
var tierTable = map[string]Tier{
	tools.ToolVerifyCustomer:         TierFast,
	tools.ToolResetModem:             TierFast,
	tools.ToolChangeWifiPassword:     TierFast,
	tools.ToolChangeWifiChannel:      TierFast,
	tools.ToolCheckLineStatus:        TierDeep, // readings need interpretation
	tools.ToolRunSpeedTest:           TierDeep, // results need analysis
	tools.ToolDiagnoseConnection:     TierDeep,
	tools.ToolComplexTroubleshooting: TierDeep,
}

// TierFor returns the execution tier for a tool. Unknown names go deep,
// where the reasoner can at least attempt something sensible.
func TierFor(name string) Tier {
	if tier, ok := tierTable[name]; ok {
		return tier
	}
	return TierDeep
}

// FastTools returns the names bound to the fast tier, for startup
// validation against the action registry.
func FastTools() []string {
	names := make([]string, 0, len(tierTable))
	for name, tier := range tierTable {
		if tier == TierFast {
			names = append(names, name)
		}
	}
	return names
}

// Result is the outcome of one tool invocation, ready to be spoken.
// It is immutable after creation.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Raw     map[string]any `json:"raw_result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// retryMessage is the generic spoken failure. Users hear a sentence,
// never an error code.
const retryMessage = "Si è verificato un errore. Riprovo..."

// Router routes tool invocations. Construct once, share per server.
type Router struct {
	registry    *tools.Registry
	reasoner    agent.Reasoner
	logger      *slog.Logger
	deepTimeout time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithReasoner sets the deep-path reasoning collaborator.
func WithReasoner(r agent.Reasoner) Option {
	return func(rt *Router) { rt.reasoner = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Router) { rt.logger = logger }
}

// WithDeepTimeout bounds one deep execution.
func WithDeepTimeout(d time.Duration) Option {
	return func(rt *Router) { rt.deepTimeout = d }
}

// New creates a Router over the action registry. It fails if any fast-tier
// tool has no registered action; that is a configuration error, not
// something to discover mid-call.
func New(registry *tools.Registry, opts ...Option) (*Router, error) {
	r := &Router{
		registry:    registry,
		logger:      slog.Default(),
		deepTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := registry.Validate(FastTools()); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute runs one tool invocation and always returns a speakable Result.
// Nothing below the router escapes past it: action errors, reasoner errors,
// and panics all come back as a failed Result with a retry message.
func (r *Router) Execute(ctx context.Context, name string, args map[string]any) (result *Result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("tool execution panicked", "tool", name, "panic", p)
			result = &Result{
				Success: false,
				Message: retryMessage,
				Error:   fmt.Sprintf("panic: %v", p),
			}
		}
	}()

	tier := TierFor(name)
	r.logger.Info("executing tool", "tool", name, "tier", string(tier))

	var (
		raw  map[string]any
		cerr *core.Error
	)
	if tier == TierFast {
		raw, cerr = r.registry.Execute(ctx, name, args)
	} else {
		raw, cerr = r.executeDeep(ctx, name, args)
	}

	if cerr != nil {
		r.logger.Error("tool execution failed", "tool", name, "error", cerr)
		return &Result{
			Success: false,
			Message: retryMessage,
			Error:   cerr.Error(),
		}
	}

	return FormatForVoice(name, raw)
}

// executeDeep runs the reasoning path. Without a reasoner it degrades to a
// direct action call, which fails as unknown-tool for reasoning-only names.
func (r *Router) executeDeep(ctx context.Context, name string, args map[string]any) (map[string]any, *core.Error) {
	if r.reasoner == nil {
		r.logger.Warn("deep execution requested but no reasoner configured", "tool", name)
		return r.registry.Execute(ctx, name, args)
	}

	ctx, cancel := context.WithTimeout(ctx, r.deepTimeout)
	defer cancel()

	analysis, err := r.reasoner.ProcessMessage(ctx, BuildPrompt(name, args))
	if err != nil {
		return nil, core.NewExecutionFault(name, err)
	}

	return map[string]any{
		"success":  true,
		"analysis": analysis,
		"function": name,
	}, nil
}
