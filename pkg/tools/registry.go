package tools

import (
	"context"
	"sort"
	"strings"

	"github.com/voicecare-ai/voicecare/pkg/core"
)

// Action executes one deterministic backend operation.
type Action interface {
	Name() string
	Execute(ctx context.Context, args map[string]any) (map[string]any, *core.Error)
}

// Registry holds the deterministic actions keyed by tool name. It is
// read-only after construction.
type Registry struct {
	byName map[string]Action
}

// NewRegistry creates a registry from the given actions.
func NewRegistry(actions ...Action) *Registry {
	registry := &Registry{byName: make(map[string]Action, len(actions))}
	for _, a := range actions {
		if a == nil {
			continue
		}
		registry.byName[a.Name()] = a
	}
	return registry
}

// Has reports whether an action is registered under name.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byName[strings.TrimSpace(name)]
	return ok
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the registered action for name. A name with no action is a
// configuration error and yields an unknown-tool error, never a fallback.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (map[string]any, *core.Error) {
	if r == nil {
		return nil, core.NewConfigError("action registry is not configured")
	}
	a, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return nil, core.NewUnknownToolError(name)
	}
	return a.Execute(ctx, args)
}

// Validate checks that every name in required has a registered action.
// Called at startup so a missing binding fails configuration instead of
// surfacing mid-call.
func (r *Registry) Validate(required []string) error {
	for _, name := range required {
		if !r.Has(name) {
			return core.NewConfigError("fast tool " + name + " has no registered action")
		}
	}
	return nil
}
