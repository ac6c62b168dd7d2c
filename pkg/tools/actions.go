package tools

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/voicecare-ai/voicecare/pkg/core"
	"github.com/voicecare-ai/voicecare/pkg/store"
)

// Actions builds the deterministic backend operations over a CustomerStore.
//
// In production these would drive RADIUS/TR-069 provisioning; here they read
// and write subscriber records through the store. Readings carry a little
// simulated variance, like real line diagnostics do.
type Actions struct {
	store store.CustomerStore
	now   func() time.Time
	rng   *rand.Rand
}

// NewActions creates the action set over the given store.
func NewActions(s store.CustomerStore) *Actions {
	return &Actions{
		store: s,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// All returns the actions for registry construction.
func (a *Actions) All() []Action {
	return []Action{
		funcAction{ToolVerifyCustomer, a.verifyCustomer},
		funcAction{ToolCheckLineStatus, a.checkLineStatus},
		funcAction{ToolRunSpeedTest, a.runSpeedTest},
		funcAction{ToolResetModem, a.resetModem},
		funcAction{ToolChangeWifiPassword, a.changeWifiPassword},
		funcAction{ToolChangeWifiChannel, a.changeWifiChannel},
	}
}

type funcAction struct {
	name string
	fn   func(ctx context.Context, args map[string]any) (map[string]any, *core.Error)
}

func (f funcAction) Name() string { return f.name }

func (f funcAction) Execute(ctx context.Context, args map[string]any) (map[string]any, *core.Error) {
	return f.fn(ctx, args)
}

func (a *Actions) verifyCustomer(ctx context.Context, args map[string]any) (map[string]any, *core.Error) {
	identifier := stringArg(args, "identifier")

	c, err := a.store.Lookup(ctx, identifier)
	if err != nil {
		return nil, core.NewExecutionFault(ToolVerifyCustomer, err)
	}
	if c == nil {
		return map[string]any{
			"found":   false,
			"message": fmt.Sprintf("No customer found with identifier: %s", identifier),
		}, nil
	}

	return map[string]any{
		"found":          true,
		"customer_id":    c.CustomerID,
		"name":           c.Name,
		"contract_type":  c.ContractType,
		"contract_speed": c.ContractSpeed,
		"status":         c.Status,
		"message":        fmt.Sprintf("Customer %s verified successfully", c.Name),
	}, nil
}

func (a *Actions) checkLineStatus(ctx context.Context, args map[string]any) (map[string]any, *core.Error) {
	c, cerr := a.customer(ctx, ToolCheckLineStatus, args)
	if cerr != nil {
		return nil, cerr
	}
	if c == nil {
		return notFoundResult(args), nil
	}

	// Real line probes never read twice the same.
	signal := clamp(c.SignalQuality+a.rng.Intn(11)-5, 0, 100)

	return map[string]any{
		"status":               "success",
		"line_status":          c.LineStatus,
		"signal_quality":       signal,
		"downstream_speed":     c.DownstreamSpeed,
		"upstream_speed":       c.UpstreamSpeed,
		"contract_speed":       c.ContractSpeed,
		"connection_drops_24h": c.ConnectionDrops,
		"last_sync":            c.LastSync.Format(time.RFC3339),
		"modem_model":          c.ModemModel,
	}, nil
}

func (a *Actions) runSpeedTest(ctx context.Context, args map[string]any) (map[string]any, *core.Error) {
	c, cerr := a.customer(ctx, ToolRunSpeedTest, args)
	if cerr != nil {
		return nil, cerr
	}
	if c == nil {
		return notFoundResult(args), nil
	}

	download := round2(float64(c.DownstreamSpeed) * (0.9 + a.rng.Float64()*0.1))
	upload := round2(float64(c.UpstreamSpeed) * (0.9 + a.rng.Float64()*0.1))

	latency := 50 + a.rng.Intn(101)
	jitter := 10 + a.rng.Intn(21)
	if c.SignalQuality > 70 {
		latency = 10 + a.rng.Intn(21)
		jitter = 1 + a.rng.Intn(5)
	}

	return map[string]any{
		"status":         "success",
		"download_speed": download,
		"upload_speed":   upload,
		"contract_speed": c.ContractSpeed,
		"latency":        latency,
		"jitter":         jitter,
		"test_timestamp": a.now().Format(time.RFC3339),
	}, nil
}

func (a *Actions) resetModem(ctx context.Context, args map[string]any) (map[string]any, *core.Error) {
	c, cerr := a.customer(ctx, ToolResetModem, args)
	if cerr != nil {
		return nil, cerr
	}
	if c == nil {
		return notFoundResult(args), nil
	}

	c.LastSync = a.now()
	c.ConnectionDrops = 0
	if c.SignalQuality < 80 {
		c.SignalQuality = min(85, c.SignalQuality+5+a.rng.Intn(11))
	}
	if err := a.store.Save(ctx, c); err != nil {
		return nil, core.NewExecutionFault(ToolResetModem, err)
	}

	return map[string]any{
		"status":                  "success",
		"message":                 "Modem reset command sent successfully",
		"estimated_recovery_time": 120,
		"next_action":             "Wait 2-3 minutes for modem to complete restart and resynchronization",
	}, nil
}

func (a *Actions) changeWifiPassword(ctx context.Context, args map[string]any) (map[string]any, *core.Error) {
	c, cerr := a.customer(ctx, ToolChangeWifiPassword, args)
	if cerr != nil {
		return nil, cerr
	}
	if c == nil {
		return notFoundResult(args), nil
	}

	password := stringArg(args, "new_password")
	if len(password) < 8 {
		return map[string]any{
			"status":  "error",
			"message": "Password must be at least 8 characters long",
		}, nil
	}

	return map[string]any{
		"status":      "success",
		"message":     fmt.Sprintf("WiFi password changed successfully to: %s", password),
		"next_action": "Customer needs to reconnect all devices with the new password",
	}, nil
}

func (a *Actions) changeWifiChannel(ctx context.Context, args map[string]any) (map[string]any, *core.Error) {
	c, cerr := a.customer(ctx, ToolChangeWifiChannel, args)
	if cerr != nil {
		return nil, cerr
	}
	if c == nil {
		return notFoundResult(args), nil
	}

	channel := intArg(args, "channel")
	if channel != 1 && channel != 6 && channel != 11 {
		return map[string]any{
			"status":  "warning",
			"message": fmt.Sprintf("Channel %d set, but recommended channels are 1, 6, or 11 for optimal performance", channel),
		}, nil
	}

	return map[string]any{
		"status":      "success",
		"message":     fmt.Sprintf("WiFi channel changed to %d", channel),
		"next_action": "WiFi devices should reconnect automatically. Signal quality should improve within 1-2 minutes.",
	}, nil
}

// customer resolves the customer_id argument. A store failure is an
// execution fault; an unknown id is a normal not-found result for the caller.
func (a *Actions) customer(ctx context.Context, tool string, args map[string]any) (*store.Customer, *core.Error) {
	c, err := a.store.Lookup(ctx, stringArg(args, "customer_id"))
	if err != nil {
		return nil, core.NewExecutionFault(tool, err)
	}
	return c, nil
}

func notFoundResult(args map[string]any) map[string]any {
	return map[string]any{
		"status":  "error",
		"message": fmt.Sprintf("Customer %s not found", stringArg(args, "customer_id")),
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// intArg reads a numeric argument. JSON decoding hands numbers over as
// float64.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
