// Package tools holds the tool catalog advertised to the realtime model and
// the registry of deterministic actions that back the fast execution path.
package tools

import (
	"github.com/voicecare-ai/voicecare/pkg/core/types"
)

// Tool names. The catalog below is what the model sees; the registry decides
// which of these have a deterministic action behind them.
const (
	ToolVerifyCustomer         = "verify_customer"
	ToolDiagnoseConnection     = "diagnose_connection"
	ToolCheckLineStatus        = "check_line_status"
	ToolRunSpeedTest           = "run_speed_test"
	ToolResetModem             = "reset_modem"
	ToolChangeWifiPassword     = "change_wifi_password"
	ToolChangeWifiChannel      = "change_wifi_channel"
	ToolComplexTroubleshooting = "complex_troubleshooting"
)

// Catalog returns the function declarations sent in the session handshake.
// The order and shape are fixed; the model decides on its own when to call
// each one.
func Catalog() []types.Tool {
	return []types.Tool{
		types.NewFunctionTool(
			ToolVerifyCustomer,
			"Verify customer identity. ALWAYS call this FIRST before any other function.",
			types.ObjectSchema(map[string]types.JSONSchema{
				"identifier": {
					Type:        "string",
					Description: "Customer code (CL######), phone number, or tax code",
				},
			}, "identifier"),
		),
		types.NewFunctionTool(
			ToolDiagnoseConnection,
			"Diagnose internet connection problems. Use when customer reports connectivity issues. This will check line status, analyze problems, and suggest solutions.",
			types.ObjectSchema(map[string]types.JSONSchema{
				"customer_id": {
					Type:        "string",
					Description: "Customer ID from verify_customer",
				},
				"problem_description": {
					Type:        "string",
					Description: "Brief description of the connection problem",
				},
			}, "customer_id", "problem_description"),
		),
		types.NewFunctionTool(
			ToolCheckLineStatus,
			"Check detailed line status and quality metrics. Use for technical diagnostics.",
			types.ObjectSchema(map[string]types.JSONSchema{
				"customer_id": {
					Type:        "string",
					Description: "Customer ID",
				},
			}, "customer_id"),
		),
		types.NewFunctionTool(
			ToolRunSpeedTest,
			"Run speed test on customer line. Use when customer complains about slow internet.",
			types.ObjectSchema(map[string]types.JSONSchema{
				"customer_id": {
					Type:        "string",
					Description: "Customer ID",
				},
			}, "customer_id"),
		),
		types.NewFunctionTool(
			ToolResetModem,
			"Remotely reset customer modem. ALWAYS warn customer that internet will drop for 2-3 minutes BEFORE calling this.",
			types.ObjectSchema(map[string]types.JSONSchema{
				"customer_id": {
					Type:        "string",
					Description: "Customer ID",
				},
			}, "customer_id"),
		),
		types.NewFunctionTool(
			ToolChangeWifiPassword,
			"Change WiFi password. Use when customer forgot password or wants to change it.",
			types.ObjectSchema(map[string]types.JSONSchema{
				"customer_id": {
					Type: "string",
				},
				"new_password": {
					Type:        "string",
					Description: "New password, minimum 8 characters",
				},
			}, "customer_id", "new_password"),
		),
	}
}
