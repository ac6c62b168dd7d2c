// Package store provides access to subscriber line records.
//
// The bridge never talks to provisioning systems directly; every deterministic
// action goes through a CustomerStore. Two implementations are provided: an
// in-memory store seeded with demo fixtures, and a Postgres-backed store.
package store

import (
	"context"
	"time"
)

// Customer is one subscriber line record.
type Customer struct {
	CustomerID      string    `json:"customer_id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	TaxCode         string    `json:"tax_code"`
	ContractType    string    `json:"contract_type"`  // "FTTH" or "FTTC"
	ContractSpeed   int       `json:"contract_speed"` // Mbps
	Status          string    `json:"status"`
	LineStatus      string    `json:"line_status"`    // "active", "degraded", "down"
	SignalQuality   int       `json:"signal_quality"` // 0-100
	DownstreamSpeed int       `json:"downstream_speed"`
	UpstreamSpeed   int       `json:"upstream_speed"`
	LastSync        time.Time `json:"last_sync"`
	ModemModel      string    `json:"modem_model"`
	ConnectionDrops int       `json:"connection_drops_24h"`
}

// CustomerStore looks up and updates subscriber records.
//
// Lookup accepts a customer code, phone number, or tax code and returns
// (nil, nil) when no record matches. Save persists the full record.
type CustomerStore interface {
	Lookup(ctx context.Context, identifier string) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
}
