package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory CustomerStore.
//
// It is the default backend for local development and tests. Records are
// copied on the way in and out so callers never share memory with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Customer
	byAlias map[string]string // phone or tax code -> customer id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Customer),
		byAlias: make(map[string]string),
	}
}

// NewSeededMemoryStore creates a store preloaded with the demo fixtures.
func NewSeededMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	for _, c := range SeedCustomers() {
		s.put(&c)
	}
	return s
}

// SeedCustomers returns the demo subscriber fixtures.
func SeedCustomers() []Customer {
	now := time.Now()
	return []Customer{
		{
			CustomerID:      "CL123456",
			Name:            "Mario Rossi",
			Phone:           "3331234567",
			TaxCode:         "RSSMRA80A01F205X",
			ContractType:    "FTTH",
			ContractSpeed:   1000,
			Status:          "active",
			LineStatus:      "active",
			SignalQuality:   85,
			DownstreamSpeed: 950,
			UpstreamSpeed:   290,
			LastSync:        now.Add(-2 * time.Hour),
			ModemModel:      "TIM HUB+",
			ConnectionDrops: 0,
		},
		{
			CustomerID:      "CL789012",
			Name:            "Laura Bianchi",
			Phone:           "3339876543",
			TaxCode:         "BNCLRA85M42F839Y",
			ContractType:    "FTTC",
			ContractSpeed:   200,
			Status:          "active",
			LineStatus:      "degraded",
			SignalQuality:   45,
			DownstreamSpeed: 85,
			UpstreamSpeed:   18,
			LastSync:        now.Add(-6 * time.Hour),
			ModemModel:      "Technicolor",
			ConnectionDrops: 12,
		},
	}
}

// Lookup finds a record by customer code, phone number, or tax code.
func (s *MemoryStore) Lookup(_ context.Context, identifier string) (*Customer, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id := identifier
	if alias, ok := s.byAlias[identifier]; ok {
		id = alias
	}
	c, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// Save persists a record, replacing any existing one with the same id.
func (s *MemoryStore) Save(_ context.Context, c *Customer) error {
	cp := *c
	s.put(&cp)
	return nil
}

func (s *MemoryStore) put(c *Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[c.CustomerID] = c
	if c.Phone != "" {
		s.byAlias[c.Phone] = c.CustomerID
	}
	if c.TaxCode != "" {
		s.byAlias[c.TaxCode] = c.CustomerID
	}
}
