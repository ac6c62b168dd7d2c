package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicecare-ai/voicecare/pkg/core"
)

// PostgresStore is a CustomerStore backed by Postgres via pgxpool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, core.NewStoreError("connect to postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.NewStoreError("ping postgres", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

const lookupQuery = `
SELECT customer_id, name, phone, tax_code, contract_type, contract_speed,
       status, line_status, signal_quality, downstream_speed, upstream_speed,
       last_sync, modem_model, connection_drops_24h
FROM customers
WHERE customer_id = $1 OR phone = $1 OR tax_code = $1`

// Lookup finds a record by customer code, phone number, or tax code.
func (s *PostgresStore) Lookup(ctx context.Context, identifier string) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx, lookupQuery, identifier).Scan(
		&c.CustomerID, &c.Name, &c.Phone, &c.TaxCode, &c.ContractType,
		&c.ContractSpeed, &c.Status, &c.LineStatus, &c.SignalQuality,
		&c.DownstreamSpeed, &c.UpstreamSpeed, &c.LastSync, &c.ModemModel,
		&c.ConnectionDrops,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.NewStoreError("lookup customer", err)
	}
	return &c, nil
}

const saveQuery = `
INSERT INTO customers (
	customer_id, name, phone, tax_code, contract_type, contract_speed,
	status, line_status, signal_quality, downstream_speed, upstream_speed,
	last_sync, modem_model, connection_drops_24h
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (customer_id) DO UPDATE SET
	name = EXCLUDED.name,
	phone = EXCLUDED.phone,
	tax_code = EXCLUDED.tax_code,
	contract_type = EXCLUDED.contract_type,
	contract_speed = EXCLUDED.contract_speed,
	status = EXCLUDED.status,
	line_status = EXCLUDED.line_status,
	signal_quality = EXCLUDED.signal_quality,
	downstream_speed = EXCLUDED.downstream_speed,
	upstream_speed = EXCLUDED.upstream_speed,
	last_sync = EXCLUDED.last_sync,
	modem_model = EXCLUDED.modem_model,
	connection_drops_24h = EXCLUDED.connection_drops_24h`

// Save persists a record, replacing any existing one with the same id.
func (s *PostgresStore) Save(ctx context.Context, c *Customer) error {
	_, err := s.pool.Exec(ctx, saveQuery,
		c.CustomerID, c.Name, c.Phone, c.TaxCode, c.ContractType,
		c.ContractSpeed, c.Status, c.LineStatus, c.SignalQuality,
		c.DownstreamSpeed, c.UpstreamSpeed, c.LastSync, c.ModemModel,
		c.ConnectionDrops,
	)
	if err != nil {
		return core.NewStoreError("save customer", err)
	}
	return nil
}
