package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammSwap/internal/model"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS receipts (
	seq        BIGINT PRIMARY KEY,
	ts         BIGINT NOT NULL,
	op         TEXT NOT NULL,
	status     TEXT NOT NULL,
	error_kind TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	pool       TEXT NOT NULL DEFAULT '',
	output     NUMERIC,
	base_out   NUMERIC,
	token_out  NUMERIC,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS pools (
	pool_address  TEXT PRIMARY KEY,
	token         TEXT NOT NULL,
	base_reserve  NUMERIC NOT NULL,
	token_reserve NUMERIC NOT NULL,
	total_shares  NUMERIC NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS amm_state (
	name       TEXT PRIMARY KEY,
	snapshot   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for receipts and simulation state.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// PutReceiptBatch inserts receipts. A receipt already stored under the same
// sequence number is kept.
func (s *Store) PutReceiptBatch(ctx context.Context, receipts []model.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range receipts {
		batch.Queue(`
			INSERT INTO receipts (
				seq, ts, op, status, error_kind, error, pool, output, base_out, token_out, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			ON CONFLICT (seq) DO NOTHING
		`,
			int64(r.Seq),
			r.Timestamp,
			r.Op,
			r.Status,
			r.ErrorKind,
			r.Error,
			r.Pool,
			nullableNumeric(r.Output),
			nullableNumeric(r.BaseOut),
			nullableNumeric(r.TokenOut),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range receipts {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPools inserts or updates the current reserves of each pool.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolState) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, token, base_reserve, token_reserve, total_shares, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				base_reserve = EXCLUDED.base_reserve,
				token_reserve = EXCLUDED.token_reserve,
				total_shares = EXCLUDED.total_shares,
				updated_at = now()
		`,
			p.Address,
			p.Token,
			p.Reserves.Base,
			p.Reserves.Token,
			p.Reserves.TotalShares,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot returns the snapshot stored under name.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (model.Snapshot, bool, error) {
	if name == "" {
		return model.Snapshot{}, false, fmt.Errorf("state name required")
	}
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT snapshot FROM amm_state WHERE name=$1`, name)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse snapshot %s: %w", name, err)
	}
	return snap, true, nil
}

// SaveSnapshot upserts the snapshot stored under name.
func (s *Store) SaveSnapshot(ctx context.Context, name string, snap model.Snapshot) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO amm_state (name, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = now()
	`, name, data)
	return err
}

func nullableNumeric(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
