package kv

import (
	"context"
	_ "embed"
	"errors"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/store"
)

//go:embed schema.sql
var schema string

// PG stores records in the kv_records table
type PG struct {
	db store.TxRunner
}

// NewPG returns a Postgres backend over db
func NewPG(db store.TxRunner) *PG { return &PG{db: db} }

var _ Backend = (*PG)(nil)

// EnsureSchema creates the table and index when missing
func (p *PG) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, schema)
	return perr.FromPostgres(err, "kv: ensure schema")
}

func (p *PG) Get(ctx context.Context, ns Namespace, key string) ([]byte, bool, error) {
	const q = `SELECT value FROM kv_records WHERE namespace = $1 AND repository = $2 AND key = $3`
	raw, err := store.Scalar[[]byte](ctx, p.db, q, ns.Name, ns.Repository, key)
	if errors.Is(err, perr.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, perr.FromPostgres(err, "kv: get")
	}
	return raw, true, nil
}

func (p *PG) Put(ctx context.Context, ns Namespace, key string, value []byte) error {
	const q = `
		INSERT INTO kv_records (namespace, repository, key, value, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, now())
		ON CONFLICT (namespace, repository, key) DO UPDATE
		SET value      = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := p.db.Exec(ctx, q, ns.Name, ns.Repository, key, string(value))
	return perr.FromPostgres(err, "kv: put")
}

func (p *PG) Remove(ctx context.Context, ns Namespace, key string) error {
	const q = `DELETE FROM kv_records WHERE namespace = $1 AND repository = $2 AND key = $3`
	_, err := p.db.Exec(ctx, q, ns.Name, ns.Repository, key)
	return perr.FromPostgres(err, "kv: remove")
}

type record struct {
	key   string
	value []byte
}

func scanRecord(r store.Row) (record, error) {
	var rec record
	err := r.Scan(&rec.key, &rec.value)
	return rec, err
}

func (p *PG) All(ctx context.Context, ns Namespace) (map[string][]byte, error) {
	const q = `SELECT key, value FROM kv_records WHERE namespace = $1 AND repository = $2 ORDER BY key`
	recs, err := store.Many(ctx, p.db, scanRecord, q, ns.Name, ns.Repository)
	if err != nil {
		return nil, perr.FromPostgres(err, "kv: all")
	}
	out := make(map[string][]byte, len(recs))
	for _, r := range recs {
		out[r.key] = r.value
	}
	return out, nil
}

func (p *PG) DropRepository(ctx context.Context, repositoryID string) error {
	if repositoryID == "" {
		return perr.InvalidArgf("kv: drop repository: empty id")
	}
	_, err := p.db.Exec(ctx, `DELETE FROM kv_records WHERE repository = $1`, repositoryID)
	return perr.FromPostgres(err, "kv: drop repository")
}
