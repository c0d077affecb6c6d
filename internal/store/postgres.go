package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a KV backed by a single key/value table in Postgres.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to Postgres with the given DSN and ensures the
// kv table exists.
func OpenPostgres(dsn string) (*Postgres, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	_, err = pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS kv (
            key   TEXT PRIMARY KEY,
            value BYTEA NOT NULL
        )`)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := p.pool.QueryRow(context.Background(),
		`SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (p *Postgres) Put(key string, value []byte) error {
	_, err := p.pool.Exec(context.Background(), `
        INSERT INTO kv (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	return err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
