package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BYTEA NOT NULL
)`

const pgUpsert = `INSERT INTO kv (key, value) VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

// PostgresKV stores every key as one row of the kv table.
type PostgresKV struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and creates the kv table if needed.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresKV, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	logg.Info("store", "Connected to Postgres (dsn anonymized)")
	return &PostgresKV{pool: pool}, nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	if _, err := p.pool.Exec(ctx, pgUpsert, key, value); err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}

// SetMany applies all entries inside one transaction.
func (p *PostgresKV) SetMany(ctx context.Context, entries []Entry) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, e := range entries {
			var err error
			if e.Delete {
				_, err = tx.Exec(ctx, `DELETE FROM kv WHERE key = $1`, e.Key)
			} else {
				_, err = tx.Exec(ctx, pgUpsert, e.Key, e.Value)
			}
			if err != nil {
				return fmt.Errorf("postgres batch %s: %w", e.Key, err)
			}
		}
		return nil
	})
}

func (p *PostgresKV) Close() error {
	p.pool.Close()
	return nil
}
