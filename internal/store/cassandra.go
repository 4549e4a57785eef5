package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gocql/gocql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/cassandra"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	config "github.com/shivamghaware/BlogIn/internal/init"
)

// --- Interfaces ---

type SessionInterface interface {
	Query(stmt string, values ...interface{}) *gocql.Query
	NewBatch(batchType gocql.BatchType) *gocql.Batch
	ExecuteBatch(batch *gocql.Batch) error
	Close()
}

// --- Cassandra implementation ---

// CassandraKV stores every key as one row of the kv table.
type CassandraKV struct {
	Session SessionInterface
}

// OpenCassandra ensures the keyspace, applies migrations and connects.
func OpenCassandra(cfg *config.Config) (*CassandraKV, error) {
	if err := ensureKeyspace(cfg); err != nil {
		return nil, fmt.Errorf("failed to ensure keyspace: %w", err)
	}

	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cluster := gocql.NewCluster(cfg.CassandraHost)
	cluster.Keyspace = cfg.CassandraKeyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.CassandraTimeout
	cluster.ConnectTimeout = cfg.CassandraTimeout

	if cfg.CassandraUsername != "" && cfg.CassandraPassword != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.CassandraUsername,
			Password: cfg.CassandraPassword,
		}
	}

	if cfg.CassandraDC != "" {
		cluster.HostFilter = gocql.DataCentreHostFilter(cfg.CassandraDC)
	}

	sess, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Cassandra session: %w", err)
	}

	logg.Info("store", "Connected to Cassandra keyspace (host anonymized)")
	return &CassandraKV{Session: sess}, nil
}

// --- Ensure keyspace exists before migrations ---

func ensureKeyspace(cfg *config.Config) error {
	cluster := gocql.NewCluster(cfg.CassandraHost)
	cluster.Keyspace = "system"
	cluster.Timeout = cfg.CassandraTimeout
	sess, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("failed to connect to Cassandra system keyspace: %w", err)
	}
	defer sess.Close()

	query := fmt.Sprintf(`
        CREATE KEYSPACE IF NOT EXISTS %s
        WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1};
    `, cfg.CassandraKeyspace)

	if err := sess.Query(query).Exec(); err != nil {
		return fmt.Errorf("failed to create keyspace: %w", err)
	}

	logg.Info("store", "Ensured Cassandra keyspace exists (keyspace name anonymized)")
	return nil
}

// --- Migration runner ---

func runMigrations(cfg *config.Config) error {
	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(cfg.CassandraMigrations))
	dbURL := fmt.Sprintf(
		"cassandra://%s/%s?x-migrations-table=schema_migrations&x-multi-statement=true",
		cfg.CassandraHost, cfg.CassandraKeyspace,
	)

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}

	if err == migrate.ErrNoChange {
		logg.Info("store", "No new migrations to apply")
	} else {
		logg.Info("store", "Migrations applied successfully")
	}
	return nil
}

func (c *CassandraKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.Session.Query(`SELECT value FROM kv WHERE key = ?`, key).
		WithContext(ctx).
		Scan(&value)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		logg.Error("store", "Failed to read key from Cassandra", err)
		return nil, err
	}
	return value, nil
}

func (c *CassandraKV) Set(ctx context.Context, key string, value []byte) error {
	if err := c.Session.Query(`INSERT INTO kv (key, value) VALUES (?, ?)`, key, value).
		WithContext(ctx).
		Exec(); err != nil {
		logg.Error("store", "Failed to write key to Cassandra", err)
		return err
	}
	return nil
}

func (c *CassandraKV) Delete(ctx context.Context, key string) error {
	if err := c.Session.Query(`DELETE FROM kv WHERE key = ?`, key).
		WithContext(ctx).
		Exec(); err != nil {
		logg.Error("store", "Failed to delete key from Cassandra", err)
		return err
	}
	return nil
}

// SetMany writes all entries in one logged batch so they land together.
func (c *CassandraKV) SetMany(ctx context.Context, entries []Entry) error {
	batch := c.Session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, e := range entries {
		if e.Delete {
			batch.Query(`DELETE FROM kv WHERE key = ?`, e.Key)
			continue
		}
		batch.Query(`INSERT INTO kv (key, value) VALUES (?, ?)`, e.Key, e.Value)
	}

	if err := c.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to execute Cassandra batch", err)
		return err
	}
	return nil
}

// Close gracefully closes Cassandra session.
func (c *CassandraKV) Close() error {
	if c.Session != nil {
		c.Session.Close()
		logg.Info("store", "Cassandra session closed")
	}
	return nil
}
