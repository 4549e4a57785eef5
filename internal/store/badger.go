package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig holds configuration for the embedded BadgerDB backend.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	SyncWrites bool

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// DefaultBadgerConfig returns production defaults for path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// BadgerKV implements KV on BadgerDB.
type BadgerKV struct {
	db     *badger.DB
	stopGC chan struct{}
	doneGC chan struct{}
}

// badgerLogger routes BadgerDB's internal logging into ours.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logg.Error("store/badger", fmt.Sprintf(format, args...), nil)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logg.Warn("store/badger", fmt.Sprintf(format, args...), nil)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logg.Debug("store/badger", fmt.Sprintf(format, args...))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logg.Debug("store/badger", fmt.Sprintf(format, args...))
}

// OpenBadger opens a BadgerDB at cfg.Path, or in memory.
func OpenBadger(cfg BadgerConfig) (*BadgerKV, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	kv := &BadgerKV{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		kv.stopGC = make(chan struct{})
		kv.doneGC = make(chan struct{})
		go kv.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	logg.Info("store", "Opened badger store")
	return kv, nil
}

func (b *BadgerKV) runGC(interval time.Duration, ratio float64) {
	defer close(b.doneGC)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopGC:
			return
		case <-ticker.C:
			// ErrNoRewrite means no GC was needed
			if err := b.db.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				logg.Error("store/badger", "Value log GC failed", err)
			}
		}
	}
}

func (b *BadgerKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", key, err)
	}
	return out, nil
}

func (b *BadgerKV) Set(ctx context.Context, key string, value []byte) error {
	return b.SetMany(ctx, []Entry{{Key: key, Value: value}})
}

func (b *BadgerKV) Delete(ctx context.Context, key string) error {
	return b.SetMany(ctx, []Entry{{Key: key, Delete: true}})
}

func (b *BadgerKV) SetMany(ctx context.Context, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, e := range entries {
			var err error
			if e.Delete {
				err = txn.Delete([]byte(e.Key))
			} else {
				err = txn.Set([]byte(e.Key), e.Value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger update: %w", err)
	}
	return nil
}

// Close stops GC and closes the database.
func (b *BadgerKV) Close() error {
	if b.stopGC != nil {
		close(b.stopGC)
		<-b.doneGC
		b.stopGC = nil
	}
	return b.db.Close()
}
