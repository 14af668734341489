// Package badgerstore persists settings rows in an embedded Badger database.
// It is a durable Backend implementation for hosts that do not bring their
// own storage.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-settings/pkg/backend"
)

// Config configures a badger-backed settings store.
type Config struct {
	// Path is the data directory. Required unless InMemory is set.
	Path string
	// InMemory keeps all data in memory; useful for tests.
	InMemory bool
	// SyncWrites forces fsync on every commit.
	SyncWrites bool
	// Logger is an optional structured logger. If nil, a default is used.
	Logger *logrus.Logger
}

// Store implements backend.Backend on top of badger.
type Store struct {
	db  *badger.DB
	log *logrus.Logger
}

// envelope is the persisted row shape. Values round-trip through JSON, so
// nested maps come back as map[string]any and numbers as float64.
type envelope struct {
	Value    any  `json:"value"`
	Autoload bool `json:"autoload,omitempty"`
}

// Open opens or creates the store at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badgerstore: path must be provided")
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.InMemory = cfg.InMemory
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open %q: %w", cfg.Path, err)
	}
	return &Store{db: db, log: cfg.Logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Read(_ context.Context, ref backend.Ref, key string) (any, bool, error) {
	id, err := ref.Identifier(key)
	if err != nil {
		return nil, false, err
	}

	var row envelope
	found := false
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			if err := json.Unmarshal(raw, &row); err != nil {
				return fmt.Errorf("badgerstore: decode %q: %w", id, err)
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return row.Value, true, nil
}

func (s *Store) Add(_ context.Context, ref backend.Ref, key string, value any, autoload bool) (bool, error) {
	id, err := ref.Identifier(key)
	if err != nil {
		return false, err
	}
	raw, err := encodeRow(id, value, autoload)
	if err != nil {
		return false, err
	}

	added := false
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(id))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set([]byte(id), raw); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"key": id}).WithError(err).Warn("badgerstore: add failed")
		return false, err
	}
	return added, nil
}

func (s *Store) Update(_ context.Context, ref backend.Ref, key string, value any, autoload bool) (bool, error) {
	id, err := ref.Identifier(key)
	if err != nil {
		return false, err
	}
	raw, err := encodeRow(id, value, autoload)
	if err != nil {
		return false, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(id), raw)
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"key": id}).WithError(err).Warn("badgerstore: update failed")
		return false, err
	}
	return true, nil
}

func (s *Store) Delete(_ context.Context, ref backend.Ref, key string) (bool, error) {
	id, err := ref.Identifier(key)
	if err != nil {
		return false, err
	}

	deleted := false
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete([]byte(id)); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"key": id}).WithError(err).Warn("badgerstore: delete failed")
		return false, err
	}
	return deleted, nil
}

func encodeRow(id string, value any, autoload bool) ([]byte, error) {
	raw, err := json.Marshal(envelope{Value: value, Autoload: autoload})
	if err != nil {
		return nil, fmt.Errorf("badgerstore: encode %q: %w", id, err)
	}
	return raw, nil
}
