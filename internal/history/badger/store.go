// Package badger persists recent searches on local disk for the command-line
// client, the durable local storage of the discovery view.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/nefol/discovery/internal/history"
)

// Store implements history.RecentStore on BadgerDB. Each user's list is a
// JSON array under "recent-searches/<user>".
type Store struct {
	db     *badger.DB
	limit  int
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens the store at dir, creating the directory if needed. An empty
// dir with inMemory set opens a throwaway store, used by tests.
func Open(dir string, inMemory bool, limit int, logger *slog.Logger) (*Store, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	if limit <= 0 {
		limit = history.DefaultRecentLimit
	}
	return &Store{db: db, limit: limit, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func recentKey(user string) []byte {
	return []byte(history.RecentNamespace + "/" + user)
}

// Recent returns the recent searches of user.
func (s *Store) Recent(_ context.Context, user string) ([]string, error) {
	var list []string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		list, err = readList(txn, recentKey(user))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read recent searches: %w", err)
	}
	return list, nil
}

// Push records query as the most recent search of user. Conflicting writers
// are retried by badger's optimistic transactions.
func (s *Store) Push(_ context.Context, user, query string) ([]string, error) {
	key := recentKey(user)
	var result []string

	for attempt := 0; attempt < 3; attempt++ {
		err := s.db.Update(func(txn *badger.Txn) error {
			list, err := readList(txn, key)
			if err != nil {
				return err
			}
			result = history.Push(list, query, s.limit)

			data, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("marshal recent searches: %w", err)
			}
			return txn.Set(key, data)
		})
		if errors.Is(err, badger.ErrConflict) {
			s.logger.Debug("recent search write conflict, retrying", "user", user)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("write recent searches: %w", err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("write recent searches: %w", badger.ErrConflict)
}

// Clear removes the recent searches of user.
func (s *Store) Clear(_ context.Context, user string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recentKey(user))
	})
	if err != nil {
		return fmt.Errorf("clear recent searches: %w", err)
	}
	return nil
}

func readList(txn *badger.Txn, key []byte) ([]string, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var list []string
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &list)
	})
	if err != nil {
		return nil, fmt.Errorf("decode recent searches: %w", err)
	}
	return list, nil
}
