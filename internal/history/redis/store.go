package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nefol/discovery/internal/history"
)

const (
	keyPrefix  = "discovery:"
	popularKey = keyPrefix + "popular-queries"
	maxRetries = 3
)

// Store implements history.RecentStore and history.PopularStore using Redis.
// Recent lists are JSON arrays under discovery:recent-searches:<user>;
// popular counts live in a sorted set.
type Store struct {
	client *redis.Client
	limit  int
}

// NewStore creates a new Redis-backed history store.
func NewStore(client *redis.Client, limit int) *Store {
	if limit <= 0 {
		limit = history.DefaultRecentLimit
	}
	return &Store{client: client, limit: limit}
}

func recentKey(user string) string {
	return keyPrefix + history.RecentNamespace + ":" + user
}

// Recent retrieves the recent searches of user.
func (s *Store) Recent(ctx context.Context, user string) ([]string, error) {
	list, err := s.get(ctx, s.client, recentKey(user))
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Push records query as the most recent search of user. The read-modify-write
// runs under WATCH and is retried when another writer wins the race.
func (s *Store) Push(ctx context.Context, user, query string) ([]string, error) {
	key := recentKey(user)
	var result []string

	txf := func(tx *redis.Tx) error {
		list, err := s.get(ctx, tx, key)
		if err != nil {
			return err
		}
		result = history.Push(list, query, s.limit)

		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal recent searches: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("redis push recent search: %w", err)
	}
	return nil, fmt.Errorf("redis push recent search: %w", redis.TxFailedErr)
}

// Clear removes the recent searches of user.
func (s *Store) Clear(ctx context.Context, user string) error {
	if err := s.client.Del(ctx, recentKey(user)).Err(); err != nil {
		return fmt.Errorf("redis del recent searches: %w", err)
	}
	return nil
}

// Record counts one submission of query.
func (s *Store) Record(ctx context.Context, query string) error {
	member := history.NormalizeQuery(query)
	if member == "" {
		return nil
	}
	if err := s.client.ZIncrBy(ctx, popularKey, 1, member).Err(); err != nil {
		return fmt.Errorf("redis record popular query: %w", err)
	}
	return nil
}

// Top returns the n most submitted queries.
func (s *Store) Top(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	top, err := s.client.ZRevRange(ctx, popularKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis top popular queries: %w", err)
	}
	return top, nil
}

// Ping checks connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) get(ctx context.Context, c redis.Cmdable, key string) ([]string, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("redis get recent searches: %w", err)
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unmarshal recent searches: %w", err)
	}
	return list, nil
}
