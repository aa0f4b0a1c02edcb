// internal/session/redis.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"returns-insights/internal/models"
)

// RedisStore persists sessions in Redis with a TTL so abandoned
// conversations expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client as a session store. Keys expire after ttl;
// a non-positive ttl disables expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}

	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Put(ctx context.Context, s *models.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), raw, r.expiry()).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", s.ID, err)
	}
	return nil
}

// CompareAndSwap uses WATCH so the version check and the write execute
// atomically against concurrent writers of the same key.
func (r *RedisStore) CompareAndSwap(ctx context.Context, s *models.Session) error {
	key := sessionKey(s.ID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if s.Version != 0 {
				return ErrNotFound
			}
		case err != nil:
			return fmt.Errorf("failed to fetch session %s: %w", s.ID, err)
		default:
			var stored models.Session
			if err := json.Unmarshal(raw, &stored); err != nil {
				return fmt.Errorf("failed to decode session %s: %w", s.ID, err)
			}
			if stored.Version != s.Version {
				return ErrVersionConflict
			}
		}

		s.Version++
		encoded, err := json.Marshal(s)
		if err != nil {
			s.Version--
			return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.expiry())
			return nil
		})
		if err != nil {
			s.Version--
		}
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func (r *RedisStore) expiry() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	return r.ttl
}
