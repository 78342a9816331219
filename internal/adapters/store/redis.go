package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// RedisStore keeps every lineup as a field of one Redis hash.
type RedisStore struct {
	client redis.Cmdable
	hash   string
}

// NewRedisStore uses hash as the Redis key holding all lineups.
func NewRedisStore(client redis.Cmdable, hash string) *RedisStore {
	return &RedisStore{client: client, hash: hash}
}

func (s *RedisStore) Write(ctx context.Context, lineup model.SubmittedLineup) error {
	data, err := encode(lineup)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.hash, lineup.Key, data).Err(); err != nil {
		return fmt.Errorf("%w: hset %s: %w", ErrStorageUnavailable, lineup.Key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (model.SubmittedLineup, error) {
	if err := checkKey(key); err != nil {
		return model.SubmittedLineup{}, err
	}
	data, err := s.client.HGet(ctx, s.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.SubmittedLineup{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return model.SubmittedLineup{}, fmt.Errorf("%w: hget %s: %w", ErrStorageUnavailable, key, err)
	}
	return decode(key, data)
}

func (s *RedisStore) ListAll(ctx context.Context) (Listing, error) {
	all, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return Listing{}, fmt.Errorf("%w: hgetall: %w", ErrStorageUnavailable, err)
	}
	var out Listing
	for key, raw := range all {
		l, err := decode(key, []byte(raw))
		if err != nil {
			out.addCorrupt(key, err)
			continue
		}
		out.Lineups = append(out.Lineups, l)
	}
	out.sort()
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	n, err := s.client.HDel(ctx, s.hash, key).Result()
	if err != nil {
		return fmt.Errorf("%w: hdel %s: %w", ErrStorageUnavailable, key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}
