package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
)

// keyPrefix namespaces every record so the store can share a Redis database
// with other tenants of the instance.
const keyPrefix = "lg"

// redisStore keeps each record as one string value under
// "lg:<collection>:<key>". List relies on SCAN, so collections are expected
// to stay small (hundreds of partners, a handful of templates).
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, recordKey(collection, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return value, nil
}

func (s *redisStore) Set(ctx context.Context, collection, key string, value []byte) error {
	if err := s.client.Set(ctx, recordKey(collection, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set record: %w", err)
	}
	return nil
}

func (s *redisStore) SetNX(ctx context.Context, collection, key string, value []byte) error {
	ok, err := s.client.SetNX(ctx, recordKey(collection, key), value, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	if !ok {
		return apperrors.ErrConflict
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, collection, key string) error {
	deleted, err := s.client.Del(ctx, recordKey(collection, key)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if deleted == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *redisStore) List(ctx context.Context, collection string) (map[string][]byte, error) {
	prefix := recordKey(collection, "")
	out := make(map[string][]byte)

	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		fullKey := iter.Val()
		value, err := s.client.Get(ctx, fullKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Deleted between SCAN and GET; skip.
				continue
			}
			return nil, fmt.Errorf("failed to read record %s: %w", fullKey, err)
		}
		out[strings.TrimPrefix(fullKey, prefix)] = value
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan collection %s: %w", collection, err)
	}

	return out, nil
}

func recordKey(collection, key string) string {
	return keyPrefix + ":" + collection + ":" + key
}

var _ Store = (*redisStore)(nil)
