package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBlobStore keeps blobs as plain Redis string values under a prefix
type RedisBlobStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisBlobStore wraps an existing client
func NewRedisBlobStore(client redis.Cmdable, prefix string) *RedisBlobStore {
	return &RedisBlobStore{client: client, prefix: prefix}
}

func (r *RedisBlobStore) key(k string) string {
	return r.prefix + k
}

// Get reads a blob, mapping redis.Nil to ErrNotFound
func (r *RedisBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s from redis: %w", key, err)
	}
	return data, nil
}

// Put writes a blob without expiry
func (r *RedisBlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write blob %s to redis: %w", key, err)
	}
	return nil
}

// Delete removes a blob
func (r *RedisBlobStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete blob %s from redis: %w", key, err)
	}
	return nil
}
