package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix is prepended to each segment key.
const DefaultRedisKeyPrefix = "ipsleuth:segment:"

type redisStore struct {
	client *redis.Client
	prefix string
}

func (r redisStore) Name() string {
	return NameRedis
}

func (r redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()

	switch {
	case errors.Is(err, redis.Nil):
		return nil, sleuthlib.ErrSegmentNotFound
	case err != nil:
		return nil, fmt.Errorf("cannot get a document: %w", err)
	}

	return data, nil
}

func (r redisStore) Put(ctx context.Context, key string, doc []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, doc, 0).Err(); err != nil {
		return fmt.Errorf("cannot set a document: %w", err)
	}

	return nil
}

func (r redisStore) Close() error {
	return r.client.Close()
}

// NewRedis returns a store which keeps documents as redis strings.
// Documents never expire.
func NewRedis(ctx context.Context, opts *redis.Options, prefix string) (sleuthlib.SegmentStore, error) {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()

		return nil, fmt.Errorf("cannot connect to redis: %w", err)
	}

	return redisStore{
		client: client,
		prefix: prefix,
	}, nil
}
