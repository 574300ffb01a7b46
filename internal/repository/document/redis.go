package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

// DefaultRedisKey is the key the document is mirrored to.
const DefaultRedisKey = "site-environment:document"

// RedisRepository mirrors the document into a single Redis key.
// SET replaces the value in one command, so readers never see a partial document.
type RedisRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisRepository creates a repository writing to key.
// A zero ttl keeps the key until Remove.
func NewRedisRepository(client *redis.Client, key string, ttl time.Duration) *RedisRepository {
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisRepository{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Key returns the Redis key in use.
func (r *RedisRepository) Key() string {
	return r.key
}

// Save stores the encoded document under the key.
func (r *RedisRepository) Save(ctx context.Context, doc *environment.Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if err = r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}

	return nil
}

// Load returns the stored bytes.
func (r *RedisRepository) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get %s: %w", r.key, err)
	}

	return data, nil
}

// Remove deletes the key.
func (r *RedisRepository) Remove(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", r.key, err)
	}

	return nil
}
