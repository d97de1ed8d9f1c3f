package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessingMarker is stored under a claimed key until the response is known.
const ProcessingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client redis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "idempotency:",
	}
}

// CheckAndSet atomically claims key. When the key is already held the stored
// value is returned; a nil response claims it with ProcessingMarker.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	value := ProcessingMarker
	if response != nil {
		value = string(response)
	}

	raw, err := scriptIdempotencyClaim.Run(ctx, s.client, []string{s.prefix + key}, value, ttl.Milliseconds()).Slice()
	if err != nil {
		return false, nil, err
	}
	if len(raw) != 2 {
		return false, nil, fmt.Errorf("unexpected idempotency script reply: %v", raw)
	}

	exists, _ := raw[0].(int64)
	if exists == 0 {
		return false, nil, nil
	}

	existing, _ := raw[1].(string)
	return true, []byte(existing), nil
}

// Update replaces the claimed value with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}

// Delete releases the key so a failed request can be retried.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
