package tracker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "payment_status:"

// RedisTracker keeps payment status entries in Redis so they survive
// process restarts. Entries are stored without a TTL, matching the
// no-eviction behavior of the in-memory tracker.
type RedisTracker struct {
	client *redis.Client
}

func NewRedisTracker(addr string) *RedisTracker {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisTracker{client: rdb}
}

func (t *RedisTracker) Set(ctx context.Context, checkoutRequestID, state, description string) error {
	entry := Entry{
		State:       state,
		Description: description,
		UpdatedAt:   time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return t.client.Set(ctx, redisKeyPrefix+checkoutRequestID, data, 0).Err()
}

func (t *RedisTracker) Get(ctx context.Context, checkoutRequestID string) (Entry, bool) {
	data, err := t.client.Get(ctx, redisKeyPrefix+checkoutRequestID).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Failed to fetch payment status for %s: %v", checkoutRequestID, err)
		}
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		log.Printf("Failed to decode payment status for %s: %v", checkoutRequestID, err)
		return Entry{}, false
	}
	return entry, true
}

func (t *RedisTracker) Remove(ctx context.Context, checkoutRequestID string) error {
	return t.client.Del(ctx, redisKeyPrefix+checkoutRequestID).Err()
}
