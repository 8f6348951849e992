package captcha

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/chatgate/internal/common"
	"github.com/go-redis/redis/v8"
)

// SlotStore is the keyed ephemeral capability challenges are bound to. One
// slot belongs to one logical caller session; binding overwrites any prior
// unconsumed challenge for that slot.
type SlotStore interface {
	// Bind stores the expected answer for slot, replacing any previous one.
	Bind(ctx context.Context, slot, answer string, ttl time.Duration) error

	// Take atomically reads and clears the answer bound to slot. A missing
	// binding (never issued, expired, or already consumed) is reported as
	// common.ErrChallengeExpired.
	Take(ctx context.Context, slot string) (string, error)
}

const slotKeyPrefix = "captcha:"

// RedisSlotStore backs challenge slots with Redis. GETDEL makes the
// read-and-clear a single operation, so two concurrent consume attempts for
// the same slot can never both observe the answer.
type RedisSlotStore struct {
	client *redis.Client
}

func NewRedisSlotStore(client *redis.Client) *RedisSlotStore {
	return &RedisSlotStore{client: client}
}

func (s *RedisSlotStore) Bind(ctx context.Context, slot, answer string, ttl time.Duration) error {
	return s.client.Set(ctx, slotKeyPrefix+slot, answer, ttl).Err()
}

func (s *RedisSlotStore) Take(ctx context.Context, slot string) (string, error) {
	answer, err := s.client.GetDel(ctx, slotKeyPrefix+slot).Result()
	if errors.Is(err, redis.Nil) {
		return "", common.ErrChallengeExpired
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}
