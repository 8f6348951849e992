// Package idgen generates collision-free durable identifiers: fixed-length
// numeric account identifiers and globally unique topic identifiers.
//
// The pre-insert existence checks here are only an optimization. Two
// concurrent allocations can both observe "not present" for the same
// candidate, so the caller's subsequent insert must be guarded by a
// uniqueness constraint at the store, and a constraint violation there means
// "allocate again", not a fatal error.
package idgen

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/chatgate/internal/common"
	"github.com/dmitrijs2005/chatgate/internal/server/metrics"
	"github.com/dmitrijs2005/chatgate/internal/server/repositories/exchanges"
	"github.com/dmitrijs2005/chatgate/internal/server/repositories/users"
	"github.com/google/uuid"
)

// maxAttempts caps allocation retries. Collisions are astronomically rare at
// the configured identifier lengths; hitting the cap means something is
// broken and is surfaced as ErrAllocationExhausted.
const maxAttempts = 100

type Allocator struct {
	users     users.Repository
	exchanges exchanges.Repository
}

func NewAllocator(users users.Repository, exchanges exchanges.Repository) *Allocator {
	return &Allocator{users: users, exchanges: exchanges}
}

// AccountID draws uniformly random numeric strings of the given width until
// one is not present in the account index.
func (a *Allocator) AccountID(ctx context.Context, length int) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := common.MakeRandDigitString(length)
		if err != nil {
			return "", fmt.Errorf("id generation error: %w", err)
		}

		exists, err := a.users.ExternalIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}

		metrics.AllocatorRetries.Inc()
	}

	return "", common.ErrAllocationExhausted
}

// TopicID draws a 128-bit identifier and, for defense in depth, verifies no
// exchange of the account already uses it.
func (a *Allocator) TopicID(ctx context.Context, accountID string) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id := uuid.NewString()

		exists, err := a.exchanges.TopicExists(ctx, accountID, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}

		metrics.AllocatorRetries.Inc()
	}

	return "", common.ErrAllocationExhausted
}
