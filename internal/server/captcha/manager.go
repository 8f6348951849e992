package captcha

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatgate/internal/common"
)

// Manager owns the challenge lifecycle: issue into a slot, consume exactly
// once.
type Manager struct {
	store SlotStore
	ttl   time.Duration
}

func NewManager(store SlotStore, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// Issue generates a fresh challenge and binds its answer to the caller's
// slot. Only the most recently issued challenge per slot is ever valid.
func (m *Manager) Issue(ctx context.Context, slot string) (*Challenge, error) {
	challenge, err := Generate()
	if err != nil {
		return nil, err
	}

	if err := m.store.Bind(ctx, slot, challenge.Answer, m.ttl); err != nil {
		return nil, err
	}

	return challenge, nil
}

// CheckAndConsume reports whether supplied matches the answer bound to slot,
// comparing case-insensitively. The binding is cleared no matter the
// outcome, so a second check for the same issuance always fails. A slot with
// no binding yields common.ErrChallengeExpired.
func (m *Manager) CheckAndConsume(ctx context.Context, slot, supplied string) (bool, error) {
	expected, err := m.store.Take(ctx, slot)
	if err != nil {
		if errors.Is(err, common.ErrChallengeExpired) {
			return false, common.ErrChallengeExpired
		}
		return false, err
	}

	return strings.EqualFold(strings.TrimSpace(supplied), expected), nil
}
