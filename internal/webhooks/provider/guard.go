package providerwebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumenacademy/lumenpay-backend/pkg/redis"
)

// Guard is a redis fast-path dedupe in front of the durable admission check.
// It short-circuits obvious redeliveries; the processed_events row inside the
// reconciliation transaction remains authoritative. Marks are written only
// after the durable commit, so a crash mid-apply never leaves a mark for an
// event whose effect was lost.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

// NewGuard builds a webhook guard over the given idempotency store.
func NewGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &Guard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

// Seen reports whether the event already carries a fast-path mark.
func (g *Guard) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	key := g.store.IdempotencyKey(g.scope, eventID)
	seen, err := g.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check idempotency key: %w", err)
	}
	return seen, nil
}

// Mark records the event as applied. Callers mark only after the durable
// write committed.
func (g *Guard) Mark(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	key := g.store.IdempotencyKey(g.scope, eventID)
	if _, err := g.store.SetNX(ctx, key, "1", g.ttl); err != nil {
		return fmt.Errorf("set idempotency key: %w", err)
	}
	return nil
}

// Delete clears the mark so the next delivery goes through the durable check.
func (g *Guard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	key := g.store.IdempotencyKey(g.scope, eventID)
	return g.store.Del(ctx, key)
}
