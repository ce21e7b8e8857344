package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lumenacademy/lumenpay-backend/pkg/db/models"
)

// Service exposes read operations over the ledger for callers outside the
// reconciliation engine. Appends go through the engine's transaction, never
// through this service.
type Service interface {
	EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	// BalanceForOrder folds the ledger into the authoritative paid total.
	BalanceForOrder(ctx context.Context, orderID uuid.UUID) (int, error)
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}

func (s *service) BalanceForOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	if orderID == uuid.Nil {
		return 0, fmt.Errorf("order id is required")
	}
	return s.repo.SumByOrderID(ctx, orderID)
}
