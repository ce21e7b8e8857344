package reconcile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lumenacademy/lumenpay-backend/internal/ledger"
	"github.com/lumenacademy/lumenpay-backend/internal/orders"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
	"gorm.io/gorm"
)

// AuditReport compares the cached paid total on the order with the fold over
// its ledger entries. The ledger sum is the source of truth; the cached field
// is a reconstructable projection, so drift is reported rather than assumed
// impossible.
type AuditReport struct {
	OrderID         uuid.UUID `json:"order_id"`
	AmountPaidCents int       `json:"amount_paid_cents"`
	LedgerSumCents  int       `json:"ledger_sum_cents"`
	EntryCount      int       `json:"entry_count"`
	Consistent      bool      `json:"consistent"`
}

// Auditor recomputes derived order totals from the ledger.
type Auditor interface {
	CheckOrder(ctx context.Context, orderID uuid.UUID) (*AuditReport, error)
}

type auditor struct {
	orders orders.Repository
	ledger ledger.Repository
}

// NewAuditor builds an auditor over the given repositories.
func NewAuditor(ordersRepo orders.Repository, ledgerRepo ledger.Repository) (Auditor, error) {
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if ledgerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository required")
	}
	return &auditor{orders: ordersRepo, ledger: ledgerRepo}, nil
}

func (a *auditor) CheckOrder(ctx context.Context, orderID uuid.UUID) (*AuditReport, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := a.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	entries, err := a.ledger.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	sum := 0
	for _, entry := range entries {
		sum += entry.AmountCents
	}

	return &AuditReport{
		OrderID:         order.ID,
		AmountPaidCents: order.AmountPaidCents,
		LedgerSumCents:  sum,
		EntryCount:      len(entries),
		Consistent:      order.AmountPaidCents == sum,
	}, nil
}
