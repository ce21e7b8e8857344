package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lumenacademy/lumenpay-backend/internal/ledger"
	"github.com/lumenacademy/lumenpay-backend/internal/orders"
	"github.com/lumenacademy/lumenpay-backend/pkg/db"
	"github.com/lumenacademy/lumenpay-backend/pkg/db/models"
	"github.com/lumenacademy/lumenpay-backend/pkg/enums"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
	"gorm.io/gorm"
)

// errDuplicateEvent aborts the transaction when admission loses the race.
// Nothing has been written at that point, so the rollback is a no-op.
var errDuplicateEvent = errors.New("event already processed")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ApplyInput carries one payment event into the engine.
type ApplyInput struct {
	OrderID     uuid.UUID
	EventID     string
	AmountCents int
	// Currency may be empty on the client-fallback path, in which case the
	// order's own currency is used and no mismatch check applies.
	Currency enums.Currency
	Source   enums.PaymentSource
	Metadata json.RawMessage
}

// ApplyResult reports the outcome of applying a payment event. Duplicate
// marks the successful no-op outcome of redelivery; it is never an error.
type ApplyResult struct {
	Order     *models.Order
	Entry     *models.LedgerEntry
	Duplicate bool
}

// Engine applies payment events to the order store and ledger exactly once.
type Engine interface {
	Apply(ctx context.Context, input ApplyInput) (*ApplyResult, error)
}

// EngineParams wires the engine's collaborators.
type EngineParams struct {
	Orders            orders.Repository
	Ledger            ledger.Repository
	Events            EventRepository
	TransactionRunner txRunner
	ApplyTimeout      time.Duration
}

type engine struct {
	orders  orders.Repository
	ledger  ledger.Repository
	events  EventRepository
	tx      txRunner
	timeout time.Duration
}

// NewEngine builds a reconciliation engine from the given params.
func NewEngine(params EngineParams) (Engine, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event repository required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &engine{
		orders:  params.Orders,
		ledger:  params.Ledger,
		events:  params.Events,
		tx:      params.TransactionRunner,
		timeout: params.ApplyTimeout,
	}, nil
}

// Apply admits the event, appends the ledger entry and folds the order's
// paid total in one transaction. Redelivered events collapse to a no-op
// result; concurrent applies on the same order serialize on the row lock.
func (e *engine) Apply(ctx context.Context, input ApplyInput) (*ApplyResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var result *ApplyResult
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := e.orders.WithTx(tx)

		order, err := ordersRepo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
					WithDetails(map[string]string{"order_id": input.OrderID.String()})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// Checked before admission so a mismatched redelivery is never
		// marked processed and can be fixed upstream.
		if input.Currency != "" && input.Currency != order.Currency {
			return pkgerrors.New(pkgerrors.CodeCurrencyMismatch, "event currency does not match order").
				WithDetails(map[string]string{
					"order_currency": order.Currency.String(),
					"event_currency": input.Currency.String(),
				})
		}

		admitted, err := e.events.WithTx(tx).TryAdmit(ctx, &models.ProcessedEvent{
			SourceEventID: input.EventID,
			OrderID:       order.ID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "admit event")
		}
		if !admitted {
			return errDuplicateEvent
		}

		currency := input.Currency
		if currency == "" {
			currency = order.Currency
		}
		entry := &models.LedgerEntry{
			ID:            uuid.New(),
			OrderID:       order.ID,
			AmountCents:   input.AmountCents,
			Currency:      currency,
			Source:        input.Source,
			SourceEventID: input.EventID,
			Metadata:      input.Metadata,
		}
		if err := e.ledger.WithTx(tx).Create(ctx, entry); err != nil {
			if db.IsUniqueViolation(err, "ledger_entries_source_event_id_key") {
				return errDuplicateEvent
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
		}

		order.AmountPaidCents += input.AmountCents
		confirm := order.AmountPaidCents >= order.AmountDueCents ||
			input.Source == enums.PaymentSourceClientFallback
		if order.Status == enums.OrderStatusPending && confirm {
			now := time.Now().UTC()
			order.Status = enums.OrderStatusConfirmed
			order.ConfirmedAt = &now
		}
		if err := ordersRepo.Update(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		result = &ApplyResult{Order: order, Entry: entry}
		return nil
	})
	if err != nil {
		if errors.Is(err, errDuplicateEvent) {
			order, lookupErr := e.orders.FindByID(ctx, input.OrderID)
			if lookupErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "load order after duplicate")
			}
			return &ApplyResult{Order: order, Duplicate: true}, nil
		}
		return nil, err
	}
	return result, nil
}

func validateInput(input ApplyInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.EventID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	if input.AmountCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	if !input.Source.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment source is required")
	}
	if input.Source == enums.PaymentSourceProvider && !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "currency is required")
	}
	if input.Currency != "" && !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "currency is not supported")
	}
	return nil
}
