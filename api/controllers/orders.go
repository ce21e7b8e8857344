package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenacademy/lumenpay-backend/api/responses"
	"github.com/lumenacademy/lumenpay-backend/internal/ledger"
	"github.com/lumenacademy/lumenpay-backend/internal/orders"
	"github.com/lumenacademy/lumenpay-backend/internal/reconcile"
	"github.com/lumenacademy/lumenpay-backend/pkg/db/models"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
	"github.com/lumenacademy/lumenpay-backend/pkg/logger"
)

type orderResponse struct {
	ID              string               `json:"id"`
	CourseID        string               `json:"course_id"`
	BuyerEmail      string               `json:"buyer_email"`
	Currency        string               `json:"currency"`
	AmountDueCents  int                  `json:"amount_due_cents"`
	AmountPaidCents int                  `json:"amount_paid_cents"`
	Status          string               `json:"status"`
	ConfirmedAt     *time.Time           `json:"confirmed_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	Entries         []ledgerEntryPayload `json:"ledger_entries"`
}

type ledgerEntryPayload struct {
	ID            string    `json:"id"`
	AmountCents   int       `json:"amount_cents"`
	Currency      string    `json:"currency"`
	Source        string    `json:"source"`
	SourceEventID string    `json:"source_event_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// GetOrder returns the order snapshot with its full ledger history.
func GetOrder(ordersRepo orders.Repository, ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order"))
			return
		}

		entries, err := ledgerSvc.EntriesForOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries"))
			return
		}

		responses.WriteSuccess(w, toOrderResponse(order, entries))
	}
}

// GetOrderAudit recomputes the order's paid total from the ledger and reports
// whether the cached projection agrees with it.
func GetOrderAudit(auditor reconcile.Auditor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		report, err := auditor.CheckOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

func toOrderResponse(order *models.Order, entries []models.LedgerEntry) orderResponse {
	payload := orderResponse{
		ID:              order.ID.String(),
		CourseID:        order.CourseID.String(),
		BuyerEmail:      order.BuyerEmail,
		Currency:        order.Currency.String(),
		AmountDueCents:  order.AmountDueCents,
		AmountPaidCents: order.AmountPaidCents,
		Status:          order.Status.String(),
		ConfirmedAt:     order.ConfirmedAt,
		CreatedAt:       order.CreatedAt,
		Entries:         make([]ledgerEntryPayload, 0, len(entries)),
	}
	for _, entry := range entries {
		payload.Entries = append(payload.Entries, ledgerEntryPayload{
			ID:            entry.ID.String(),
			AmountCents:   entry.AmountCents,
			Currency:      entry.Currency.String(),
			Source:        entry.Source.String(),
			SourceEventID: entry.SourceEventID,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return payload
}
