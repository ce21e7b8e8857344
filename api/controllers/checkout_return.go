package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenacademy/lumenpay-backend/api/responses"
	"github.com/lumenacademy/lumenpay-backend/api/validators"
	"github.com/lumenacademy/lumenpay-backend/internal/reconcile"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
	"github.com/lumenacademy/lumenpay-backend/pkg/logger"
	"github.com/lumenacademy/lumenpay-backend/pkg/metrics"
)

const metricsPathClientReturn = "client_return"

// ClientReturnGateway is the surface the checkout-return controller needs
// from the confirmation gateway.
type ClientReturnGateway interface {
	HandleClientReturn(ctx context.Context, orderID uuid.UUID, claimedAmountCents int) (*reconcile.ApplyResult, error)
}

type checkoutReturnRequest struct {
	AmountCents int `json:"amount_cents" validate:"min=0"`
}

type checkoutReturnResponse struct {
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status,omitempty"`
	Duplicate   bool   `json:"duplicate"`
}

// CheckoutReturn handles the browser landing back on the site after checkout.
// The caller is untrusted, so its claimed amount is recorded but never
// credited, and failures are reported without internal detail.
func CheckoutReturn(gateway ClientReturnGateway, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		// Checkout redirects often carry the claimed amount as a query
		// parameter instead of a body; accept either.
		var body checkoutReturnRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		} else {
			amount, err := validators.ParseQueryInt(r, "amount_cents", 0)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if amount < 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount_cents must not be negative"))
				return
			}
			body.AmountCents = amount
		}

		start := time.Now()
		result, err := gateway.HandleClientReturn(ctx, orderID, body.AmountCents)
		m.ObserveDuration(metricsPathClientReturn, time.Since(start))
		if err != nil {
			m.IncRejected(metricsPathClientReturn, rejectionReason(err))
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if result.Duplicate {
			m.IncDuplicate(metricsPathClientReturn)
		} else {
			m.IncApplied(metricsPathClientReturn)
		}

		resp := checkoutReturnResponse{OrderID: orderID.String(), Duplicate: result.Duplicate}
		if result.Order != nil {
			resp.OrderStatus = result.Order.Status.String()
		}
		responses.WriteSuccess(w, resp)
	}
}

func rejectionReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "internal"
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation:
		return "invalid_payload"
	case pkgerrors.CodeNotFound:
		return "order_not_found"
	case pkgerrors.CodeCurrencyMismatch:
		return "currency_mismatch"
	default:
		return "internal"
	}
}
