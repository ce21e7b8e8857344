package webhooks

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/lumenacademy/lumenpay-backend/api/responses"
	"github.com/lumenacademy/lumenpay-backend/internal/reconcile"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
	"github.com/lumenacademy/lumenpay-backend/pkg/logger"
	"github.com/lumenacademy/lumenpay-backend/pkg/metrics"
)

const metricsPathWebhook = "webhook"

// ConfirmationGateway is the surface the webhook controller needs from the
// confirmation gateway.
type ConfirmationGateway interface {
	HandleVerifiedWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (*reconcile.ApplyResult, error)
}

type webhookResponse struct {
	Status          string `json:"status"`
	OrderID         string `json:"order_id,omitempty"`
	OrderStatus     string `json:"order_status,omitempty"`
	AmountPaidCents int    `json:"amount_paid_cents,omitempty"`
}

// PaymentsWebhook handles the provider's signed payment notifications.
// Duplicates are acknowledged with 200 so the provider stops retrying.
func PaymentsWebhook(gateway ConfirmationGateway, signatureHeader string, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if gateway == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "confirmation gateway unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		start := time.Now()
		result, err := gateway.HandleVerifiedWebhook(ctx, payload, r.Header.Get(signatureHeader))
		m.ObserveDuration(metricsPathWebhook, time.Since(start))
		if err != nil {
			m.IncRejected(metricsPathWebhook, rejectionReason(err))
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if result == nil {
			responses.WriteSuccess(w, webhookResponse{Status: "ignored"})
			return
		}
		if result.Duplicate {
			m.IncDuplicate(metricsPathWebhook)
			responses.WriteSuccess(w, duplicateResponse(result))
			return
		}

		m.IncApplied(metricsPathWebhook)
		responses.WriteSuccess(w, webhookResponse{
			Status:          "applied",
			OrderID:         result.Order.ID.String(),
			OrderStatus:     result.Order.Status.String(),
			AmountPaidCents: result.Order.AmountPaidCents,
		})
	}
}

func duplicateResponse(result *reconcile.ApplyResult) webhookResponse {
	resp := webhookResponse{Status: "duplicate"}
	if result.Order != nil {
		resp.OrderID = result.Order.ID.String()
		resp.OrderStatus = result.Order.Status.String()
		resp.AmountPaidCents = result.Order.AmountPaidCents
	}
	return resp
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
