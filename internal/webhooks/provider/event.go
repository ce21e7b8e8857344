package providerwebhook

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/lumenacademy/lumenpay-backend/internal/reconcile"
	"github.com/lumenacademy/lumenpay-backend/pkg/enums"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
)

const metadataOrderIDKey = "order_id"

// PaymentEvent is the provider's webhook envelope.
type PaymentEvent struct {
	EventID string           `json:"event_id"`
	Type    string           `json:"type"`
	Data    PaymentEventData `json:"data"`
}

// PaymentEventData wraps the event's payment object.
type PaymentEventData struct {
	Object PaymentEventObject `json:"object"`
}

// PaymentEventObject carries the payment itself.
type PaymentEventObject struct {
	Payment *Payment `json:"payment"`
}

// Payment is the provider's payment record. The order id travels in the
// caller-supplied metadata set at checkout time.
type Payment struct {
	ID          string            `json:"id"`
	AmountCents int               `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Status      string            `json:"status"`
	Metadata    map[string]string `json:"metadata"`
}

// DecodeEvent parses a raw webhook body into a PaymentEvent.
func DecodeEvent(payload []byte) (*PaymentEvent, error) {
	var event PaymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment event")
	}
	if strings.TrimSpace(event.EventID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id missing")
	}
	return &event, nil
}

// IsPaymentType reports whether the event type mutates payment state.
// Unhandled types are acknowledged without processing.
func (e *PaymentEvent) IsPaymentType() bool {
	switch strings.ToLower(e.Type) {
	case "payment.created", "payment.updated":
		return true
	default:
		return false
	}
}

// ApplyInput extracts the reconciliation input from a payment event.
func (e *PaymentEvent) ApplyInput() (reconcile.ApplyInput, error) {
	payment := e.Data.Object.Payment
	if payment == nil {
		return reconcile.ApplyInput{}, pkgerrors.New(pkgerrors.CodeValidation, "payment payload missing")
	}

	rawOrderID := payment.Metadata[metadataOrderIDKey]
	if rawOrderID == "" {
		return reconcile.ApplyInput{}, pkgerrors.New(pkgerrors.CodeValidation, "order id missing from payment metadata")
	}
	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		return reconcile.ApplyInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id in payment metadata")
	}

	currency, err := enums.ParseCurrency(payment.Currency)
	if err != nil {
		return reconcile.ApplyInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency in payment")
	}

	metadata, err := json.Marshal(map[string]string{
		"payment_id": payment.ID,
		"event_type": e.Type,
	})
	if err != nil {
		return reconcile.ApplyInput{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode entry metadata")
	}

	return reconcile.ApplyInput{
		OrderID:     orderID,
		EventID:     e.EventID,
		AmountCents: payment.AmountCents,
		Currency:    currency,
		Source:      enums.PaymentSourceProvider,
		Metadata:    metadata,
	}, nil
}
