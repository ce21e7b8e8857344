package confirmation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/lumenacademy/lumenpay-backend/internal/reconcile"
	providerwebhook "github.com/lumenacademy/lumenpay-backend/internal/webhooks/provider"
	"github.com/lumenacademy/lumenpay-backend/pkg/enums"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
	"github.com/lumenacademy/lumenpay-backend/pkg/logger"
)

// clientFallbackPrefix derives the synthetic event id for the untrusted
// return path. One fixed id per order makes the fallback itself idempotent
// even though it cannot know the provider's real event id.
const clientFallbackPrefix = "client-fallback:"

type dedupeGuard interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// GatewayParams wires the gateway's collaborators.
type GatewayParams struct {
	Verifier *providerwebhook.Verifier
	Engine   reconcile.Engine
	Guard    dedupeGuard
	Logger   *logger.Logger
}

// Gateway is the single entry point for both confirmation paths. The trusted
// webhook path is signature-verified; the client-return path is not and is
// therefore never allowed to introduce new monetary facts.
type Gateway struct {
	verifier *providerwebhook.Verifier
	engine   reconcile.Engine
	guard    dedupeGuard
	logg     *logger.Logger
}

// NewGateway builds a confirmation gateway from the given params.
func NewGateway(params GatewayParams) (*Gateway, error) {
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "signature verifier required")
	}
	if params.Engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation engine required")
	}
	return &Gateway{
		verifier: params.Verifier,
		engine:   params.Engine,
		guard:    params.Guard,
		logg:     params.Logger,
	}, nil
}

// HandleVerifiedWebhook processes a provider notification: verify the
// signature over the raw body, decode, then apply. Unhandled event types are
// acknowledged with a nil result so the provider stops redelivering them.
func (g *Gateway) HandleVerifiedWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (*reconcile.ApplyResult, error) {
	if err := g.verifier.Verify(rawBody, signatureHeader); err != nil {
		return nil, err
	}

	event, err := providerwebhook.DecodeEvent(rawBody)
	if err != nil {
		return nil, err
	}
	if !event.IsPaymentType() {
		return nil, nil
	}

	input, err := event.ApplyInput()
	if err != nil {
		return nil, err
	}

	if g.logg != nil {
		ctx = g.logg.WithEventID(ctx, input.EventID)
		ctx = g.logg.WithOrderID(ctx, input.OrderID.String())
	}

	return g.apply(ctx, input)
}

// HandleClientReturn processes the unauthenticated "return from checkout"
// navigation. The claimed amount is recorded in entry metadata for audit but
// never credited; the entry is a zero-amount confirmation marker.
func (g *Gateway) HandleClientReturn(ctx context.Context, orderID uuid.UUID, claimedAmountCents int) (*reconcile.ApplyResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	metadata, err := json.Marshal(map[string]string{
		"claimed_amount_cents": strconv.Itoa(claimedAmountCents),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode entry metadata")
	}

	input := reconcile.ApplyInput{
		OrderID:     orderID,
		EventID:     clientFallbackPrefix + orderID.String(),
		AmountCents: 0,
		Source:      enums.PaymentSourceClientFallback,
		Metadata:    metadata,
	}

	if g.logg != nil {
		ctx = g.logg.WithEventID(ctx, input.EventID)
		ctx = g.logg.WithOrderID(ctx, orderID.String())
	}

	return g.apply(ctx, input)
}

func (g *Gateway) apply(ctx context.Context, input reconcile.ApplyInput) (*reconcile.ApplyResult, error) {
	if g.guard != nil {
		seen, err := g.guard.Seen(ctx, input.EventID)
		if err != nil {
			// Redis being down must not block money movement; the durable
			// admission check still dedupes.
			if g.logg != nil {
				g.logg.Warn(ctx, fmt.Sprintf("idempotency fast-path unavailable: %v", err))
			}
		} else if seen {
			if g.logg != nil {
				g.logg.Info(ctx, "event skipped by fast-path dedupe")
			}
			return &reconcile.ApplyResult{Duplicate: true}, nil
		}
	}

	result, err := g.engine.Apply(ctx, input)
	if err != nil {
		return nil, err
	}

	// Marked only after the durable commit. A crash before this point leaves
	// no mark, so the retry reaches the engine and the processed_events row
	// answers. Concurrent slips past the unmarked window are harmless for
	// the same reason.
	if g.guard != nil {
		if markErr := g.guard.Mark(ctx, input.EventID); markErr != nil && g.logg != nil {
			g.logg.Warn(ctx, fmt.Sprintf("idempotency fast-path mark failed: %v", markErr))
		}
	}

	if g.logg != nil {
		if result.Duplicate {
			g.logg.Info(ctx, "event already applied, no-op")
		} else {
			g.logg.Info(ctx, "payment event applied")
		}
	}
	return result, nil
}
