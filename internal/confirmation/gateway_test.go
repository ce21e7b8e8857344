package confirmation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenacademy/lumenpay-backend/internal/reconcile"
	providerwebhook "github.com/lumenacademy/lumenpay-backend/internal/webhooks/provider"
	"github.com/lumenacademy/lumenpay-backend/pkg/db/models"
	"github.com/lumenacademy/lumenpay-backend/pkg/enums"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
)

type fakeEngine struct {
	inputs    []reconcile.ApplyInput
	result    *reconcile.ApplyResult
	err       error
	panicOnce bool
}

func (f *fakeEngine) Apply(ctx context.Context, input reconcile.ApplyInput) (*reconcile.ApplyResult, error) {
	f.inputs = append(f.inputs, input)
	if f.panicOnce {
		f.panicOnce = false
		panic("process died mid-apply")
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &reconcile.ApplyResult{Order: &models.Order{ID: input.OrderID}}, nil
}

type fakeGuard struct {
	seen    map[string]bool
	seenErr error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{seen: map[string]bool{}}
}

func (f *fakeGuard) Seen(ctx context.Context, eventID string) (bool, error) {
	if f.seenErr != nil {
		return false, f.seenErr
	}
	return f.seen[eventID], nil
}

func (f *fakeGuard) Mark(ctx context.Context, eventID string) error {
	f.seen[eventID] = true
	return nil
}

const testSecret = "whsec_test"

func newTestGateway(t *testing.T, engine *fakeEngine, guard dedupeGuard) (*Gateway, *providerwebhook.Verifier) {
	t.Helper()

	verifier, err := providerwebhook.NewVerifier(testSecret)
	require.NoError(t, err)

	gateway, err := NewGateway(GatewayParams{
		Verifier: verifier,
		Engine:   engine,
		Guard:    guard,
	})
	require.NoError(t, err)
	return gateway, verifier
}

func signedEvent(verifier *providerwebhook.Verifier, eventID, eventType string, orderID uuid.UUID) ([]byte, string) {
	body := []byte(fmt.Sprintf(`{
  "event_id": %q,
  "type": %q,
  "data": {"object": {"payment": {
    "id": "pay_123",
    "amount_cents": 30000,
    "currency": "USD",
    "status": "COMPLETED",
    "metadata": {"order_id": %q}
  }}}
}`, eventID, eventType, orderID.String()))
	return body, verifier.Sign(body)
}

func TestGatewayWebhookAppliesVerifiedEvent(t *testing.T) {
	engine := &fakeEngine{}
	gateway, verifier := newTestGateway(t, engine, newFakeGuard())
	orderID := uuid.New()

	body, sig := signedEvent(verifier, "evt_1", "payment.updated", orderID)
	result, err := gateway.HandleVerifiedWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, engine.inputs, 1)
	input := engine.inputs[0]
	assert.Equal(t, orderID, input.OrderID)
	assert.Equal(t, "evt_1", input.EventID)
	assert.Equal(t, 30000, input.AmountCents)
	assert.Equal(t, enums.PaymentSourceProvider, input.Source)
}

func TestGatewayWebhookRejectsBadSignature(t *testing.T) {
	engine := &fakeEngine{}
	gateway, verifier := newTestGateway(t, engine, newFakeGuard())

	body, _ := signedEvent(verifier, "evt_1", "payment.updated", uuid.New())
	_, err := gateway.HandleVerifiedWebhook(context.Background(), body, "deadbeef")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Empty(t, engine.inputs)
}

func TestGatewayWebhookAcknowledgesUnhandledTypes(t *testing.T) {
	engine := &fakeEngine{}
	gateway, verifier := newTestGateway(t, engine, newFakeGuard())

	body, sig := signedEvent(verifier, "evt_1", "refund.created", uuid.New())
	result, err := gateway.HandleVerifiedWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, engine.inputs)
}

func TestGatewayFastPathShortCircuitsRedelivery(t *testing.T) {
	engine := &fakeEngine{}
	guard := newFakeGuard()
	gateway, verifier := newTestGateway(t, engine, guard)
	orderID := uuid.New()

	body, sig := signedEvent(verifier, "evt_1", "payment.updated", orderID)

	_, err := gateway.HandleVerifiedWebhook(context.Background(), body, sig)
	require.NoError(t, err)

	result, err := gateway.HandleVerifiedWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	require.Len(t, engine.inputs, 1)
}

func TestGatewayFallsThroughWhenGuardUnavailable(t *testing.T) {
	engine := &fakeEngine{}
	guard := newFakeGuard()
	guard.seenErr = errors.New("connection refused")
	gateway, verifier := newTestGateway(t, engine, guard)

	body, sig := signedEvent(verifier, "evt_1", "payment.updated", uuid.New())
	_, err := gateway.HandleVerifiedWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	require.Len(t, engine.inputs, 1)
}

func TestGatewayEngineErrorLeavesNoMark(t *testing.T) {
	engine := &fakeEngine{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}
	guard := newFakeGuard()
	gateway, verifier := newTestGateway(t, engine, guard)

	body, sig := signedEvent(verifier, "evt_1", "payment.updated", uuid.New())
	_, err := gateway.HandleVerifiedWebhook(context.Background(), body, sig)
	require.Error(t, err)
	assert.False(t, guard.seen["evt_1"])

	engine.err = nil
	result, err := gateway.HandleVerifiedWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	require.Len(t, engine.inputs, 2)
}

func TestGatewayRetryAfterCrashReachesEngine(t *testing.T) {
	engine := &fakeEngine{panicOnce: true}
	guard := newFakeGuard()
	gateway, _ := newTestGateway(t, engine, guard)
	orderID := uuid.New()

	// First delivery dies mid-apply, before anything committed. No mark may
	// survive it, or the redelivery below would be swallowed as a duplicate
	// for the full TTL.
	func() {
		defer func() { _ = recover() }()
		_, _ = gateway.HandleClientReturn(context.Background(), orderID, 0)
	}()
	require.Len(t, engine.inputs, 1)
	assert.False(t, guard.seen[clientFallbackPrefix+orderID.String()])

	result, err := gateway.HandleClientReturn(context.Background(), orderID, 0)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	require.Len(t, engine.inputs, 2)
}

func TestGatewayMarksOnlyAfterSuccessfulApply(t *testing.T) {
	engine := &fakeEngine{}
	guard := newFakeGuard()
	gateway, _ := newTestGateway(t, engine, guard)
	orderID := uuid.New()

	_, err := gateway.HandleClientReturn(context.Background(), orderID, 0)
	require.NoError(t, err)
	assert.True(t, guard.seen[clientFallbackPrefix+orderID.String()])
}

func TestGatewayClientReturnBuildsSyntheticEvent(t *testing.T) {
	engine := &fakeEngine{}
	gateway, _ := newTestGateway(t, engine, newFakeGuard())
	orderID := uuid.New()

	result, err := gateway.HandleClientReturn(context.Background(), orderID, 30000)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, engine.inputs, 1)
	input := engine.inputs[0]
	assert.Equal(t, clientFallbackPrefix+orderID.String(), input.EventID)
	assert.Zero(t, input.AmountCents)
	assert.Equal(t, enums.PaymentSourceClientFallback, input.Source)
	assert.Empty(t, input.Currency)
	assert.JSONEq(t, `{"claimed_amount_cents":"30000"}`, string(input.Metadata))
}

func TestGatewayClientReturnRequiresOrderID(t *testing.T) {
	engine := &fakeEngine{}
	gateway, _ := newTestGateway(t, engine, newFakeGuard())

	_, err := gateway.HandleClientReturn(context.Background(), uuid.Nil, 0)
	require.Error(t, err)
	assert.Empty(t, engine.inputs)
}

func TestGatewayClientReturnRepeatIsDuplicate(t *testing.T) {
	engine := &fakeEngine{}
	gateway, _ := newTestGateway(t, engine, newFakeGuard())
	orderID := uuid.New()

	_, err := gateway.HandleClientReturn(context.Background(), orderID, 0)
	require.NoError(t, err)

	result, err := gateway.HandleClientReturn(context.Background(), orderID, 0)
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	require.Len(t, engine.inputs, 1)
}
