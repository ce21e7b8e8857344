package reconcile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenacademy/lumenpay-backend/internal/ledger"
	"github.com/lumenacademy/lumenpay-backend/internal/orders"
	"github.com/lumenacademy/lumenpay-backend/pkg/db/models"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
)

func TestAuditorReportsConsistentOrder(t *testing.T) {
	conn := setupReconcileTestDB(t)
	engine := newTestEngine(t, conn)
	order := createPendingOrder(t, conn, 30000)

	_, err := engine.Apply(context.Background(), providerInput(order.ID, "evt_1", 10000))
	require.NoError(t, err)
	_, err = engine.Apply(context.Background(), providerInput(order.ID, "evt_2", 20000))
	require.NoError(t, err)

	auditor, err := NewAuditor(orders.NewRepository(conn), ledger.NewRepository(conn))
	require.NoError(t, err)

	report, err := auditor.CheckOrder(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, 30000, report.AmountPaidCents)
	assert.Equal(t, 30000, report.LedgerSumCents)
	assert.Equal(t, 2, report.EntryCount)
	assert.True(t, report.Consistent)
}

func TestAuditorDetectsDrift(t *testing.T) {
	conn := setupReconcileTestDB(t)
	engine := newTestEngine(t, conn)
	order := createPendingOrder(t, conn, 30000)

	_, err := engine.Apply(context.Background(), providerInput(order.ID, "evt_1", 10000))
	require.NoError(t, err)

	// Corrupt the cached projection behind the engine's back.
	require.NoError(t, conn.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("amount_paid_cents", 99999).Error)

	auditor, err := NewAuditor(orders.NewRepository(conn), ledger.NewRepository(conn))
	require.NoError(t, err)

	report, err := auditor.CheckOrder(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, 99999, report.AmountPaidCents)
	assert.Equal(t, 10000, report.LedgerSumCents)
	assert.False(t, report.Consistent)
}

func TestAuditorUnknownOrder(t *testing.T) {
	conn := setupReconcileTestDB(t)

	auditor, err := NewAuditor(orders.NewRepository(conn), ledger.NewRepository(conn))
	require.NoError(t, err)

	_, err = auditor.CheckOrder(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
