package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lumenacademy/lumenpay-backend/pkg/db/models"
	"github.com/lumenacademy/lumenpay-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL,
  buyer_email TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  amount_due_cents INTEGER NOT NULL,
  amount_paid_cents INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  confirmed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

func newOrder() *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		CourseID:       uuid.New(),
		BuyerEmail:     "learner@example.com",
		Currency:       enums.CurrencyUSD,
		AmountDueCents: 49900,
		Status:         enums.OrderStatusPending,
	}
}

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newOrder()
	require.NoError(t, repo.Create(ctx, order))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
	assert.Equal(t, 49900, found.AmountDueCents)
}

func TestRepositoryFindMissing(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindForUpdate(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newOrder()
	require.NoError(t, repo.Create(ctx, order))

	found, err := repo.FindByIDForUpdate(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
}

func TestRepositoryUpdate(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newOrder()
	require.NoError(t, repo.Create(ctx, order))

	order.AmountPaidCents = 49900
	order.Status = enums.OrderStatusConfirmed
	require.NoError(t, repo.Update(ctx, order))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 49900, found.AmountPaidCents)
	assert.Equal(t, enums.OrderStatusConfirmed, found.Status)
}

func TestRepositoryWithTxSharesTransaction(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newOrder()
	err := conn.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).Create(ctx, order)
	})
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
}
