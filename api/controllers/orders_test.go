package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumenacademy/lumenpay-backend/internal/orders"
	"github.com/lumenacademy/lumenpay-backend/internal/reconcile"
	"github.com/lumenacademy/lumenpay-backend/pkg/db/models"
	"github.com/lumenacademy/lumenpay-backend/pkg/enums"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
)

type fakeOrdersRepo struct {
	order *models.Order
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrdersRepo) Create(ctx context.Context, order *models.Order) error { return nil }

func (f *fakeOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.order, nil
}

func (f *fakeOrdersRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeOrdersRepo) Update(ctx context.Context, order *models.Order) error { return nil }

type fakeLedgerService struct {
	entries []models.LedgerEntry
}

func (f *fakeLedgerService) EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	return f.entries, nil
}

func (f *fakeLedgerService) BalanceForOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	sum := 0
	for _, entry := range f.entries {
		sum += entry.AmountCents
	}
	return sum, nil
}

type fakeAuditor struct {
	report *reconcile.AuditReport
	err    error
}

func (f *fakeAuditor) CheckOrder(ctx context.Context, orderID uuid.UUID) (*reconcile.AuditReport, error) {
	return f.report, f.err
}

func TestGetOrderReturnsSnapshotWithLedger(t *testing.T) {
	now := time.Now().UTC()
	order := &models.Order{
		ID:              uuid.New(),
		CourseID:        uuid.New(),
		BuyerEmail:      "learner@example.com",
		Currency:        enums.CurrencyUSD,
		AmountDueCents:  30000,
		AmountPaidCents: 30000,
		Status:          enums.OrderStatusConfirmed,
		ConfirmedAt:     &now,
	}
	ledgerSvc := &fakeLedgerService{entries: []models.LedgerEntry{{
		ID:            uuid.New(),
		OrderID:       order.ID,
		AmountCents:   30000,
		Currency:      enums.CurrencyUSD,
		Source:        enums.PaymentSourceProvider,
		SourceEventID: "evt_1",
	}}}

	router := chi.NewRouter()
	router.Get("/orders/{orderId}", GetOrder(&fakeOrdersRepo{order: order}, ledgerSvc, nil))

	req := httptest.NewRequest(http.MethodGet, "/orders/"+order.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, order.ID.String(), envelope.Data.ID)
	assert.Equal(t, "confirmed", envelope.Data.Status)
	assert.Equal(t, 30000, envelope.Data.AmountPaidCents)
	require.Len(t, envelope.Data.Entries, 1)
	assert.Equal(t, "evt_1", envelope.Data.Entries[0].SourceEventID)
	assert.Equal(t, "provider", envelope.Data.Entries[0].Source)
}

func TestGetOrderNotFound(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/orders/{orderId}", GetOrder(&fakeOrdersRepo{}, &fakeLedgerService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrderInvalidID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/orders/{orderId}", GetOrder(&fakeOrdersRepo{}, &fakeLedgerService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderAudit(t *testing.T) {
	orderID := uuid.New()
	auditor := &fakeAuditor{report: &reconcile.AuditReport{
		OrderID:         orderID,
		AmountPaidCents: 30000,
		LedgerSumCents:  30000,
		EntryCount:      2,
		Consistent:      true,
	}}

	router := chi.NewRouter()
	router.Get("/orders/{orderId}/audit", GetOrderAudit(auditor, nil))

	req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String()+"/audit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data reconcile.AuditReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Consistent)
	assert.Equal(t, 2, envelope.Data.EntryCount)
}

func TestGetOrderAuditPropagatesErrors(t *testing.T) {
	auditor := &fakeAuditor{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}

	router := chi.NewRouter()
	router.Get("/orders/{orderId}/audit", GetOrderAudit(auditor, nil))

	req := httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString()+"/audit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
