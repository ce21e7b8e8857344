package reconcile

import (
	"context"

	"github.com/lumenacademy/lumenpay-backend/pkg/db"
	"github.com/lumenacademy/lumenpay-backend/pkg/db/models"
	"gorm.io/gorm"
)

// EventRepository persists the processed-event admission records. Admission
// rows share the transaction of the order/ledger writes they guard, so a
// crash can never leave an event marked processed without its effect.
type EventRepository interface {
	WithTx(tx *gorm.DB) EventRepository
	// TryAdmit inserts the admission row and reports whether this call won.
	// A false return means the event id was admitted before and the caller
	// must treat the event as already processed.
	TryAdmit(ctx context.Context, event *models.ProcessedEvent) (bool, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository builds the admission repository bound to the provided DB.
func NewEventRepository(conn *gorm.DB) EventRepository {
	return &eventRepository{db: conn}
}

func (r *eventRepository) WithTx(tx *gorm.DB) EventRepository {
	if tx == nil {
		return r
	}
	return &eventRepository{db: tx}
}

func (r *eventRepository) TryAdmit(ctx context.Context, event *models.ProcessedEvent) (bool, error) {
	err := r.db.WithContext(ctx).Create(event).Error
	if err == nil {
		return true, nil
	}
	if db.IsUniqueViolation(err, "processed_events_pkey") {
		return false, nil
	}
	return false, err
}
