package models

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedEvent marks a provider event as admitted for application. Rows are
// inserted in the same transaction as the order/ledger writes they guard and
// are never updated afterwards.
type ProcessedEvent struct {
	SourceEventID string    `gorm:"column:source_event_id;primaryKey"`
	OrderID       uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	AppliedAt     time.Time `gorm:"column:applied_at;autoCreateTime"`
}
