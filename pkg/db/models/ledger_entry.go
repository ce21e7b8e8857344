package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lumenacademy/lumenpay-backend/pkg/enums"
)

// LedgerEntry records an immutable money fact tied to an order. Entries are
// only ever appended; the unique source_event_id is what makes the append
// idempotent across redelivered provider events.
type LedgerEntry struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	AmountCents   int                 `gorm:"column:amount_cents;not null"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null"`
	Source        enums.PaymentSource `gorm:"column:source;type:text;not null"`
	SourceEventID string              `gorm:"column:source_event_id;not null;unique"`
	Metadata      json.RawMessage     `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
