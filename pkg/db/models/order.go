package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenacademy/lumenpay-backend/pkg/enums"
)

// Order represents a single enrollment purchase. AmountPaidCents is a derived
// projection of the ledger and is mutated only by the reconciliation engine.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CourseID        uuid.UUID         `gorm:"column:course_id;type:uuid;not null"`
	BuyerEmail      string            `gorm:"column:buyer_email;not null"`
	Currency        enums.Currency    `gorm:"column:currency;type:text;not null;default:'USD'"`
	AmountDueCents  int               `gorm:"column:amount_due_cents;not null"`
	AmountPaidCents int               `gorm:"column:amount_paid_cents;not null;default:0"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ConfirmedAt     *time.Time        `gorm:"column:confirmed_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
