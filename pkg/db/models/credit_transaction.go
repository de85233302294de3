package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// CreditTransaction is an append-only ledger row. Positive points are earned,
// negative points are spent; a user's balance is the sum of their rows.
type CreditTransaction struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Points      int                `gorm:"column:points;not null"`
	Reason      enums.CreditReason `gorm:"column:reason;type:text;not null"`
	ReferenceID *uuid.UUID         `gorm:"column:reference_id;type:uuid"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
