package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Phone        string          `gorm:"column:phone;not null"`
	Address      *string         `gorm:"column:address"`
	Role         enums.Role      `gorm:"column:role;type:text;not null;default:'consumer'"`
	IsVerified   bool            `gorm:"column:is_verified;not null;default:false"`
	AdminTier    enums.AdminTier `gorm:"column:admin_tier;type:text;not null;default:'none'"`
	VerifiedByID *uuid.UUID      `gorm:"column:verified_by_id;type:uuid"`
	VerifiedAt   *time.Time      `gorm:"column:verified_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
