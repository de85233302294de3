package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// RoleUpgradeRequest tracks a user's request to become a retailer or wholesaler.
type RoleUpgradeRequest struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	RequestedRole enums.Role          `gorm:"column:requested_role;type:text;not null"`
	BusinessName  *string             `gorm:"column:business_name"`
	Status        enums.UpgradeStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AdminComment  *string             `gorm:"column:admin_comment"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
