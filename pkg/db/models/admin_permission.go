package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminPermission stores the elevated-operation flags for an admin-tier user.
// Created lazily whenever a user is saved with a non-none admin tier.
type AdminPermission struct {
	ID                     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdminID                uuid.UUID `gorm:"column:admin_id;type:uuid;not null;uniqueIndex"`
	CanManageUsers         bool      `gorm:"column:can_manage_users;not null;default:true"`
	CanViewRoleRequests    bool      `gorm:"column:can_view_role_requests;not null;default:true"`
	CanApproveRoleRequests bool      `gorm:"column:can_approve_role_requests;not null;default:false"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
