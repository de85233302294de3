package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliffindus/marketplace-backend/pkg/db/models"
	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID         uuid.UUID       `json:"id"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone,omitempty"`
	Address    *string         `json:"address,omitempty"`
	Role       enums.Role      `json:"role"`
	IsVerified bool            `json:"is_verified"`
	AdminTier  enums.AdminTier `json:"admin_tier,omitempty"`
	VerifiedAt *time.Time      `json:"verified_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// UpgradeDTO is the transport shape of a role upgrade request.
type UpgradeDTO struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	RequestedRole enums.Role          `json:"requested_role"`
	BusinessName  *string             `json:"business_name,omitempty"`
	Status        enums.UpgradeStatus `json:"status"`
	AdminComment  *string             `json:"admin_comment,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// FromModel converts a user model to its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		Phone:      u.Phone,
		Address:    u.Address,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		AdminTier:  u.AdminTier,
		VerifiedAt: u.VerifiedAt,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// UpgradeFromModel converts an upgrade request model to its transport shape.
func UpgradeFromModel(r *models.RoleUpgradeRequest) *UpgradeDTO {
	if r == nil {
		return nil
	}
	return &UpgradeDTO{
		ID:            r.ID,
		UserID:        r.UserID,
		RequestedRole: r.RequestedRole,
		BusinessName:  r.BusinessName,
		Status:        r.Status,
		AdminComment:  r.AdminComment,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// UpgradesFromModels converts a slice of upgrade requests.
func UpgradesFromModels(rows []models.RoleUpgradeRequest) []UpgradeDTO {
	out := make([]UpgradeDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *UpgradeFromModel(&rows[i]))
	}
	return out
}
