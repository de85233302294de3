package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cliffindus/marketplace-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	Role       enums.Role
	IsVerified bool
	AdminTier  enums.AdminTier
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID     uuid.UUID       `json:"user_id"`
	Role       enums.Role      `json:"role"`
	IsVerified bool            `json:"is_verified"`
	AdminTier  enums.AdminTier `json:"admin_tier"`
	jwt.RegisteredClaims
}
