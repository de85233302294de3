package enums

import "fmt"

// AdminTier sub-classifies admin accounts for elevated operations.
type AdminTier string

const (
	AdminTierNone       AdminTier = "none"
	AdminTierAdmin      AdminTier = "admin"
	AdminTierSuperAdmin AdminTier = "super_admin"
)

var validAdminTiers = []AdminTier{
	AdminTierNone,
	AdminTierAdmin,
	AdminTierSuperAdmin,
}

// String implements fmt.Stringer.
func (a AdminTier) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdminTier.
func (a AdminTier) IsValid() bool {
	for _, candidate := range validAdminTiers {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsElevated reports whether the tier carries admin permissions.
func (a AdminTier) IsElevated() bool {
	return a == AdminTierAdmin || a == AdminTierSuperAdmin
}

// ParseAdminTier converts raw input into an AdminTier.
func ParseAdminTier(value string) (AdminTier, error) {
	for _, candidate := range validAdminTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin tier %q", value)
}
