package enums

import "fmt"

// Role is the closed set of marketplace actor roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleWholesaler Role = "wholesaler"
	RoleRetailer   Role = "retailer"
	RoleConsumer   Role = "consumer"
)

var validRoles = []Role{
	RoleAdmin,
	RoleWholesaler,
	RoleRetailer,
	RoleConsumer,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsSeller reports whether the role lists goods for sale.
func (r Role) IsSeller() bool {
	return r == RoleWholesaler || r == RoleRetailer
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
