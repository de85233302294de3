package enums

import "fmt"

// UpgradeStatus tracks the lifecycle of a role upgrade request.
type UpgradeStatus string

const (
	UpgradeStatusPending  UpgradeStatus = "pending"
	UpgradeStatusApproved UpgradeStatus = "approved"
	UpgradeStatusRejected UpgradeStatus = "rejected"
)

var validUpgradeStatuses = []UpgradeStatus{
	UpgradeStatusPending,
	UpgradeStatusApproved,
	UpgradeStatusRejected,
}

// String implements fmt.Stringer.
func (u UpgradeStatus) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UpgradeStatus.
func (u UpgradeStatus) IsValid() bool {
	for _, candidate := range validUpgradeStatuses {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUpgradeStatus converts raw input into an UpgradeStatus.
func ParseUpgradeStatus(value string) (UpgradeStatus, error) {
	for _, candidate := range validUpgradeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid upgrade status %q", value)
}
