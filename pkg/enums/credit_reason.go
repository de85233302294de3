package enums

import "fmt"

// CreditReason classifies entries in the credit ledger.
type CreditReason string

const (
	CreditReasonOrderCompleted   CreditReason = "order_completed"
	CreditReasonReferral         CreditReason = "referral"
	CreditReasonManualAdjustment CreditReason = "manual_adjustment"
	CreditReasonRedeem           CreditReason = "redeem"
)

var validCreditReasons = []CreditReason{
	CreditReasonOrderCompleted,
	CreditReasonReferral,
	CreditReasonManualAdjustment,
	CreditReasonRedeem,
}

// String implements fmt.Stringer.
func (c CreditReason) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CreditReason.
func (c CreditReason) IsValid() bool {
	for _, candidate := range validCreditReasons {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCreditReason converts raw input into a CreditReason.
func ParseCreditReason(value string) (CreditReason, error) {
	for _, candidate := range validCreditReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid credit reason %q", value)
}
