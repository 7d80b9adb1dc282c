// Package model defines the core domain models used throughout the application.
package model

// ClaimStatus represents a claim's position in its lifecycle.
type ClaimStatus string

// Claim lifecycle states.
const (
	StatusCreated       ClaimStatus = "CREATED"
	StatusValidated     ClaimStatus = "VALIDATED"
	StatusSubmitted     ClaimStatus = "SUBMITTED"
	StatusRejected      ClaimStatus = "REJECTED"
	StatusAccepted      ClaimStatus = "ACCEPTED"
	StatusDenied        ClaimStatus = "DENIED"
	StatusAppealPending ClaimStatus = "APPEAL_PENDING"
	StatusResubmitted   ClaimStatus = "RESUBMITTED"
	StatusPaid          ClaimStatus = "PAID"
	StatusWriteOff      ClaimStatus = "WRITE_OFF"
)

// AllStatuses lists every claim status in lifecycle order.
var AllStatuses = []ClaimStatus{
	StatusCreated,
	StatusValidated,
	StatusSubmitted,
	StatusRejected,
	StatusAccepted,
	StatusDenied,
	StatusAppealPending,
	StatusResubmitted,
	StatusPaid,
	StatusWriteOff,
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s ClaimStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusWriteOff
}

// Valid reports whether the status is a known lifecycle state.
func (s ClaimStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PayerType categorizes the insurance payer.
type PayerType string

// Payer categories.
const (
	PayerCommercial PayerType = "COMMERCIAL"
	PayerMedicare   PayerType = "MEDICARE"
	PayerMedicaid   PayerType = "MEDICAID"
	PayerSelfPay    PayerType = "SELF_PAY"
)
