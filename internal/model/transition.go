package model

import "time"

// StateTransition is an immutable audit record of one claim status change.
// FromStatus is nil only for the record written when the claim is created.
type StateTransition struct {
	CreatedAt  time.Time
	FromStatus *ClaimStatus
	ID         string
	ClaimID    string
	ToStatus   ClaimStatus
	Reason     string
}
