package model

import "time"

// OutcomeResult is the tri-state result of an executed decision.
type OutcomeResult string

// Outcome results.
const (
	OutcomePending OutcomeResult = "PENDING"
	OutcomeSuccess OutcomeResult = "SUCCESS"
	OutcomeFailure OutcomeResult = "FAILURE"
)

// TriState is a boolean that also encodes "not yet known" as the empty
// string. It keeps pre-resolution appeal/resubmission flags distinguishable
// from an explicit false in the audit trail.
type TriState string

// TriState values.
const (
	TriUnknown TriState = ""
	TriTrue    TriState = "true"
	TriFalse   TriState = "false"
)

// TriFromBool converts a known boolean into a TriState.
func TriFromBool(b bool) TriState {
	if b {
		return TriTrue
	}
	return TriFalse
}

// Outcome records the eventual result of an executed decision. It is
// created PENDING at execution time and resolved exactly once when the
// claim reaches a terminal or re-denied status.
type Outcome struct {
	CreatedAt              time.Time
	OutcomeDate            *time.Time
	RevenueRecovered       *float64
	DaysToResolution       *int
	ID                     string
	ClaimID                string
	AgentDecisionID        string
	HumanFeedback          string
	ActionTaken            DecisionAction
	DenialCategory         DenialCategory
	Result                 OutcomeResult
	FinalStatus            ClaimStatus
	AppealSuccessful       TriState
	ResubmissionSuccessful TriState
}
