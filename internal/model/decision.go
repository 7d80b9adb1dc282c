package model

import "time"

// AgentDecision is the audit record of one decision-engine invocation.
// The record is written before any execution is attempted; only the
// execution and override fields are mutated afterwards, at most once each.
type AgentDecision struct {
	CreatedAt             time.Time
	HistoricalSuccessRate *float64
	ID                    string
	ClaimID               string
	Rationale             string
	ExecutedAction        string
	ExecutionResult       string
	HumanReviewer         string
	HumanNotes            string
	Decision              DecisionAction
	DenialCategory        DenialCategory
	PayerType             PayerType
	RuleBaseline          RecommendedAction
	MissingInfo           []string
	Confidence            float64
	RequiresHumanReview   bool
	WasExecuted           bool
	HumanOverride         bool
}
