package model

import "time"

// EventType identifies the kind of a claim timeline event.
type EventType string

// Claim event kinds.
const (
	EventStateTransition  EventType = "STATE_TRANSITION"
	EventDenialRecorded   EventType = "DENIAL_RECORDED"
	EventAgentDecision    EventType = "AGENT_DECISION"
	EventWorkflowExecuted EventType = "WORKFLOW_EXECUTED"
	EventHumanOverride    EventType = "HUMAN_OVERRIDE"
	EventValidationFailed EventType = "VALIDATION_FAILED"
)

// ClaimEvent is a generic append-only timeline entry for a claim.
type ClaimEvent struct {
	CreatedAt   time.Time
	Data        map[string]any
	ID          string
	ClaimID     string
	Description string
	Type        EventType
}
