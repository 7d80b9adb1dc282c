// Package lifecycle enforces the directed graph of legal claim status
// transitions and stamps lifecycle timestamps as claims move through it.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/remitware/remit/internal/model"
)

// validTransitions is the authoritative transition table. CREATED carries
// an additional escape hatch handled in CanTransition: it may move directly
// to any other status for corrective or administrative moves.
var validTransitions = map[model.ClaimStatus][]model.ClaimStatus{
	// Initial validation flow
	model.StatusCreated:   {model.StatusValidated},
	model.StatusValidated: {model.StatusSubmitted},

	// Submission outcomes
	model.StatusSubmitted: {model.StatusRejected, model.StatusAccepted, model.StatusDenied},

	// Rejection handling
	model.StatusRejected: {model.StatusResubmitted, model.StatusWriteOff},

	// Denial handling
	model.StatusDenied: {model.StatusAppealPending, model.StatusResubmitted, model.StatusWriteOff},

	// Appeal flow
	model.StatusAppealPending: {model.StatusAccepted, model.StatusDenied, model.StatusWriteOff},

	// Resubmission flow
	model.StatusResubmitted: {model.StatusAccepted, model.StatusDenied, model.StatusRejected},

	// Payment and final states
	model.StatusAccepted: {model.StatusPaid, model.StatusWriteOff},
}

// TransitionError reports an attempted illegal transition. It carries the
// valid next states so callers can surface an actionable message.
type TransitionError struct {
	From      model.ClaimStatus
	To        model.ClaimStatus
	ValidNext []model.ClaimStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s, valid next states: %v",
		e.From, e.To, e.ValidNext)
}

// CanTransition reports whether a claim may move from one status to another.
// Self-transitions are never allowed; CREATED may move anywhere.
func CanTransition(from, to model.ClaimStatus) bool {
	if from == to {
		return false
	}
	if from == model.StatusCreated {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidNextStates returns the advertised next states from a status. For
// CREATED this is the normal flow (VALIDATED), not the escape hatch.
func ValidNextStates(from model.ClaimStatus) []model.ClaimStatus {
	next := validTransitions[from]
	out := make([]model.ClaimStatus, len(next))
	copy(out, next)
	return out
}

// Apply validates and performs a transition on the claim, stamping the
// lifecycle timestamps the target status implies, and returns the audit
// record describing it. On an illegal transition the claim is untouched
// and a *TransitionError is returned.
//
// Apply mutates only the in-memory claim. Persisting the claim, the
// returned record, and any events atomically is the caller's job.
func Apply(claim *model.Claim, target model.ClaimStatus, reason string, now time.Time) (model.StateTransition, error) {
	current := claim.Status

	if !CanTransition(current, target) {
		return model.StateTransition{}, &TransitionError{
			From:      current,
			To:        target,
			ValidNext: ValidNextStates(current),
		}
	}

	from := current
	transition := model.StateTransition{
		ClaimID:    claim.ID,
		FromStatus: &from,
		ToStatus:   target,
		Reason:     reason,
		CreatedAt:  now,
	}

	claim.Status = target
	claim.UpdatedAt = now

	switch target {
	case model.StatusSubmitted:
		stamped := now
		claim.SubmittedAt = &stamped
	case model.StatusAccepted, model.StatusDenied, model.StatusRejected:
		stamped := now
		claim.RespondedAt = &stamped
	case model.StatusPaid:
		stamped := now
		claim.PaidAt = &stamped
	}

	return transition, nil
}

// InitialTransition builds the creation audit record for a new claim:
// a nil from-status moving into CREATED.
func InitialTransition(claim *model.Claim, now time.Time) model.StateTransition {
	return model.StateTransition{
		ClaimID:   claim.ID,
		ToStatus:  model.StatusCreated,
		Reason:    "claim created",
		CreatedAt: now,
	}
}
