package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/remitware/remit/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidClaim    = errors.New("invalid claim")
	ErrInvalidDecision = errors.New("invalid decision")
	ErrInvalidOutcome  = errors.New("invalid outcome")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateClaim validates a claim before persistence.
func validateClaim(claim *model.Claim) error {
	if claim == nil {
		return fmt.Errorf("%w: claim", ErrNilParameter)
	}
	if err := claim.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
	if claim.Status == "" {
		return fmt.Errorf("%w: missing status", ErrInvalidClaim)
	}
	return nil
}

// validateDecision validates an agent decision record.
func validateDecision(decision *model.AgentDecision) error {
	if decision == nil {
		return fmt.Errorf("%w: decision", ErrNilParameter)
	}
	if decision.ClaimID == "" {
		return fmt.Errorf("%w: missing claim ID", ErrInvalidDecision)
	}
	if decision.Decision == "" {
		return fmt.Errorf("%w: missing decision", ErrInvalidDecision)
	}
	if decision.Confidence < 0 || decision.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidDecision)
	}
	return nil
}

// validateOutcome validates an outcome record.
func validateOutcome(outcome *model.Outcome) error {
	if outcome == nil {
		return fmt.Errorf("%w: outcome", ErrNilParameter)
	}
	if outcome.ClaimID == "" {
		return fmt.Errorf("%w: missing claim ID", ErrInvalidOutcome)
	}
	if outcome.ActionTaken == "" {
		return fmt.Errorf("%w: missing action", ErrInvalidOutcome)
	}
	switch outcome.Result {
	case model.OutcomePending, model.OutcomeSuccess, model.OutcomeFailure:
	default:
		return fmt.Errorf("%w: unknown result %q", ErrInvalidOutcome, outcome.Result)
	}
	return nil
}
