// Package engine orchestrates the denial-resolution workflow: it classifies
// denials, invokes the decision engine, persists the audit trail, and drives
// the claim state machine. Every multi-entity write happens inside a single
// storage transaction so claim state and audit records never diverge.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/remitware/remit/internal/agent"
	"github.com/remitware/remit/internal/classifier"
	"github.com/remitware/remit/internal/common"
	"github.com/remitware/remit/internal/lifecycle"
	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/outcome"
	"github.com/remitware/remit/internal/service"
)

// DefaultConfidenceThreshold gates auto-execution and the human-review flag
// when the caller does not supply a threshold.
const DefaultConfidenceThreshold = 0.7

// Orchestrator coordinates claims, denials, decisions, and outcomes.
type Orchestrator struct {
	store service.Storage
	now   func() time.Time
}

// New creates an orchestrator over the given storage.
func New(store service.Storage) *Orchestrator {
	return &Orchestrator{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ExecutionResult reports what executing a decision did.
type ExecutionResult struct {
	Action          string
	Message         string
	AlreadyExecuted bool
}

// CreateClaim persists a new claim in CREATED status together with its
// initial transition record. Duplicate claim numbers are rejected.
func (o *Orchestrator) CreateClaim(ctx context.Context, claim *model.Claim) error {
	tx, err := o.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if claim.Status == "" {
		claim.Status = model.StatusCreated
	}
	now := o.now()
	transition := lifecycle.InitialTransition(claim, now)

	if err := tx.CreateClaim(ctx, claim); err != nil {
		return err
	}
	transition.ClaimID = claim.ID
	if err := tx.SaveTransition(ctx, &transition); err != nil {
		return err
	}
	if err := tx.SaveEvent(ctx, &model.ClaimEvent{
		ClaimID:     claim.ID,
		Type:        model.EventStateTransition,
		Data:        map[string]any{"from": nil, "to": string(claim.Status)},
		Description: fmt.Sprintf("Claim created in status %s", claim.Status),
		CreatedAt:   now,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit claim creation: %w", err)
	}

	slog.Info("Created claim", "claim_id", claim.ID, "claim_number", claim.ClaimNumber)
	return nil
}

// Transition moves a claim to the target status, recording the transition,
// an event, and resolving any pending outcomes the new status settles. A
// rejected transition leaves the claim untouched and writes nothing.
func (o *Orchestrator) Transition(ctx context.Context, claimID string, target model.ClaimStatus, reason string) (*model.Claim, error) {
	tx, err := o.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	claim, err := tx.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if err := o.applyTransition(ctx, tx, claim, target, reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}
	return claim, nil
}

// ValidNextStates returns the advertised next statuses for a claim.
func (o *Orchestrator) ValidNextStates(ctx context.Context, claimID string) ([]model.ClaimStatus, error) {
	claim, err := o.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return lifecycle.ValidNextStates(claim.Status), nil
}

// DenialParams carries the raw payer denial to record.
type DenialParams struct {
	ClaimID       string
	PayerID       string
	DenialCode    string
	DenialMessage string
	RawPayload    string
}

// RecordDenial classifies a raw payer denial and persists it as an
// immutable denial event, updating the claim's cached denial fields. The
// status transition to DENIED, when applicable, is the caller's move.
func (o *Orchestrator) RecordDenial(ctx context.Context, params DenialParams) (*model.DenialEvent, error) {
	tx, err := o.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	claim, err := tx.GetClaim(ctx, params.ClaimID)
	if err != nil {
		return nil, err
	}

	classification := classifier.Classify(claim.PayerType, params.DenialCode, params.DenialMessage, &classifier.ClaimContext{
		CPTCodes: claim.CPTCodes,
		ICDCodes: claim.ICDCodes,
		Amount:   claim.Amount,
	})

	payerID := params.PayerID
	if payerID == "" {
		payerID = claim.PayerID
	}

	now := o.now()
	event := &model.DenialEvent{
		ClaimID:           claim.ID,
		PayerID:           payerID,
		PayerType:         claim.PayerType,
		DenialCode:        params.DenialCode,
		DenialMessage:     params.DenialMessage,
		RawPayload:        params.RawPayload,
		Reason:            classification.Reason,
		Category:          classification.Category,
		Confidence:        classification.Confidence,
		RecommendedAction: classifier.BaselineAction(classification.Category),
		Details:           classification.Details,
		CreatedAt:         now,
	}
	if err := tx.SaveDenialEvent(ctx, event); err != nil {
		return nil, err
	}

	claim.DenialReason = string(classification.Reason)
	claim.DenialDetails = classification.Details
	claim.RecommendedAction = event.RecommendedAction
	claim.UpdatedAt = now
	if err := tx.UpdateClaim(ctx, claim); err != nil {
		return nil, err
	}

	if err := tx.SaveEvent(ctx, &model.ClaimEvent{
		ClaimID: claim.ID,
		Type:    model.EventDenialRecorded,
		Data: map[string]any{
			"denial_code": params.DenialCode,
			"category":    string(classification.Category),
			"confidence":  classification.Confidence,
		},
		Description: fmt.Sprintf("Denial recorded: %s (%s)", params.DenialCode, classification.Category),
		CreatedAt:   now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit denial: %w", err)
	}

	slog.Info("Recorded denial",
		"claim_id", claim.ID,
		"denial_code", params.DenialCode,
		"category", string(classification.Category),
		"confidence", classification.Confidence)
	return event, nil
}

// ProcessDenial runs the decision engine over a denied claim: it looks up
// the rule baseline and its historical success rate, decides, persists the
// decision record, and optionally auto-executes a confident decision.
// Execution failures are recorded into the decision and never abort the
// request. Returns the decision and whether it executed.
func (o *Orchestrator) ProcessDenial(ctx context.Context, claimID string, category model.DenialCategory, threshold float64, autoExecute bool) (*model.AgentDecision, bool, error) {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	tx, err := o.store.BeginTx(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	claim, err := tx.GetClaim(ctx, claimID)
	if err != nil {
		return nil, false, err
	}

	baseline := classifier.BaselineAction(category)
	rate, err := o.historicalRate(ctx, tx, category, baseline)
	if err != nil {
		return nil, false, err
	}

	result := agent.Decide(agent.Input{
		Context:               agent.ClaimContext{Amount: claim.Amount},
		Category:              category,
		PayerType:             claim.PayerType,
		RuleBaseline:          baseline,
		HistoricalSuccessRate: rate,
	})

	now := o.now()
	requiresReview := result.Confidence < threshold
	decision := &model.AgentDecision{
		ClaimID:               claim.ID,
		Decision:              result.Decision,
		Confidence:            result.Confidence,
		Rationale:             result.Rationale,
		MissingInfo:           result.MissingInfo,
		DenialCategory:        category,
		PayerType:             claim.PayerType,
		RuleBaseline:          baseline,
		HistoricalSuccessRate: rate,
		RequiresHumanReview:   requiresReview,
		CreatedAt:             now,
	}
	if err := tx.SaveDecision(ctx, decision); err != nil {
		return nil, false, err
	}

	if err := tx.SaveEvent(ctx, &model.ClaimEvent{
		ClaimID: claim.ID,
		Type:    model.EventAgentDecision,
		Data: map[string]any{
			"decision":        string(result.Decision),
			"confidence":      result.Confidence,
			"requires_review": requiresReview,
		},
		Description: fmt.Sprintf("Agent decision: %s", result.Decision),
		CreatedAt:   now,
	}); err != nil {
		return nil, false, err
	}

	claim.RecommendedAction = baseline
	claim.AgentConfidence = &decision.Confidence
	claim.RequiresHumanReview = requiresReview
	claim.UpdatedAt = now
	if err := tx.UpdateClaim(ctx, claim); err != nil {
		return nil, false, err
	}

	executed := false
	if autoExecute && result.Confidence >= threshold {
		execution, execErr := o.executeAction(ctx, tx, claim, result.Decision, category, decision.ID)
		if execErr != nil {
			decision.ExecutionResult = fmt.Sprintf("Execution failed: %v", execErr)
			slog.Error("Failed to auto-execute decision", "claim_id", claim.ID, "error", execErr)
		} else {
			decision.WasExecuted = true
			decision.ExecutedAction = execution.Action
			decision.ExecutionResult = execution.Message
			executed = true
			slog.Info("Auto-executed decision",
				"claim_id", claim.ID,
				"decision", string(result.Decision),
				"confidence", result.Confidence)
		}
		if err := tx.UpdateDecisionExecution(ctx, decision); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit decision: %w", err)
	}
	return decision, executed, nil
}

// ExecuteDecision performs a previously made decision's action. It is
// idempotent: re-invoking an executed decision returns the stored result
// without re-executing. The decision must belong to the claim.
func (o *Orchestrator) ExecuteDecision(ctx context.Context, claimID, decisionID string) (*ExecutionResult, error) {
	tx, err := o.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	claim, err := tx.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	decision, err := tx.GetDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if decision.ClaimID != claim.ID {
		return nil, fmt.Errorf("decision %s: %w", decisionID, common.ErrOwnershipMismatch)
	}

	if decision.WasExecuted {
		return &ExecutionResult{
			Action:          decision.ExecutedAction,
			Message:         decision.ExecutionResult,
			AlreadyExecuted: true,
		}, nil
	}

	execution, execErr := o.executeAction(ctx, tx, claim, decision.Decision, decision.DenialCategory, decision.ID)
	if execErr != nil {
		decision.ExecutionResult = fmt.Sprintf("Execution failed: %v", execErr)
		if err := tx.UpdateDecisionExecution(ctx, decision); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit execution failure: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrExecutionFailed, execErr)
	}

	decision.WasExecuted = true
	decision.ExecutedAction = execution.Action
	decision.ExecutionResult = execution.Message
	if err := tx.UpdateDecisionExecution(ctx, decision); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit execution: %w", err)
	}
	return execution, nil
}

// OverrideDecision marks a decision as human-overridden and executes the
// override action. A human decision is authoritative: no confidence check.
func (o *Orchestrator) OverrideDecision(ctx context.Context, claimID, decisionID string, action model.DecisionAction, reviewer, notes string) (*ExecutionResult, error) {
	tx, err := o.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	claim, err := tx.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	decision, err := tx.GetDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if decision.ClaimID != claim.ID {
		return nil, fmt.Errorf("decision %s: %w", decisionID, common.ErrOwnershipMismatch)
	}

	execution, execErr := o.executeAction(ctx, tx, claim, action, decision.DenialCategory, decision.ID)
	if execErr != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExecutionFailed, execErr)
	}

	decision.HumanOverride = true
	decision.HumanReviewer = reviewer
	decision.HumanNotes = notes
	decision.WasExecuted = true
	decision.ExecutedAction = execution.Action
	decision.ExecutionResult = fmt.Sprintf("Human override: %s", execution.Message)
	if err := tx.UpdateDecisionExecution(ctx, decision); err != nil {
		return nil, err
	}

	if err := tx.SaveEvent(ctx, &model.ClaimEvent{
		ClaimID: claim.ID,
		Type:    model.EventHumanOverride,
		Data: map[string]any{
			"agent_decision_id": decision.ID,
			"override_action":   string(action),
			"reviewer":          reviewer,
		},
		Description: fmt.Sprintf("Human override: %s", action),
		CreatedAt:   o.now(),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit override: %w", err)
	}

	slog.Info("Human override applied",
		"claim_id", claim.ID,
		"decision_id", decision.ID,
		"action", string(action),
		"reviewer", reviewer)
	return execution, nil
}

// applyTransition validates and applies a status change on the loaded
// claim, then persists the claim, the transition record, an event, and
// resolves pending outcomes the new status settles.
func (o *Orchestrator) applyTransition(ctx context.Context, tx service.Transaction, claim *model.Claim, target model.ClaimStatus, reason string) error {
	now := o.now()
	previous := claim.Status

	transition, err := lifecycle.Apply(claim, target, reason, now)
	if err != nil {
		return err
	}

	if err := tx.UpdateClaim(ctx, claim); err != nil {
		return err
	}
	if err := tx.SaveTransition(ctx, &transition); err != nil {
		return err
	}
	if err := tx.SaveEvent(ctx, &model.ClaimEvent{
		ClaimID:     claim.ID,
		Type:        model.EventStateTransition,
		Data:        map[string]any{"from": string(previous), "to": string(target), "reason": reason},
		Description: fmt.Sprintf("Status changed from %s to %s", previous, target),
		CreatedAt:   now,
	}); err != nil {
		return err
	}

	tracker := outcome.NewTracker(tx)
	if err := tracker.ResolveOnStatusChange(ctx, claim); err != nil {
		return err
	}

	slog.Info("Claim transitioned",
		"claim_id", claim.ID,
		"from", string(previous),
		"to", string(target))
	return nil
}

// executeAction applies the action execution table for one decision.
func (o *Orchestrator) executeAction(ctx context.Context, tx service.Transaction, claim *model.Claim, action model.DecisionAction, category model.DenialCategory, decisionID string) (*ExecutionResult, error) {
	tracker := outcome.NewTracker(tx)

	switch action {
	case model.DecisionResubmit:
		if err := o.applyTransition(ctx, tx, claim, model.StatusResubmitted, "Agent decision: resubmit after fixing issues"); err != nil {
			return nil, err
		}
		if _, err := tracker.Record(ctx, outcome.RecordParams{
			Claim:           claim,
			Action:          action,
			Category:        category,
			AgentDecisionID: decisionID,
		}); err != nil {
			return nil, err
		}
		return &ExecutionResult{
			Action:  "resubmitted",
			Message: fmt.Sprintf("Claim transitioned to %s", model.StatusResubmitted),
		}, nil

	case model.DecisionAppeal:
		if err := o.applyTransition(ctx, tx, claim, model.StatusAppealPending, "Agent decision: file appeal"); err != nil {
			return nil, err
		}
		if _, err := tracker.Record(ctx, outcome.RecordParams{
			Claim:           claim,
			Action:          action,
			Category:        category,
			AgentDecisionID: decisionID,
		}); err != nil {
			return nil, err
		}
		return &ExecutionResult{
			Action:  "appeal_filed",
			Message: fmt.Sprintf("Claim transitioned to %s", model.StatusAppealPending),
		}, nil

	case model.DecisionWriteOff:
		if err := o.applyTransition(ctx, tx, claim, model.StatusWriteOff, "Agent decision: write off as uncollectible"); err != nil {
			return nil, err
		}
		zero := 0.0
		if _, err := tracker.Record(ctx, outcome.RecordParams{
			Claim:            claim,
			Action:           action,
			Category:         category,
			AgentDecisionID:  decisionID,
			Result:           model.OutcomeFailure,
			RevenueRecovered: &zero,
		}); err != nil {
			return nil, err
		}
		return &ExecutionResult{
			Action:  "written_off",
			Message: fmt.Sprintf("Claim transitioned to %s", model.StatusWriteOff),
		}, nil

	case model.DecisionRequestAuth:
		if err := tx.SaveEvent(ctx, &model.ClaimEvent{
			ClaimID:     claim.ID,
			Type:        model.EventWorkflowExecuted,
			Data:        map[string]any{"action": "request_authorization"},
			Description: "Agent decision: request prior authorization",
			CreatedAt:   o.now(),
		}); err != nil {
			return nil, err
		}
		return &ExecutionResult{
			Action:  "authorization_requested",
			Message: "Authorization request workflow initiated",
		}, nil

	case model.DecisionCollectPatient:
		if err := tx.SaveEvent(ctx, &model.ClaimEvent{
			ClaimID:     claim.ID,
			Type:        model.EventWorkflowExecuted,
			Data:        map[string]any{"action": "collect_from_patient"},
			Description: "Agent decision: bill patient directly",
			CreatedAt:   o.now(),
		}); err != nil {
			return nil, err
		}
		return &ExecutionResult{
			Action:  "patient_billing_initiated",
			Message: "Patient billing workflow initiated",
		}, nil

	case model.DecisionFlagForHuman:
		return &ExecutionResult{
			Action:  "flagged",
			Message: "Claim flagged for human review",
		}, nil

	default:
		return &ExecutionResult{
			Action:  "no_action",
			Message: fmt.Sprintf("No action taken for decision: %s", action),
		}, nil
	}
}

// historicalRate looks up the trailing success rate of the rule-baseline
// action within the category. Baselines with no decision-action analogue
// have no history.
func (o *Orchestrator) historicalRate(ctx context.Context, tx service.Transaction, category model.DenialCategory, baseline model.RecommendedAction) (*float64, error) {
	var action model.DecisionAction
	switch baseline {
	case model.ActionResubmit:
		action = model.DecisionResubmit
	case model.ActionAppeal:
		action = model.DecisionAppeal
	case model.ActionWriteOff:
		action = model.DecisionWriteOff
	case model.ActionRequestAuth:
		action = model.DecisionRequestAuth
	default:
		return nil, nil
	}

	tracker := outcome.NewTracker(tx)
	return tracker.SuccessRate(ctx, &category, &action, outcome.DefaultWindowDays)
}
