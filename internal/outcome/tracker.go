// Package outcome tracks the results of executed denial resolutions and
// turns them into the success-rate statistics that feed future decisions.
package outcome

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/service"
)

// DefaultWindowDays is the trailing window used when the caller does not
// specify one.
const DefaultWindowDays = 90

// minSampleSize guards the success-rate statistic against noisy early
// feedback: below this many resolved outcomes the rate is withheld.
const minSampleSize = 5

// Store is the slice of the persistence layer the tracker needs. Both the
// storage handle and an open transaction satisfy it.
type Store interface {
	SaveOutcome(ctx context.Context, outcome *model.Outcome) error
	GetPendingOutcomes(ctx context.Context, claimID string) ([]model.Outcome, error)
	ResolveOutcome(ctx context.Context, outcome *model.Outcome) error
	GetOutcomes(ctx context.Context, filter service.OutcomeFilter) ([]model.Outcome, error)
	SumDeniedAmountSince(ctx context.Context, since time.Time) (float64, error)
}

// Tracker records outcomes and aggregates them over a trailing window.
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a tracker over the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RecordParams carries the inputs for recording one outcome.
type RecordParams struct {
	Claim            *model.Claim
	RevenueRecovered *float64
	AgentDecisionID  string
	HumanFeedback    string
	Action           model.DecisionAction
	Category         model.DenialCategory
	Result           model.OutcomeResult
	AppealSuccessful model.TriState
	ResubmitOK       model.TriState
}

// Record persists one outcome for an executed action. Days-to-resolution
// and revenue are derived from the claim when the caller does not supply
// them: a PAID claim recovers its paid amount, a write-off recovers zero.
func (t *Tracker) Record(ctx context.Context, params RecordParams) (*model.Outcome, error) {
	claim := params.Claim
	if claim == nil {
		return nil, fmt.Errorf("claim is required to record an outcome")
	}
	result := params.Result
	if result == "" {
		result = model.OutcomePending
	}

	var days *int
	if claim.RespondedAt != nil && claim.Status.IsTerminal() {
		resolvedAt := claim.UpdatedAt
		if claim.PaidAt != nil {
			resolvedAt = *claim.PaidAt
		}
		d := int(resolvedAt.Sub(*claim.RespondedAt).Hours() / 24)
		days = &d
	}

	revenue := params.RevenueRecovered
	if revenue == nil {
		switch {
		case claim.Status == model.StatusPaid && claim.PaidAmount != nil:
			revenue = claim.PaidAmount
		case claim.Status == model.StatusWriteOff:
			zero := 0.0
			revenue = &zero
		}
	}

	var outcomeDate *time.Time
	if result != model.OutcomePending {
		at := t.now()
		outcomeDate = &at
	}

	record := &model.Outcome{
		ClaimID:                claim.ID,
		AgentDecisionID:        params.AgentDecisionID,
		ActionTaken:            params.Action,
		DenialCategory:         params.Category,
		Result:                 result,
		FinalStatus:            claim.Status,
		RevenueRecovered:       revenue,
		DaysToResolution:       days,
		OutcomeDate:            outcomeDate,
		AppealSuccessful:       params.AppealSuccessful,
		ResubmissionSuccessful: params.ResubmitOK,
		HumanFeedback:          params.HumanFeedback,
		CreatedAt:              t.now(),
	}

	if err := t.store.SaveOutcome(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record outcome: %w", err)
	}

	slog.Info("Recorded outcome",
		"claim_id", claim.ID,
		"result", string(result),
		"action", string(params.Action),
		"category", string(params.Category))

	return record, nil
}

// SuccessRate returns the fraction of resolved outcomes in the trailing
// window that succeeded, optionally narrowed to a category and/or action.
// It returns nil when fewer than five resolved outcomes qualify.
func (t *Tracker) SuccessRate(ctx context.Context, category *model.DenialCategory, action *model.DecisionAction, daysBack int) (*float64, error) {
	if daysBack <= 0 {
		daysBack = DefaultWindowDays
	}

	outcomes, err := t.store.GetOutcomes(ctx, service.OutcomeFilter{
		Since:    t.now().AddDate(0, 0, -daysBack),
		Category: category,
		Action:   action,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}

	if len(outcomes) < minSampleSize {
		return nil, nil
	}

	successes := 0
	for _, o := range outcomes {
		if o.Result == model.OutcomeSuccess {
			successes++
		}
	}
	rate := float64(successes) / float64(len(outcomes))
	return &rate, nil
}

// RevenueMetrics summarizes recovered revenue over the trailing window
// against the billed amount of claims still sitting denied or rejected.
func (t *Tracker) RevenueMetrics(ctx context.Context, daysBack int) (*service.RevenueMetrics, error) {
	if daysBack <= 0 {
		daysBack = DefaultWindowDays
	}
	since := t.now().AddDate(0, 0, -daysBack)

	outcomes, err := t.store.GetOutcomes(ctx, service.OutcomeFilter{Since: since})
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}

	var recovered float64
	resolved := 0
	for _, o := range outcomes {
		if o.Result != model.OutcomeSuccess {
			continue
		}
		resolved++
		if o.RevenueRecovered != nil {
			recovered += *o.RevenueRecovered
		}
	}

	denied, err := t.store.SumDeniedAmountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to sum denied amounts: %w", err)
	}

	metrics := &service.RevenueMetrics{
		TotalRecovered:    recovered,
		TotalDeniedAmount: denied,
		TotalResolved:     resolved,
	}
	if denied > 0 {
		metrics.RecoveryRate = recovered / denied
	}
	return metrics, nil
}

// LearningInsights breaks down resolved outcomes for one denial category
// by action and names the best-performing action by success rate.
func (t *Tracker) LearningInsights(ctx context.Context, category model.DenialCategory, daysBack int) (*service.CategoryInsights, error) {
	if daysBack <= 0 {
		daysBack = DefaultWindowDays
	}

	outcomes, err := t.store.GetOutcomes(ctx, service.OutcomeFilter{
		Since:    t.now().AddDate(0, 0, -daysBack),
		Category: &category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}

	insights := &service.CategoryInsights{
		Category:      category,
		TotalOutcomes: len(outcomes),
		Actions:       make(map[model.DecisionAction]service.ActionStats),
	}
	if len(outcomes) == 0 {
		insights.InsufficientData = true
		return insights, nil
	}

	type tally struct {
		total   int
		success int
		revenue float64
	}
	tallies := make(map[model.DecisionAction]*tally)
	for _, o := range outcomes {
		entry := tallies[o.ActionTaken]
		if entry == nil {
			entry = &tally{}
			tallies[o.ActionTaken] = entry
		}
		entry.total++
		if o.Result == model.OutcomeSuccess {
			entry.success++
		}
		if o.RevenueRecovered != nil {
			entry.revenue += *o.RevenueRecovered
		}
	}

	for action, entry := range tallies {
		rate := float64(entry.success) / float64(entry.total)
		insights.Actions[action] = service.ActionStats{
			SuccessRate:  rate,
			Attempts:     entry.total,
			TotalRevenue: entry.revenue,
		}
		if rate > insights.BestSuccessRate {
			insights.BestSuccessRate = rate
			insights.BestAction = action
		}
	}
	return insights, nil
}

// ResolveOnStatusChange resolves any PENDING outcomes a claim carries,
// based on the status it has just reached: PAID succeeds and recovers the
// paid (or billed) amount, WRITE_OFF fails with zero recovery, and a fresh
// denial or rejection fails a pending resubmission. It must run after
// every transition that could settle a pending outcome, inside the same
// transaction as the transition itself.
func (t *Tracker) ResolveOnStatusChange(ctx context.Context, claim *model.Claim) error {
	pending, err := t.store.GetPendingOutcomes(ctx, claim.ID)
	if err != nil {
		return fmt.Errorf("failed to load pending outcomes: %w", err)
	}

	for i := range pending {
		record := &pending[i]

		result := model.OutcomePending
		var revenue *float64

		switch claim.Status {
		case model.StatusPaid:
			result = model.OutcomeSuccess
			amount := claim.RecoverableAmount()
			revenue = &amount
		case model.StatusWriteOff:
			result = model.OutcomeFailure
			zero := 0.0
			revenue = &zero
		case model.StatusDenied, model.StatusRejected:
			// A repeat denial settles only a pending resubmission.
			if record.ActionTaken == model.DecisionResubmit {
				result = model.OutcomeFailure
			}
		}

		if result == model.OutcomePending {
			continue
		}

		record.Result = result
		record.FinalStatus = claim.Status
		record.RevenueRecovered = revenue
		at := t.now()
		record.OutcomeDate = &at

		switch record.ActionTaken {
		case model.DecisionAppeal:
			record.AppealSuccessful = model.TriFromBool(result == model.OutcomeSuccess)
		case model.DecisionResubmit:
			record.ResubmissionSuccessful = model.TriFromBool(result == model.OutcomeSuccess)
		}

		if err := t.store.ResolveOutcome(ctx, record); err != nil {
			return fmt.Errorf("failed to resolve outcome %s: %w", record.ID, err)
		}

		slog.Info("Resolved outcome",
			"claim_id", claim.ID,
			"outcome_id", record.ID,
			"result", string(result),
			"final_status", string(claim.Status))
	}
	return nil
}
