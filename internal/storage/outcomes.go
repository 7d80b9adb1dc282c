package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/remitware/remit/internal/common"
	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/service"
)

const outcomeColumns = `id, claim_id, agent_decision_id, action_taken, denial_category,
	outcome, final_status, revenue_recovered, days_to_resolution,
	appeal_successful, resubmission_successful, human_feedback,
	outcome_date, created_at`

// SaveOutcome persists a new outcome row, typically PENDING at creation.
func (s *SQLiteStorage) SaveOutcome(ctx context.Context, outcome *model.Outcome) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOutcome(outcome); err != nil {
		return err
	}
	return saveOutcome(ctx, s.db, outcome)
}

// GetPendingOutcomes returns the unresolved outcomes for a claim, oldest first.
func (s *SQLiteStorage) GetPendingOutcomes(ctx context.Context, claimID string) ([]model.Outcome, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(claimID, "claimID"); err != nil {
		return nil, err
	}
	return getPendingOutcomes(ctx, s.db, claimID)
}

// ResolveOutcome writes the final result onto a PENDING row. An outcome
// can only be resolved once; resolving an already-resolved row fails.
func (s *SQLiteStorage) ResolveOutcome(ctx context.Context, outcome *model.Outcome) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOutcome(outcome); err != nil {
		return err
	}
	return resolveOutcome(ctx, s.db, outcome)
}

// GetOutcomes returns outcomes matching the filter, newest first.
func (s *SQLiteStorage) GetOutcomes(ctx context.Context, filter service.OutcomeFilter) ([]model.Outcome, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getOutcomes(ctx, s.db, filter)
}

func saveOutcome(ctx context.Context, q dbtx, outcome *model.Outcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.NewString()
	}
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO outcome_tracking (`+outcomeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		outcome.ID,
		outcome.ClaimID,
		outcome.AgentDecisionID,
		string(outcome.ActionTaken),
		string(outcome.DenialCategory),
		string(outcome.Result),
		string(outcome.FinalStatus),
		outcome.RevenueRecovered,
		outcome.DaysToResolution,
		string(outcome.AppealSuccessful),
		string(outcome.ResubmissionSuccessful),
		outcome.HumanFeedback,
		outcome.OutcomeDate,
		outcome.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save outcome: %w", err)
	}
	return nil
}

func getPendingOutcomes(ctx context.Context, q dbtx, claimID string) ([]model.Outcome, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+outcomeColumns+`
		FROM outcome_tracking
		WHERE claim_id = ? AND outcome = 'PENDING'
		ORDER BY created_at, rowid
	`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectOutcomes(rows)
}

func resolveOutcome(ctx context.Context, q dbtx, outcome *model.Outcome) error {
	result, err := q.ExecContext(ctx, `
		UPDATE outcome_tracking
		SET outcome = ?, final_status = ?, revenue_recovered = ?,
			days_to_resolution = ?, appeal_successful = ?,
			resubmission_successful = ?, human_feedback = ?, outcome_date = ?
		WHERE id = ? AND outcome = 'PENDING'
	`,
		string(outcome.Result),
		string(outcome.FinalStatus),
		outcome.RevenueRecovered,
		outcome.DaysToResolution,
		string(outcome.AppealSuccessful),
		string(outcome.ResubmissionSuccessful),
		outcome.HumanFeedback,
		outcome.OutcomeDate,
		outcome.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve outcome: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check resolve result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("outcome %s not found or already resolved: %w", outcome.ID, common.ErrNotFound)
	}
	return nil
}

func getOutcomes(ctx context.Context, q dbtx, filter service.OutcomeFilter) ([]model.Outcome, error) {
	query := `SELECT ` + outcomeColumns + ` FROM outcome_tracking`
	var conditions []string
	var args []any

	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since)
	}
	if filter.Category != nil {
		conditions = append(conditions, "denial_category = ?")
		args = append(args, string(*filter.Category))
	}
	if filter.Action != nil {
		conditions = append(conditions, "action_taken = ?")
		args = append(args, string(*filter.Action))
	}
	if !filter.IncludePending {
		conditions = append(conditions, "outcome != 'PENDING'")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectOutcomes(rows)
}

func collectOutcomes(rows *sql.Rows) ([]model.Outcome, error) {
	var outcomes []model.Outcome
	for rows.Next() {
		var (
			outcome     model.Outcome
			decisionID  sql.NullString
			action      string
			category    string
			result      string
			finalStatus sql.NullString
			revenue     sql.NullFloat64
			days        sql.NullInt64
			appeal      string
			resubmit    string
			feedback    sql.NullString
			outcomeDate sql.NullTime
		)
		if err := rows.Scan(
			&outcome.ID, &outcome.ClaimID, &decisionID, &action, &category,
			&result, &finalStatus, &revenue, &days, &appeal, &resubmit,
			&feedback, &outcomeDate, &outcome.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcome.AgentDecisionID = decisionID.String
		outcome.ActionTaken = model.DecisionAction(action)
		outcome.DenialCategory = model.DenialCategory(category)
		outcome.Result = model.OutcomeResult(result)
		outcome.FinalStatus = model.ClaimStatus(finalStatus.String)
		outcome.RevenueRecovered = nullFloat(revenue)
		outcome.AppealSuccessful = model.TriState(appeal)
		outcome.ResubmissionSuccessful = model.TriState(resubmit)
		outcome.HumanFeedback = feedback.String
		outcome.OutcomeDate = nullTime(outcomeDate)
		if days.Valid {
			d := int(days.Int64)
			outcome.DaysToResolution = &d
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}
