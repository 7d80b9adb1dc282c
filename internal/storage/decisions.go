package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/remitware/remit/internal/common"
	"github.com/remitware/remit/internal/model"
)

const decisionColumns = `id, claim_id, decision, confidence, rationale, missing_info,
	denial_category, payer_type, rule_baseline, historical_success_rate,
	requires_human_review, was_executed, executed_action, execution_result,
	human_override, human_reviewer, human_notes, created_at`

// SaveDecision persists a new agent decision audit record.
func (s *SQLiteStorage) SaveDecision(ctx context.Context, decision *model.AgentDecision) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDecision(decision); err != nil {
		return err
	}
	return saveDecision(ctx, s.db, decision)
}

// GetDecision returns a single decision by ID.
func (s *SQLiteStorage) GetDecision(ctx context.Context, id string) (*model.AgentDecision, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getDecision(ctx, s.db, id)
}

// GetDecisions returns all decisions made for a claim, oldest first.
func (s *SQLiteStorage) GetDecisions(ctx context.Context, claimID string) ([]model.AgentDecision, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(claimID, "claimID"); err != nil {
		return nil, err
	}
	return getDecisions(ctx, s.db, claimID)
}

// UpdateDecisionExecution records the execution or override fields of an
// existing decision. The full mutable tail is rewritten each time.
func (s *SQLiteStorage) UpdateDecisionExecution(ctx context.Context, decision *model.AgentDecision) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDecision(decision); err != nil {
		return err
	}
	return updateDecisionExecution(ctx, s.db, decision)
}

func saveDecision(ctx context.Context, q dbtx, decision *model.AgentDecision) error {
	if decision.ID == "" {
		decision.ID = uuid.NewString()
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now().UTC()
	}

	missingInfo, err := json.Marshal(decision.MissingInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal missing info: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO agent_decisions (`+decisionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		decision.ID,
		decision.ClaimID,
		string(decision.Decision),
		decision.Confidence,
		decision.Rationale,
		string(missingInfo),
		string(decision.DenialCategory),
		string(decision.PayerType),
		string(decision.RuleBaseline),
		decision.HistoricalSuccessRate,
		boolString(decision.RequiresHumanReview),
		boolString(decision.WasExecuted),
		decision.ExecutedAction,
		decision.ExecutionResult,
		boolString(decision.HumanOverride),
		decision.HumanReviewer,
		decision.HumanNotes,
		decision.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

func getDecision(ctx context.Context, q dbtx, id string) (*model.AgentDecision, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+decisionColumns+`
		FROM agent_decisions
		WHERE id = ?
	`, id)

	decision, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decision %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}
	return decision, nil
}

func getDecisions(ctx context.Context, q dbtx, claimID string) ([]model.AgentDecision, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+decisionColumns+`
		FROM agent_decisions
		WHERE claim_id = ?
		ORDER BY created_at, rowid
	`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decisions []model.AgentDecision
	for rows.Next() {
		decision, scanErr := scanDecision(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", scanErr)
		}
		decisions = append(decisions, *decision)
	}
	return decisions, rows.Err()
}

func updateDecisionExecution(ctx context.Context, q dbtx, decision *model.AgentDecision) error {
	result, err := q.ExecContext(ctx, `
		UPDATE agent_decisions
		SET was_executed = ?, executed_action = ?, execution_result = ?,
			human_override = ?, human_reviewer = ?, human_notes = ?
		WHERE id = ?
	`,
		boolString(decision.WasExecuted),
		decision.ExecutedAction,
		decision.ExecutionResult,
		boolString(decision.HumanOverride),
		decision.HumanReviewer,
		decision.HumanNotes,
		decision.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update decision execution: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("decision %s: %w", decision.ID, common.ErrNotFound)
	}
	return nil
}

func scanDecision(row rowScanner) (*model.AgentDecision, error) {
	var (
		decision    model.AgentDecision
		action      string
		category    string
		payerType   string
		baseline    string
		missingInfo string
		rationale   sql.NullString
		histRate    sql.NullFloat64
		review      string
		executed    string
		execAction  sql.NullString
		execResult  sql.NullString
		override    string
		reviewer    sql.NullString
		notes       sql.NullString
	)
	err := row.Scan(
		&decision.ID, &decision.ClaimID, &action, &decision.Confidence,
		&rationale, &missingInfo, &category, &payerType, &baseline,
		&histRate, &review, &executed, &execAction, &execResult,
		&override, &reviewer, &notes, &decision.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	decision.Decision = model.DecisionAction(action)
	decision.DenialCategory = model.DenialCategory(category)
	decision.PayerType = model.PayerType(payerType)
	decision.RuleBaseline = model.RecommendedAction(baseline)
	decision.Rationale = rationale.String
	decision.HistoricalSuccessRate = nullFloat(histRate)
	decision.RequiresHumanReview = review == "true"
	decision.WasExecuted = executed == "true"
	decision.ExecutedAction = execAction.String
	decision.ExecutionResult = execResult.String
	decision.HumanOverride = override == "true"
	decision.HumanReviewer = reviewer.String
	decision.HumanNotes = notes.String

	if missingInfo != "" {
		if err := json.Unmarshal([]byte(missingInfo), &decision.MissingInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal missing info: %w", err)
		}
	}
	return &decision, nil
}
