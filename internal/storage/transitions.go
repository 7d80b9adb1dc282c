package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/remitware/remit/internal/model"
)

// SaveTransition appends one state transition audit record.
func (s *SQLiteStorage) SaveTransition(ctx context.Context, transition *model.StateTransition) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveTransition(ctx, s.db, transition)
}

// GetTransitions returns a claim's transition records in timestamp order.
func (s *SQLiteStorage) GetTransitions(ctx context.Context, claimID string) ([]model.StateTransition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(claimID, "claimID"); err != nil {
		return nil, err
	}
	return getTransitions(ctx, s.db, claimID)
}

func saveTransition(ctx context.Context, q dbtx, transition *model.StateTransition) error {
	if transition == nil {
		return fmt.Errorf("%w: transition", ErrNilParameter)
	}
	if transition.ClaimID == "" {
		return fmt.Errorf("%w: claimID", ErrEmptyString)
	}
	if transition.ID == "" {
		transition.ID = uuid.NewString()
	}
	if transition.CreatedAt.IsZero() {
		transition.CreatedAt = time.Now().UTC()
	}

	var fromStatus any
	if transition.FromStatus != nil {
		fromStatus = string(*transition.FromStatus)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO claim_state_transitions (id, claim_id, from_status, to_status, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		transition.ID,
		transition.ClaimID,
		fromStatus,
		string(transition.ToStatus),
		transition.Reason,
		transition.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save transition: %w", err)
	}
	return nil
}

func getTransitions(ctx context.Context, q dbtx, claimID string) ([]model.StateTransition, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, claim_id, from_status, to_status, reason, created_at
		FROM claim_state_transitions
		WHERE claim_id = ?
		ORDER BY created_at, rowid
	`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transitions []model.StateTransition
	for rows.Next() {
		var (
			transition model.StateTransition
			fromStatus sql.NullString
			toStatus   string
			reason     sql.NullString
		)
		if err := rows.Scan(&transition.ID, &transition.ClaimID, &fromStatus, &toStatus, &reason, &transition.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		if fromStatus.Valid {
			from := model.ClaimStatus(fromStatus.String)
			transition.FromStatus = &from
		}
		transition.ToStatus = model.ClaimStatus(toStatus)
		transition.Reason = reason.String
		transitions = append(transitions, transition)
	}
	return transitions, rows.Err()
}
