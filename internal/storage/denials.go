package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/remitware/remit/internal/model"
)

// SaveDenialEvent appends one immutable payer denial record.
func (s *SQLiteStorage) SaveDenialEvent(ctx context.Context, event *model.DenialEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveDenialEvent(ctx, s.db, event)
}

// GetDenialEvents returns a claim's denial events, oldest first.
func (s *SQLiteStorage) GetDenialEvents(ctx context.Context, claimID string) ([]model.DenialEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(claimID, "claimID"); err != nil {
		return nil, err
	}
	return getDenialEvents(ctx, s.db, claimID)
}

func saveDenialEvent(ctx context.Context, q dbtx, event *model.DenialEvent) error {
	if event == nil {
		return fmt.Errorf("%w: denial event", ErrNilParameter)
	}
	if event.ClaimID == "" {
		return fmt.Errorf("%w: claimID", ErrEmptyString)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO denial_events (
			id, claim_id, payer_id, payer_type, denial_code, denial_message,
			raw_payload, reason, category, confidence, recommended_action,
			details, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.ClaimID,
		event.PayerID,
		string(event.PayerType),
		event.DenialCode,
		event.DenialMessage,
		event.RawPayload,
		string(event.Reason),
		string(event.Category),
		event.Confidence,
		string(event.RecommendedAction),
		event.Details,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save denial event: %w", err)
	}
	return nil
}

func getDenialEvents(ctx context.Context, q dbtx, claimID string) ([]model.DenialEvent, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, claim_id, payer_id, payer_type, denial_code, denial_message,
			raw_payload, reason, category, confidence, recommended_action,
			details, created_at
		FROM denial_events
		WHERE claim_id = ?
		ORDER BY created_at, rowid
	`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get denial events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.DenialEvent
	for rows.Next() {
		var (
			event      model.DenialEvent
			payerType  string
			reason     string
			category   string
			action     string
			rawPayload sql.NullString
			details    sql.NullString
		)
		if err := rows.Scan(
			&event.ID, &event.ClaimID, &event.PayerID, &payerType,
			&event.DenialCode, &event.DenialMessage, &rawPayload,
			&reason, &category, &event.Confidence, &action,
			&details, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan denial event: %w", err)
		}
		event.PayerType = model.PayerType(payerType)
		event.Reason = model.DenialReason(reason)
		event.Category = model.DenialCategory(category)
		event.RecommendedAction = model.RecommendedAction(action)
		event.RawPayload = rawPayload.String
		event.Details = details.String
		events = append(events, event)
	}
	return events, rows.Err()
}
