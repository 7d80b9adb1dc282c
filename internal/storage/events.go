package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/remitware/remit/internal/model"
)

// SaveEvent appends one timeline event for a claim.
func (s *SQLiteStorage) SaveEvent(ctx context.Context, event *model.ClaimEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveEvent(ctx, s.db, event)
}

// GetEvents returns a claim's timeline events, oldest first.
func (s *SQLiteStorage) GetEvents(ctx context.Context, claimID string) ([]model.ClaimEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(claimID, "claimID"); err != nil {
		return nil, err
	}
	return getEvents(ctx, s.db, claimID)
}

func saveEvent(ctx context.Context, q dbtx, event *model.ClaimEvent) error {
	if event == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if event.ClaimID == "" {
		return fmt.Errorf("%w: claimID", ErrEmptyString)
	}
	if event.Type == "" {
		return fmt.Errorf("%w: event type", ErrEmptyString)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	var data any
	if event.Data != nil {
		encoded, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		data = string(encoded)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO claim_events (id, claim_id, event_type, event_data, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.ClaimID,
		string(event.Type),
		data,
		event.Description,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

func getEvents(ctx context.Context, q dbtx, claimID string) ([]model.ClaimEvent, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, claim_id, event_type, event_data, description, created_at
		FROM claim_events
		WHERE claim_id = ?
		ORDER BY created_at, rowid
	`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.ClaimEvent
	for rows.Next() {
		var (
			event       model.ClaimEvent
			eventType   string
			data        sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&event.ID, &event.ClaimID, &eventType, &data, &description, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Type = model.EventType(eventType)
		event.Description = description.String
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &event.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
