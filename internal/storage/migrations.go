package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Claims and state transition audit trail",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS claims (
					id TEXT PRIMARY KEY,
					claim_number TEXT UNIQUE NOT NULL,
					provider_npi TEXT NOT NULL,
					patient_id TEXT NOT NULL,
					payer_id TEXT NOT NULL,
					payer_type TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'CREATED',
					amount REAL NOT NULL,
					allowed_amount REAL,
					paid_amount REAL,
					cpt_codes TEXT NOT NULL,
					icd_codes TEXT NOT NULL,
					service_date_from DATETIME NOT NULL,
					service_date_to DATETIME NOT NULL,
					submitted_at DATETIME,
					responded_at DATETIME,
					paid_at DATETIME,
					denial_reason TEXT,
					denial_details TEXT,
					recommended_action TEXT,
					agent_confidence REAL,
					requires_human_review TEXT NOT NULL DEFAULT 'false',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_claims_status ON claims(status)`,
				`CREATE INDEX idx_claims_patient ON claims(patient_id)`,
				`CREATE INDEX idx_claims_payer ON claims(payer_id)`,

				`CREATE TABLE IF NOT EXISTS claim_state_transitions (
					id TEXT PRIMARY KEY,
					claim_id TEXT NOT NULL REFERENCES claims(id),
					from_status TEXT,
					to_status TEXT NOT NULL,
					reason TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_transitions_claim ON claim_state_transitions(claim_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Denial events and claim timeline events",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS denial_events (
					id TEXT PRIMARY KEY,
					claim_id TEXT NOT NULL REFERENCES claims(id),
					payer_id TEXT NOT NULL,
					payer_type TEXT NOT NULL,
					denial_code TEXT NOT NULL,
					denial_message TEXT NOT NULL,
					raw_payload TEXT,
					reason TEXT NOT NULL,
					category TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					recommended_action TEXT NOT NULL,
					details TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_denial_events_claim ON denial_events(claim_id)`,

				`CREATE TABLE IF NOT EXISTS claim_events (
					id TEXT PRIMARY KEY,
					claim_id TEXT NOT NULL REFERENCES claims(id),
					event_type TEXT NOT NULL,
					event_data TEXT,
					description TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_claim_events_claim ON claim_events(claim_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Agent decision audit log",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS agent_decisions (
					id TEXT PRIMARY KEY,
					claim_id TEXT NOT NULL REFERENCES claims(id),
					decision TEXT NOT NULL,
					confidence REAL NOT NULL,
					rationale TEXT,
					missing_info TEXT,
					denial_category TEXT NOT NULL,
					payer_type TEXT NOT NULL,
					rule_baseline TEXT NOT NULL,
					historical_success_rate REAL,
					requires_human_review TEXT NOT NULL DEFAULT 'false',
					was_executed TEXT NOT NULL DEFAULT 'false',
					executed_action TEXT,
					execution_result TEXT,
					human_override TEXT NOT NULL DEFAULT 'false',
					human_reviewer TEXT,
					human_notes TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_agent_decisions_claim ON agent_decisions(claim_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Outcome tracking for the learning loop",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS outcome_tracking (
					id TEXT PRIMARY KEY,
					claim_id TEXT NOT NULL REFERENCES claims(id),
					agent_decision_id TEXT,
					action_taken TEXT NOT NULL,
					denial_category TEXT NOT NULL,
					outcome TEXT NOT NULL DEFAULT 'PENDING',
					final_status TEXT,
					revenue_recovered REAL,
					days_to_resolution INTEGER,
					appeal_successful TEXT NOT NULL DEFAULT '',
					resubmission_successful TEXT NOT NULL DEFAULT '',
					human_feedback TEXT,
					outcome_date DATETIME,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_outcomes_claim ON outcome_tracking(claim_id)`,
				`CREATE INDEX idx_outcomes_category_action ON outcome_tracking(denial_category, action_taken)`,
				`CREATE INDEX idx_outcomes_created ON outcome_tracking(created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// SchemaVersion reports the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
