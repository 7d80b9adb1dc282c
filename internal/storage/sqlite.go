// Package storage provides the data persistence layer for the remit application.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// every query helper can run either standalone or inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps every claim mutation single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{tx: tx}, nil
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction. Every
// Storage method delegates to the shared dbtx helpers with the open tx.
type sqliteTransaction struct {
	tx *sql.Tx
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTransaction) CreateClaim(ctx context.Context, claim *model.Claim) error {
	return createClaim(ctx, t.tx, claim)
}

func (t *sqliteTransaction) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	return getClaim(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetClaimByNumber(ctx context.Context, claimNumber string) (*model.Claim, error) {
	return getClaimByNumber(ctx, t.tx, claimNumber)
}

func (t *sqliteTransaction) ListClaims(ctx context.Context, filter service.ClaimFilter) ([]model.Claim, error) {
	return listClaims(ctx, t.tx, filter)
}

func (t *sqliteTransaction) UpdateClaim(ctx context.Context, claim *model.Claim) error {
	return updateClaim(ctx, t.tx, claim)
}

func (t *sqliteTransaction) SumDeniedAmountSince(ctx context.Context, since time.Time) (float64, error) {
	return sumDeniedAmountSince(ctx, t.tx, since)
}

func (t *sqliteTransaction) SaveTransition(ctx context.Context, transition *model.StateTransition) error {
	return saveTransition(ctx, t.tx, transition)
}

func (t *sqliteTransaction) GetTransitions(ctx context.Context, claimID string) ([]model.StateTransition, error) {
	return getTransitions(ctx, t.tx, claimID)
}

func (t *sqliteTransaction) SaveDenialEvent(ctx context.Context, event *model.DenialEvent) error {
	return saveDenialEvent(ctx, t.tx, event)
}

func (t *sqliteTransaction) GetDenialEvents(ctx context.Context, claimID string) ([]model.DenialEvent, error) {
	return getDenialEvents(ctx, t.tx, claimID)
}

func (t *sqliteTransaction) SaveDecision(ctx context.Context, decision *model.AgentDecision) error {
	return saveDecision(ctx, t.tx, decision)
}

func (t *sqliteTransaction) GetDecision(ctx context.Context, id string) (*model.AgentDecision, error) {
	return getDecision(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetDecisions(ctx context.Context, claimID string) ([]model.AgentDecision, error) {
	return getDecisions(ctx, t.tx, claimID)
}

func (t *sqliteTransaction) UpdateDecisionExecution(ctx context.Context, decision *model.AgentDecision) error {
	return updateDecisionExecution(ctx, t.tx, decision)
}

func (t *sqliteTransaction) SaveOutcome(ctx context.Context, outcome *model.Outcome) error {
	return saveOutcome(ctx, t.tx, outcome)
}

func (t *sqliteTransaction) GetPendingOutcomes(ctx context.Context, claimID string) ([]model.Outcome, error) {
	return getPendingOutcomes(ctx, t.tx, claimID)
}

func (t *sqliteTransaction) ResolveOutcome(ctx context.Context, outcome *model.Outcome) error {
	return resolveOutcome(ctx, t.tx, outcome)
}

func (t *sqliteTransaction) GetOutcomes(ctx context.Context, filter service.OutcomeFilter) ([]model.Outcome, error) {
	return getOutcomes(ctx, t.tx, filter)
}

func (t *sqliteTransaction) SaveEvent(ctx context.Context, event *model.ClaimEvent) error {
	return saveEvent(ctx, t.tx, event)
}

func (t *sqliteTransaction) GetEvents(ctx context.Context, claimID string) ([]model.ClaimEvent, error) {
	return getEvents(ctx, t.tx, claimID)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
