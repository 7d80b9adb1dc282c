// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/remitware/remit/internal/model"
)

// ClaimFilter defines filtering options for claim queries.
type ClaimFilter struct {
	Status    *model.ClaimStatus
	PayerType *model.PayerType
	Limit     int
	Offset    int
}

// OutcomeFilter narrows outcome queries to a trailing window and optional
// category/action pair. PENDING rows are excluded unless IncludePending.
type OutcomeFilter struct {
	Since          time.Time
	Category       *model.DenialCategory
	Action         *model.DecisionAction
	IncludePending bool
}

// Storage defines the contract for our persistence layer.
//
// Claims are the aggregate root: every write touching a claim plus its
// audit records must go through BeginTx so the status, timestamps, and
// append-only records commit together or not at all.
type Storage interface {
	// Claim operations
	CreateClaim(ctx context.Context, claim *model.Claim) error
	GetClaim(ctx context.Context, id string) (*model.Claim, error)
	GetClaimByNumber(ctx context.Context, claimNumber string) (*model.Claim, error)
	ListClaims(ctx context.Context, filter ClaimFilter) ([]model.Claim, error)
	UpdateClaim(ctx context.Context, claim *model.Claim) error
	SumDeniedAmountSince(ctx context.Context, since time.Time) (float64, error)

	// State transition audit trail (append-only)
	SaveTransition(ctx context.Context, transition *model.StateTransition) error
	GetTransitions(ctx context.Context, claimID string) ([]model.StateTransition, error)

	// Denial events (append-only)
	SaveDenialEvent(ctx context.Context, event *model.DenialEvent) error
	GetDenialEvents(ctx context.Context, claimID string) ([]model.DenialEvent, error)

	// Agent decisions (append-only except execution/override fields)
	SaveDecision(ctx context.Context, decision *model.AgentDecision) error
	GetDecision(ctx context.Context, id string) (*model.AgentDecision, error)
	GetDecisions(ctx context.Context, claimID string) ([]model.AgentDecision, error)
	UpdateDecisionExecution(ctx context.Context, decision *model.AgentDecision) error

	// Outcome tracking (created PENDING, resolved at most once)
	SaveOutcome(ctx context.Context, outcome *model.Outcome) error
	GetPendingOutcomes(ctx context.Context, claimID string) ([]model.Outcome, error)
	ResolveOutcome(ctx context.Context, outcome *model.Outcome) error
	GetOutcomes(ctx context.Context, filter OutcomeFilter) ([]model.Outcome, error)

	// Claim timeline events (append-only)
	SaveEvent(ctx context.Context, event *model.ClaimEvent) error
	GetEvents(ctx context.Context, claimID string) ([]model.ClaimEvent, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// RevenueMetrics summarizes recovery performance over a trailing window.
type RevenueMetrics struct {
	TotalRecovered    float64
	TotalDeniedAmount float64
	RecoveryRate      float64
	TotalResolved     int
}

// ActionStats aggregates outcome statistics for a single action.
type ActionStats struct {
	SuccessRate  float64
	Attempts     int
	TotalRevenue float64
}

// CategoryInsights reports the best-performing action for a denial category.
type CategoryInsights struct {
	Actions          map[model.DecisionAction]ActionStats
	Category         model.DenialCategory
	BestAction       model.DecisionAction
	BestSuccessRate  float64
	TotalOutcomes    int
	InsufficientData bool
}
