// Package tasks runs background claim work dispatched fire-and-forget by
// claim id. Each task operates in its own storage transaction; a failed
// task logs and leaves the claim in its prior, still-valid state.
package tasks

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/remitware/remit/internal/common"
	"github.com/remitware/remit/internal/engine"
	"github.com/remitware/remit/internal/lifecycle"
	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/rules"
	"github.com/remitware/remit/internal/service"
)

const taskTimeout = 30 * time.Second

// Dispatcher dispatches background tasks and drains them on Close.
type Dispatcher struct {
	store service.Storage
	orch  *engine.Orchestrator
	wg    sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the given storage.
func NewDispatcher(store service.Storage) *Dispatcher {
	return &Dispatcher{
		store: store,
		orch:  engine.New(store),
	}
}

// ValidateClaim schedules payer-rule validation for a claim. The claim
// moves CREATED to VALIDATED when the rules pass; a failed validation is
// recorded as an event and the claim stays in CREATED.
func (d *Dispatcher) ValidateClaim(claimID string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()

		if err := d.validateClaim(ctx, claimID); err != nil {
			slog.Error("Claim validation task failed", "claim_id", claimID, "error", err)
		}
	}()
}

// Close waits for all in-flight tasks to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

func (d *Dispatcher) validateClaim(ctx context.Context, claimID string) error {
	claim, err := d.store.GetClaim(ctx, claimID)
	if err != nil {
		return err
	}

	if claim.Status != model.StatusCreated {
		slog.Warn("Skipping validation, claim is not in CREATED state",
			"claim_id", claimID,
			"status", string(claim.Status))
		return nil
	}

	result := rules.ValidateClaim(claim, time.Now().UTC())

	if !result.Valid {
		slog.Warn("Claim validation failed",
			"claim_id", claimID,
			"errors", strings.Join(result.Errors, "; "))
		return d.store.SaveEvent(ctx, &model.ClaimEvent{
			ClaimID: claimID,
			Type:    model.EventValidationFailed,
			Data: map[string]any{
				"errors":   result.Errors,
				"warnings": result.Warnings,
			},
			Description: "Payer rule validation failed",
		})
	}

	err = common.WithRetry(ctx, func() error {
		_, transitionErr := d.orch.Transition(ctx, claimID, model.StatusValidated, "Payer rule validation passed")
		if transitionErr == nil {
			return nil
		}
		// An invalid transition will not heal on its own; only transient
		// storage failures are worth another attempt.
		var invalid *lifecycle.TransitionError
		if errors.As(transitionErr, &invalid) {
			return &common.RetryableError{Err: transitionErr, Retryable: false}
		}
		return &common.RetryableError{Err: transitionErr, Retryable: true}
	}, service.RetryOptions{MaxAttempts: 3})
	if err != nil {
		return err
	}

	if len(result.Warnings) > 0 {
		slog.Info("Claim validated with warnings",
			"claim_id", claimID,
			"warnings", strings.Join(result.Warnings, "; "))
	} else {
		slog.Info("Claim validated", "claim_id", claimID)
	}
	return nil
}
