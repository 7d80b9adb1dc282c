package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remitware/remit/internal/engine"
	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/storage"
)

func setupDispatcher(t *testing.T) (*Dispatcher, *engine.Orchestrator, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	return NewDispatcher(store), engine.New(store), store
}

func validClaim(number string) *model.Claim {
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	return &model.Claim{
		ClaimNumber:     number,
		ProviderNPI:     "1234567890",
		PatientID:       "PT-300",
		PayerID:         "PAYER-CIGNA",
		PayerType:       model.PayerCommercial,
		Amount:          800,
		CPTCodes:        []string{"99213"},
		ICDCodes:        []string{"J06.9"},
		ServiceDateFrom: from,
		ServiceDateTo:   from,
	}
}

func TestValidateClaimTransitionsToValidated(t *testing.T) {
	dispatcher, orch, store := setupDispatcher(t)
	ctx := context.Background()

	claim := validClaim("CLM-T-1")
	require.NoError(t, orch.CreateClaim(ctx, claim))

	dispatcher.ValidateClaim(claim.ID)
	dispatcher.Close()

	updated, err := store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusValidated, updated.Status)

	transitions, err := store.GetTransitions(ctx, claim.ID)
	require.NoError(t, err)
	require.Len(t, transitions, 2)
	assert.Equal(t, model.StatusValidated, transitions[1].ToStatus)
	assert.Equal(t, "Payer rule validation passed", transitions[1].Reason)
}

func TestValidateClaimFailureLeavesClaimUntouched(t *testing.T) {
	dispatcher, orch, store := setupDispatcher(t)
	ctx := context.Background()

	claim := validClaim("CLM-T-2")
	claim.CPTCodes = []string{"BAD"}
	require.NoError(t, orch.CreateClaim(ctx, claim))

	dispatcher.ValidateClaim(claim.ID)
	dispatcher.Close()

	updated, err := store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCreated, updated.Status)

	events, err := store.GetEvents(ctx, claim.ID)
	require.NoError(t, err)

	var failure *model.ClaimEvent
	for i := range events {
		if events[i].Type == model.EventValidationFailed {
			failure = &events[i]
		}
	}
	require.NotNil(t, failure)
	assert.NotEmpty(t, failure.Data["errors"])
}

func TestValidateClaimSkipsNonCreated(t *testing.T) {
	dispatcher, orch, store := setupDispatcher(t)
	ctx := context.Background()

	claim := validClaim("CLM-T-3")
	require.NoError(t, orch.CreateClaim(ctx, claim))
	_, err := orch.Transition(ctx, claim.ID, model.StatusValidated, "already validated")
	require.NoError(t, err)

	dispatcher.ValidateClaim(claim.ID)
	dispatcher.Close()

	updated, err := store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusValidated, updated.Status)

	transitions, err := store.GetTransitions(ctx, claim.ID)
	require.NoError(t, err)
	assert.Len(t, transitions, 2, "no duplicate validation transition")
}

func TestValidateClaimMissingClaim(t *testing.T) {
	dispatcher, _, _ := setupDispatcher(t)

	// Must not panic; the error is logged.
	dispatcher.ValidateClaim("no-such-claim")
	dispatcher.Close()
}
