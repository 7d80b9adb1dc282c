package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remitware/remit/internal/common"
	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/service"
)

func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testClaim(number string) *model.Claim {
	from := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	return &model.Claim{
		ClaimNumber:     number,
		ProviderNPI:     "1234567890",
		PatientID:       "PT-001",
		PayerID:         "PAYER-BCBS",
		PayerType:       model.PayerCommercial,
		Status:          model.StatusCreated,
		Amount:          1500.00,
		CPTCodes:        []string{"99213", "80053"},
		ICDCodes:        []string{"E11.9"},
		ServiceDateFrom: from,
		ServiceDateTo:   from.AddDate(0, 0, 2),
	}
}

func TestMigrate(t *testing.T) {
	store := setupTestStorage(t)

	var version int
	err := store.db.QueryRow("PRAGMA user_version").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Re-running is a no-op.
	require.NoError(t, store.Migrate(context.Background()))
}

func TestCreateAndGetClaim(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	claim := testClaim("CLM-1001")
	require.NoError(t, store.CreateClaim(ctx, claim))
	assert.NotEmpty(t, claim.ID, "ID should be assigned on create")
	assert.False(t, claim.CreatedAt.IsZero())

	got, err := store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.ClaimNumber, got.ClaimNumber)
	assert.Equal(t, model.StatusCreated, got.Status)
	assert.Equal(t, claim.Amount, got.Amount)
	assert.Equal(t, []string{"99213", "80053"}, got.CPTCodes)
	assert.Equal(t, []string{"E11.9"}, got.ICDCodes)
	assert.Nil(t, got.SubmittedAt)
	assert.Nil(t, got.PaidAmount)
	assert.False(t, got.RequiresHumanReview)

	byNumber, err := store.GetClaimByNumber(ctx, "CLM-1001")
	require.NoError(t, err)
	assert.Equal(t, claim.ID, byNumber.ID)
}

func TestGetClaimNotFound(t *testing.T) {
	store := setupTestStorage(t)

	_, err := store.GetClaim(context.Background(), "missing-id")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetClaimByNumber(context.Background(), "CLM-NOPE")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateClaimDuplicateNumber(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateClaim(ctx, testClaim("CLM-DUP")))

	err := store.CreateClaim(ctx, testClaim("CLM-DUP"))
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestCreateClaimInvalid(t *testing.T) {
	store := setupTestStorage(t)

	claim := testClaim("CLM-BAD")
	claim.CPTCodes = nil

	err := store.CreateClaim(context.Background(), claim)
	assert.ErrorIs(t, err, ErrInvalidClaim)
}

func TestUpdateClaim(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	claim := testClaim("CLM-UPD")
	require.NoError(t, store.CreateClaim(ctx, claim))

	now := time.Now().UTC().Truncate(time.Second)
	paid := 1200.50
	claim.Status = model.StatusPaid
	claim.PaidAmount = &paid
	claim.PaidAt = &now
	claim.DenialReason = string(model.ReasonInvalidCPTCode)
	claim.RequiresHumanReview = true
	require.NoError(t, store.UpdateClaim(ctx, claim))

	got, err := store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, got.Status)
	require.NotNil(t, got.PaidAmount)
	assert.Equal(t, paid, *got.PaidAmount)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.Equal(now))
	assert.True(t, got.RequiresHumanReview)
}

func TestUpdateClaimNotFound(t *testing.T) {
	store := setupTestStorage(t)

	claim := testClaim("CLM-GHOST")
	claim.ID = "no-such-id"

	err := store.UpdateClaim(context.Background(), claim)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListClaimsFilters(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	a := testClaim("CLM-A")
	require.NoError(t, store.CreateClaim(ctx, a))

	b := testClaim("CLM-B")
	b.Status = model.StatusDenied
	b.PayerType = model.PayerMedicare
	require.NoError(t, store.CreateClaim(ctx, b))

	all, err := store.ListClaims(ctx, service.ClaimFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	denied := model.StatusDenied
	filtered, err := store.ListClaims(ctx, service.ClaimFilter{Status: &denied})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "CLM-B", filtered[0].ClaimNumber)

	medicare := model.PayerMedicare
	filtered, err = store.ListClaims(ctx, service.ClaimFilter{PayerType: &medicare})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "CLM-B", filtered[0].ClaimNumber)

	limited, err := store.ListClaims(ctx, service.ClaimFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestTransitionsRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	claim := testClaim("CLM-TRANS")
	require.NoError(t, store.CreateClaim(ctx, claim))

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveTransition(ctx, &model.StateTransition{
		ClaimID:   claim.ID,
		ToStatus:  model.StatusCreated,
		Reason:    "claim created",
		CreatedAt: base,
	}))

	created := model.StatusCreated
	require.NoError(t, store.SaveTransition(ctx, &model.StateTransition{
		ClaimID:    claim.ID,
		FromStatus: &created,
		ToStatus:   model.StatusValidated,
		Reason:     "validation passed",
		CreatedAt:  base.Add(time.Minute),
	}))

	transitions, err := store.GetTransitions(ctx, claim.ID)
	require.NoError(t, err)
	require.Len(t, transitions, 2)

	assert.Nil(t, transitions[0].FromStatus, "creation record has no prior status")
	assert.Equal(t, model.StatusCreated, transitions[0].ToStatus)

	require.NotNil(t, transitions[1].FromStatus)
	assert.Equal(t, model.StatusCreated, *transitions[1].FromStatus)
	assert.Equal(t, model.StatusValidated, transitions[1].ToStatus)
}

func TestDenialEventsRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	claim := testClaim("CLM-DENY")
	require.NoError(t, store.CreateClaim(ctx, claim))

	event := &model.DenialEvent{
		ClaimID:           claim.ID,
		PayerID:           claim.PayerID,
		PayerType:         claim.PayerType,
		DenialCode:        "CO-50",
		DenialMessage:     "Invalid CPT code for service rendered",
		RawPayload:        `{"code":"CO-50"}`,
		Reason:            model.ReasonInvalidCPTCode,
		Category:          model.CategoryCodingError,
		Confidence:        0.9,
		RecommendedAction: model.ActionResubmit,
	}
	require.NoError(t, store.SaveDenialEvent(ctx, event))
	assert.NotEmpty(t, event.ID)

	events, err := store.GetDenialEvents(ctx, claim.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "CO-50", events[0].DenialCode)
	assert.Equal(t, model.ReasonInvalidCPTCode, events[0].Reason)
	assert.Equal(t, model.CategoryCodingError, events[0].Category)
	assert.Equal(t, 0.9, events[0].Confidence)
	assert.Equal(t, `{"code":"CO-50"}`, events[0].RawPayload)
}

func TestDecisionLifecycle(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	claim := testClaim("CLM-DEC")
	require.NoError(t, store.CreateClaim(ctx, claim))

	rate := 0.8
	decision := &model.AgentDecision{
		ClaimID:               claim.ID,
		Decision:              model.DecisionResubmit,
		Confidence:            0.85,
		Rationale:             "coding errors resolve well on resubmission",
		MissingInfo:           []string{"payer response detail"},
		DenialCategory:        model.CategoryCodingError,
		PayerType:             model.PayerCommercial,
		RuleBaseline:          model.ActionResubmit,
		HistoricalSuccessRate: &rate,
	}
	require.NoError(t, store.SaveDecision(ctx, decision))
	require.NotEmpty(t, decision.ID)

	got, err := store.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionResubmit, got.Decision)
	assert.Equal(t, []string{"payer response detail"}, got.MissingInfo)
	require.NotNil(t, got.HistoricalSuccessRate)
	assert.Equal(t, 0.8, *got.HistoricalSuccessRate)
	assert.False(t, got.WasExecuted)

	got.WasExecuted = true
	got.ExecutedAction = string(model.DecisionResubmit)
	got.ExecutionResult = "claim resubmitted"
	require.NoError(t, store.UpdateDecisionExecution(ctx, got))

	updated, err := store.GetDecision(ctx, decision.ID)
	require.NoError(t, err)
	assert.True(t, updated.WasExecuted)
	assert.Equal(t, "claim resubmitted", updated.ExecutionResult)

	decisions, err := store.GetDecisions(ctx, claim.ID)
	require.NoError(t, err)
	assert.Len(t, decisions, 1)
}

func TestDecisionValidation(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	err := store.SaveDecision(ctx, &model.AgentDecision{ClaimID: "c", Decision: model.DecisionAppeal, Confidence: 1.5})
	assert.ErrorIs(t, err, ErrInvalidDecision)

	_, err = store.GetDecision(ctx, "no-such-decision")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOutcomeResolveOnce(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	claim := testClaim("CLM-OUT")
	require.NoError(t, store.CreateClaim(ctx, claim))

	outcome := &model.Outcome{
		ClaimID:        claim.ID,
		ActionTaken:    model.DecisionAppeal,
		DenialCategory: model.CategoryMedicalNecessity,
		Result:         model.OutcomePending,
	}
	require.NoError(t, store.SaveOutcome(ctx, outcome))

	pending, err := store.GetPendingOutcomes(ctx, claim.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.OutcomePending, pending[0].Result)

	now := time.Now().UTC()
	revenue := 1500.0
	days := 14
	outcome.Result = model.OutcomeSuccess
	outcome.FinalStatus = model.StatusPaid
	outcome.RevenueRecovered = &revenue
	outcome.DaysToResolution = &days
	outcome.AppealSuccessful = model.TriTrue
	outcome.OutcomeDate = &now
	require.NoError(t, store.ResolveOutcome(ctx, outcome))

	pending, err = store.GetPendingOutcomes(ctx, claim.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Second resolution must fail: the row is no longer PENDING.
	err = store.ResolveOutcome(ctx, outcome)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetOutcomesFilter(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	claim := testClaim("CLM-FILT")
	require.NoError(t, store.CreateClaim(ctx, claim))

	old := time.Now().UTC().AddDate(0, 0, -120)
	recent := time.Now().UTC().AddDate(0, 0, -10)
	revenue := 900.0

	require.NoError(t, store.SaveOutcome(ctx, &model.Outcome{
		ClaimID:          claim.ID,
		ActionTaken:      model.DecisionAppeal,
		DenialCategory:   model.CategoryEligibility,
		Result:           model.OutcomeSuccess,
		RevenueRecovered: &revenue,
		CreatedAt:        old,
	}))
	require.NoError(t, store.SaveOutcome(ctx, &model.Outcome{
		ClaimID:        claim.ID,
		ActionTaken:    model.DecisionAppeal,
		DenialCategory: model.CategoryEligibility,
		Result:         model.OutcomeFailure,
		CreatedAt:      recent,
	}))
	require.NoError(t, store.SaveOutcome(ctx, &model.Outcome{
		ClaimID:        claim.ID,
		ActionTaken:    model.DecisionResubmit,
		DenialCategory: model.CategoryCodingError,
		Result:         model.OutcomePending,
		CreatedAt:      recent,
	}))

	windowed, err := store.GetOutcomes(ctx, service.OutcomeFilter{
		Since: time.Now().UTC().AddDate(0, 0, -90),
	})
	require.NoError(t, err)
	require.Len(t, windowed, 1, "old and pending rows excluded")
	assert.Equal(t, model.OutcomeFailure, windowed[0].Result)

	category := model.CategoryEligibility
	action := model.DecisionAppeal
	byPair, err := store.GetOutcomes(ctx, service.OutcomeFilter{
		Category: &category,
		Action:   &action,
	})
	require.NoError(t, err)
	assert.Len(t, byPair, 2)

	withPending, err := store.GetOutcomes(ctx, service.OutcomeFilter{IncludePending: true})
	require.NoError(t, err)
	assert.Len(t, withPending, 3)
}

func TestEventsRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	claim := testClaim("CLM-EVT")
	require.NoError(t, store.CreateClaim(ctx, claim))

	event := &model.ClaimEvent{
		ClaimID:     claim.ID,
		Type:        model.EventDenialRecorded,
		Data:        map[string]any{"denial_code": "CO-50", "confidence": 0.9},
		Description: "denial recorded",
	}
	require.NoError(t, store.SaveEvent(ctx, event))

	bare := &model.ClaimEvent{
		ClaimID: claim.ID,
		Type:    model.EventStateTransition,
	}
	require.NoError(t, store.SaveEvent(ctx, bare))

	events, err := store.GetEvents(ctx, claim.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventDenialRecorded, events[0].Type)
	assert.Equal(t, "CO-50", events[0].Data["denial_code"])
	assert.Nil(t, events[1].Data)
}

func TestSumDeniedAmountSince(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	denied := testClaim("CLM-D1")
	denied.Status = model.StatusDenied
	require.NoError(t, store.CreateClaim(ctx, denied))

	rejected := testClaim("CLM-D2")
	rejected.Status = model.StatusRejected
	rejected.Amount = 500
	require.NoError(t, store.CreateClaim(ctx, rejected))

	paid := testClaim("CLM-D3")
	paid.Status = model.StatusPaid
	require.NoError(t, store.CreateClaim(ctx, paid))

	total, err := store.SumDeniedAmountSince(ctx, time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 2000.0, total)
}

func TestTransactionCommitAndRollback(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	claim := testClaim("CLM-TX1")
	require.NoError(t, tx.CreateClaim(ctx, claim))
	require.NoError(t, tx.SaveTransition(ctx, &model.StateTransition{
		ClaimID:  claim.ID,
		ToStatus: model.StatusCreated,
		Reason:   "claim created",
	}))
	require.NoError(t, tx.Commit())

	got, err := store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, "CLM-TX1", got.ClaimNumber)

	tx, err = store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateClaim(ctx, testClaim("CLM-TX2")))
	require.NoError(t, tx.Rollback())

	_, err = store.GetClaimByNumber(ctx, "CLM-TX2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransactionGuards(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	assert.Error(t, tx.Migrate(ctx))
	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
	assert.Error(t, tx.Close())
}
