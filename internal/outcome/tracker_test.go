package outcome

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/service"
	"github.com/remitware/remit/internal/storage"
)

func outcomeFilterAll() service.OutcomeFilter {
	return service.OutcomeFilter{IncludePending: true}
}

func setupTracker(t *testing.T) (*Tracker, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	return NewTracker(store), store
}

func trackerClaim(t *testing.T, store *storage.SQLiteStorage, number string, status model.ClaimStatus) *model.Claim {
	t.Helper()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	claim := &model.Claim{
		ClaimNumber:     number,
		ProviderNPI:     "1234567890",
		PatientID:       "PT-100",
		PayerID:         "PAYER-AETNA",
		PayerType:       model.PayerCommercial,
		Status:          status,
		Amount:          2000,
		CPTCodes:        []string{"99214"},
		ICDCodes:        []string{"I10"},
		ServiceDateFrom: from,
		ServiceDateTo:   from,
	}
	require.NoError(t, store.CreateClaim(context.Background(), claim))
	return claim
}

func TestRecordDerivesRevenueAndResolutionTime(t *testing.T) {
	tracker, store := setupTracker(t)
	ctx := context.Background()

	claim := trackerClaim(t, store, "CLM-REC-1", model.StatusPaid)
	responded := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	paid := responded.AddDate(0, 0, 14)
	paidAmount := 1800.0
	claim.RespondedAt = &responded
	claim.PaidAt = &paid
	claim.PaidAmount = &paidAmount

	record, err := tracker.Record(ctx, RecordParams{
		Claim:    claim,
		Action:   model.DecisionAppeal,
		Category: model.CategoryMedicalNecessity,
		Result:   model.OutcomeSuccess,
	})
	require.NoError(t, err)

	require.NotNil(t, record.RevenueRecovered)
	assert.Equal(t, 1800.0, *record.RevenueRecovered)
	require.NotNil(t, record.DaysToResolution)
	assert.Equal(t, 14, *record.DaysToResolution)
	assert.NotNil(t, record.OutcomeDate)
	assert.Equal(t, model.StatusPaid, record.FinalStatus)
}

func TestRecordWriteOffRecoversZero(t *testing.T) {
	tracker, store := setupTracker(t)

	claim := trackerClaim(t, store, "CLM-REC-2", model.StatusWriteOff)
	record, err := tracker.Record(context.Background(), RecordParams{
		Claim:    claim,
		Action:   model.DecisionWriteOff,
		Category: model.CategoryTimelyFiling,
		Result:   model.OutcomeFailure,
	})
	require.NoError(t, err)

	require.NotNil(t, record.RevenueRecovered)
	assert.Equal(t, 0.0, *record.RevenueRecovered)
}

func TestRecordDefaultsToPending(t *testing.T) {
	tracker, store := setupTracker(t)

	claim := trackerClaim(t, store, "CLM-REC-3", model.StatusResubmitted)
	record, err := tracker.Record(context.Background(), RecordParams{
		Claim:    claim,
		Action:   model.DecisionResubmit,
		Category: model.CategoryCodingError,
	})
	require.NoError(t, err)

	assert.Equal(t, model.OutcomePending, record.Result)
	assert.Nil(t, record.OutcomeDate)
	assert.Nil(t, record.RevenueRecovered)
}

func recordResolved(t *testing.T, tracker *Tracker, claim *model.Claim, action model.DecisionAction, category model.DenialCategory, result model.OutcomeResult) {
	t.Helper()
	_, err := tracker.Record(context.Background(), RecordParams{
		Claim:    claim,
		Action:   action,
		Category: category,
		Result:   result,
	})
	require.NoError(t, err)
}

func TestSuccessRateInsufficientSamples(t *testing.T) {
	tracker, store := setupTracker(t)
	ctx := context.Background()

	claim := trackerClaim(t, store, "CLM-SR-1", model.StatusPaid)
	for i := 0; i < 4; i++ {
		recordResolved(t, tracker, claim, model.DecisionAppeal, model.CategoryEligibility, model.OutcomeSuccess)
	}

	rate, err := tracker.SuccessRate(ctx, nil, nil, DefaultWindowDays)
	require.NoError(t, err)
	assert.Nil(t, rate, "four samples is below the minimum")
}

func TestSuccessRateComputed(t *testing.T) {
	tracker, store := setupTracker(t)
	ctx := context.Background()

	claim := trackerClaim(t, store, "CLM-SR-2", model.StatusPaid)
	for i := 0; i < 4; i++ {
		recordResolved(t, tracker, claim, model.DecisionAppeal, model.CategoryEligibility, model.OutcomeSuccess)
	}
	recordResolved(t, tracker, claim, model.DecisionAppeal, model.CategoryEligibility, model.OutcomeFailure)

	// A pending record never counts toward the sample.
	_, err := tracker.Record(ctx, RecordParams{
		Claim:    claim,
		Action:   model.DecisionAppeal,
		Category: model.CategoryEligibility,
	})
	require.NoError(t, err)

	category := model.CategoryEligibility
	action := model.DecisionAppeal
	rate, err := tracker.SuccessRate(ctx, &category, &action, DefaultWindowDays)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.InDelta(t, 0.8, *rate, 1e-9)
}

func TestRevenueMetrics(t *testing.T) {
	tracker, store := setupTracker(t)
	ctx := context.Background()

	denied := trackerClaim(t, store, "CLM-RM-1", model.StatusDenied)
	_ = denied

	paid := trackerClaim(t, store, "CLM-RM-2", model.StatusPaid)
	paidAmount := 1500.0
	paid.PaidAmount = &paidAmount
	recordResolved(t, tracker, paid, model.DecisionAppeal, model.CategoryEligibility, model.OutcomeSuccess)
	recordResolved(t, tracker, paid, model.DecisionResubmit, model.CategoryCodingError, model.OutcomeFailure)

	metrics, err := tracker.RevenueMetrics(ctx, DefaultWindowDays)
	require.NoError(t, err)

	assert.Equal(t, 1500.0, metrics.TotalRecovered)
	assert.Equal(t, 2000.0, metrics.TotalDeniedAmount)
	assert.InDelta(t, 0.75, metrics.RecoveryRate, 1e-9)
	assert.Equal(t, 1, metrics.TotalResolved, "only successes count as resolved recoveries")
}

func TestLearningInsights(t *testing.T) {
	tracker, store := setupTracker(t)
	ctx := context.Background()

	claim := trackerClaim(t, store, "CLM-LI-1", model.StatusPaid)
	paidAmount := 1000.0
	claim.PaidAmount = &paidAmount

	recordResolved(t, tracker, claim, model.DecisionAppeal, model.CategoryMedicalNecessity, model.OutcomeSuccess)
	recordResolved(t, tracker, claim, model.DecisionAppeal, model.CategoryMedicalNecessity, model.OutcomeSuccess)
	recordResolved(t, tracker, claim, model.DecisionWriteOff, model.CategoryMedicalNecessity, model.OutcomeFailure)

	insights, err := tracker.LearningInsights(ctx, model.CategoryMedicalNecessity, DefaultWindowDays)
	require.NoError(t, err)

	assert.False(t, insights.InsufficientData)
	assert.Equal(t, 3, insights.TotalOutcomes)
	assert.Equal(t, model.DecisionAppeal, insights.BestAction)
	assert.InDelta(t, 1.0, insights.BestSuccessRate, 1e-9)

	appealStats := insights.Actions[model.DecisionAppeal]
	assert.Equal(t, 2, appealStats.Attempts)
	assert.InDelta(t, 1.0, appealStats.SuccessRate, 1e-9)
	assert.Equal(t, 2000.0, appealStats.TotalRevenue)
}

func TestLearningInsightsNoData(t *testing.T) {
	tracker, _ := setupTracker(t)

	insights, err := tracker.LearningInsights(context.Background(), model.CategoryDuplicate, DefaultWindowDays)
	require.NoError(t, err)
	assert.True(t, insights.InsufficientData)
	assert.Zero(t, insights.TotalOutcomes)
}

func TestResolveOnStatusChangePaid(t *testing.T) {
	tracker, store := setupTracker(t)
	ctx := context.Background()

	claim := trackerClaim(t, store, "CLM-RS-1", model.StatusAppealPending)
	pending, err := tracker.Record(ctx, RecordParams{
		Claim:    claim,
		Action:   model.DecisionAppeal,
		Category: model.CategoryMedicalNecessity,
	})
	require.NoError(t, err)

	paidAmount := 1750.0
	claim.Status = model.StatusPaid
	claim.PaidAmount = &paidAmount
	require.NoError(t, tracker.ResolveOnStatusChange(ctx, claim))

	outcomes, err := store.GetOutcomes(ctx, outcomeFilterAll())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, pending.ID, outcomes[0].ID)
	assert.Equal(t, model.OutcomeSuccess, outcomes[0].Result)
	assert.Equal(t, model.StatusPaid, outcomes[0].FinalStatus)
	require.NotNil(t, outcomes[0].RevenueRecovered)
	assert.Equal(t, 1750.0, *outcomes[0].RevenueRecovered)
	assert.Equal(t, model.TriTrue, outcomes[0].AppealSuccessful)
}

func TestResolveOnStatusChangeWriteOff(t *testing.T) {
	tracker, store := setupTracker(t)
	ctx := context.Background()

	claim := trackerClaim(t, store, "CLM-RS-2", model.StatusAppealPending)
	_, err := tracker.Record(ctx, RecordParams{
		Claim:    claim,
		Action:   model.DecisionAppeal,
		Category: model.CategoryEligibility,
	})
	require.NoError(t, err)

	claim.Status = model.StatusWriteOff
	require.NoError(t, tracker.ResolveOnStatusChange(ctx, claim))

	outcomes, err := store.GetOutcomes(ctx, outcomeFilterAll())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, model.OutcomeFailure, outcomes[0].Result)
	require.NotNil(t, outcomes[0].RevenueRecovered)
	assert.Equal(t, 0.0, *outcomes[0].RevenueRecovered)
	assert.Equal(t, model.TriFalse, outcomes[0].AppealSuccessful)
}

func TestResolveOnStatusChangeSecondDenial(t *testing.T) {
	tracker, store := setupTracker(t)
	ctx := context.Background()

	claim := trackerClaim(t, store, "CLM-RS-3", model.StatusResubmitted)
	_, err := tracker.Record(ctx, RecordParams{
		Claim:    claim,
		Action:   model.DecisionResubmit,
		Category: model.CategoryCodingError,
	})
	require.NoError(t, err)

	claim.Status = model.StatusDenied
	require.NoError(t, tracker.ResolveOnStatusChange(ctx, claim))

	outcomes, err := store.GetOutcomes(ctx, outcomeFilterAll())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, model.OutcomeFailure, outcomes[0].Result)
	assert.Equal(t, model.TriFalse, outcomes[0].ResubmissionSuccessful)
	assert.Nil(t, outcomes[0].RevenueRecovered)
}

func TestResolveOnStatusChangeLeavesUnrelatedPending(t *testing.T) {
	tracker, store := setupTracker(t)
	ctx := context.Background()

	// A pending appeal is not settled by a repeat denial.
	claim := trackerClaim(t, store, "CLM-RS-4", model.StatusAppealPending)
	_, err := tracker.Record(ctx, RecordParams{
		Claim:    claim,
		Action:   model.DecisionAppeal,
		Category: model.CategoryMedicalNecessity,
	})
	require.NoError(t, err)

	claim.Status = model.StatusDenied
	require.NoError(t, tracker.ResolveOnStatusChange(ctx, claim))

	pending, err := store.GetPendingOutcomes(ctx, claim.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
