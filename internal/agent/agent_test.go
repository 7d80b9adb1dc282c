package agent

import (
	"testing"

	"github.com/remitware/remit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

// fullContext has nothing missing, so no missing-info penalties apply.
var fullContext = ClaimContext{
	AuthorizationNumber:    "AUTH-123",
	ClinicalNotes:          "notes on file",
	CodingReviewPerformed:  true,
	PreviousAppealAttempts: 1,
	Amount:                 1500,
}

func TestDecide_Deterministic(t *testing.T) {
	in := Input{
		Context:               fullContext,
		Category:              model.CategoryCodingError,
		PayerType:             model.PayerCommercial,
		RuleBaseline:          model.ActionResubmit,
		HistoricalSuccessRate: floatPtr(0.85),
	}

	first := Decide(in)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Decide(in))
	}
}

func TestDecide_CategoryBranches(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want model.DecisionAction
	}{
		{
			name: "eligibility writes off by default",
			in: Input{
				Context:      fullContext,
				Category:     model.CategoryEligibility,
				RuleBaseline: model.ActionWriteOff,
			},
			want: model.DecisionWriteOff,
		},
		{
			name: "eligibility appeals when history is favorable",
			in: Input{
				Context:               fullContext,
				Category:              model.CategoryEligibility,
				RuleBaseline:          model.ActionWriteOff,
				HistoricalSuccessRate: floatPtr(0.6),
			},
			want: model.DecisionAppeal,
		},
		{
			name: "coding error resubmits",
			in: Input{
				Context:      fullContext,
				Category:     model.CategoryCodingError,
				RuleBaseline: model.ActionResubmit,
			},
			want: model.DecisionResubmit,
		},
		{
			name: "medical necessity appeals with documentation",
			in: Input{
				Context:      fullContext,
				Category:     model.CategoryMedicalNecessity,
				RuleBaseline: model.ActionAppeal,
			},
			want: model.DecisionAppeal,
		},
		{
			name: "prior auth missing requests authorization",
			in: Input{
				Context:      fullContext,
				Category:     model.CategoryPriorAuthMissing,
				RuleBaseline: model.ActionRequestAuth,
			},
			want: model.DecisionRequestAuth,
		},
		{
			name: "timely filing writes off",
			in: Input{
				Context:      fullContext,
				Category:     model.CategoryTimelyFiling,
				RuleBaseline: model.ActionWriteOff,
			},
			want: model.DecisionWriteOff,
		},
		{
			name: "coverage exhausted below cap writes off",
			in: Input{
				Context:      fullContext,
				Category:     model.CategoryCoverageExhausted,
				RuleBaseline: model.ActionWriteOff,
			},
			want: model.DecisionWriteOff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.in)
			assert.Equal(t, tt.want, got.Decision)
			assert.Equal(t, tt.in.RuleBaseline, got.RuleBaseline)
			assert.NotEmpty(t, got.Rationale)
		})
	}
}

func TestDecide_CoverageExhaustedHighValueCollectsPatient(t *testing.T) {
	ctx := fullContext
	ctx.Amount = 8000

	got := Decide(Input{
		Context:      ctx,
		Category:     model.CategoryCoverageExhausted,
		RuleBaseline: model.ActionWriteOff,
	})
	assert.Equal(t, model.DecisionCollectPatient, got.Decision)
}

func TestDecide_MedicalNecessityMissingDocsFlagsHuman(t *testing.T) {
	ctx := fullContext
	ctx.ClinicalNotes = ""

	got := Decide(Input{
		Context:      ctx,
		Category:     model.CategoryMedicalNecessity,
		RuleBaseline: model.ActionAppeal,
	})
	assert.Equal(t, model.DecisionFlagForHuman, got.Decision)
	assert.Contains(t, got.MissingInfo, MissingClinicalDocs)
}

func TestDecide_DuplicateFlagsHuman(t *testing.T) {
	got := Decide(Input{
		Context:      fullContext,
		Category:     model.CategoryDuplicate,
		RuleBaseline: model.ActionNoAction,
	})
	assert.Equal(t, model.DecisionFlagForHuman, got.Decision)
}

func TestDecide_UnknownCategoryForcesHalfConfidence(t *testing.T) {
	got := Decide(Input{
		Context:      fullContext,
		Category:     model.CategoryUnknown,
		RuleBaseline: model.ActionNoAction,
	})
	assert.Equal(t, model.DecisionFlagForHuman, got.Decision)
	assert.InDelta(t, 0.5, got.Confidence, 0.001)
	assert.Contains(t, got.Rationale, "requires human review")
}

func TestDecide_ConfidenceAdjustments(t *testing.T) {
	tests := []struct {
		name           string
		in             Input
		wantConfidence float64
	}{
		{
			name: "base confidence with nothing missing",
			in: Input{
				Context:      fullContext,
				Category:     model.CategoryCodingError,
				RuleBaseline: model.ActionResubmit,
			},
			wantConfidence: 0.7,
		},
		{
			name: "high historical rate adds bonus",
			in: Input{
				Context:               fullContext,
				Category:              model.CategoryCodingError,
				RuleBaseline:          model.ActionResubmit,
				HistoricalSuccessRate: floatPtr(0.9),
			},
			wantConfidence: 0.85,
		},
		{
			name: "low historical rate subtracts",
			in: Input{
				Context:               fullContext,
				Category:              model.CategoryPriorAuthMissing,
				RuleBaseline:          model.ActionRequestAuth,
				HistoricalSuccessRate: floatPtr(0.2)},
			// 0.7 - 0.2 = 0.5, below threshold: flagged for human.
			wantConfidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.in)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 0.001)
		})
	}
}

func TestDecide_LowConfidenceAlwaysFlagsHuman(t *testing.T) {
	got := Decide(Input{
		Context:               fullContext,
		Category:              model.CategoryCodingError,
		RuleBaseline:          model.ActionResubmit,
		HistoricalSuccessRate: floatPtr(0.1),
	})

	assert.Less(t, got.Confidence, 0.6)
	assert.Equal(t, model.DecisionFlagForHuman, got.Decision)
	assert.Contains(t, got.Rationale, "requires human review")
}

func TestDecide_HighValueWriteOffPenalty(t *testing.T) {
	ctx := fullContext
	ctx.Amount = 15000

	got := Decide(Input{
		Context:      ctx,
		Category:     model.CategoryTimelyFiling,
		RuleBaseline: model.ActionWriteOff,
	})

	// 0.7 - 0.1 high-value write-off penalty.
	assert.InDelta(t, 0.6, got.Confidence, 0.001)
	assert.Equal(t, model.DecisionWriteOff, got.Decision)
	assert.Contains(t, got.Rationale, "High-value claim")
}

func TestDecide_MissingInfoPenaltyCapped(t *testing.T) {
	// Empty context against coding error: coding_audit + appeal_history.
	got := Decide(Input{
		Context:      ClaimContext{Amount: 100},
		Category:     model.CategoryCodingError,
		RuleBaseline: model.ActionResubmit,
	})
	assert.Len(t, got.MissingInfo, 2)
	// 0.7 - 0.2 = 0.5 -> below threshold, flagged.
	assert.InDelta(t, 0.5, got.Confidence, 0.001)
	assert.Equal(t, model.DecisionFlagForHuman, got.Decision)
}

func TestDecide_ConfidenceAlwaysClamped(t *testing.T) {
	inputs := []Input{
		{Context: ClaimContext{Amount: 50000}, Category: model.CategoryTimelyFiling, RuleBaseline: model.ActionWriteOff, HistoricalSuccessRate: floatPtr(0.05)},
		{Context: fullContext, Category: model.CategoryCodingError, RuleBaseline: model.ActionResubmit, HistoricalSuccessRate: floatPtr(0.99)},
		{Context: ClaimContext{}, Category: model.CategoryUnknown, RuleBaseline: model.ActionNoAction},
	}

	for _, in := range inputs {
		got := Decide(in)
		require.GreaterOrEqual(t, got.Confidence, 0.0)
		require.LessOrEqual(t, got.Confidence, 1.0)
	}
}

func TestDecide_ScenarioCodingErrorResubmit(t *testing.T) {
	// CO-50 "Invalid CPT code" downstream: CODING_ERROR with a completed
	// coding review decides RESUBMIT above the review threshold.
	got := Decide(Input{
		Context:      fullContext,
		Category:     model.CategoryCodingError,
		PayerType:    model.PayerCommercial,
		RuleBaseline: model.ActionResubmit,
	})

	assert.Equal(t, model.DecisionResubmit, got.Decision)
	assert.Greater(t, got.Confidence, 0.5)
}
