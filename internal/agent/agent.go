// Package agent implements the denial-resolution decision engine: a pure,
// deterministic function from denial context to a recommended action with a
// confidence score and a human-readable rationale. It performs no I/O and
// writes nothing; identical inputs always produce identical outputs.
package agent

import (
	"fmt"
	"strings"

	"github.com/remitware/remit/internal/model"
)

// Confidence tuning constants.
const (
	baseConfidence           = 0.7
	lowConfidenceThreshold   = 0.6
	highRateBonus            = 0.15
	lowRatePenalty           = 0.2
	highValueWriteOffPenalty = 0.1
	missingInfoPenalty       = 0.1
	maxMissingInfoPenalized  = 3

	highValueAmount      = 10000.0
	exhaustedWriteOffCap = 5000.0
	highHistoricalRate   = 0.7
	lowHistoricalRate    = 0.3
	appealWorthwhileRate = 0.5
	unknownCategoryScore = 0.5
)

// Missing-information item names.
const (
	MissingAuthorizationNumber = "prior_authorization_number"
	MissingClinicalDocs        = "clinical_documentation"
	MissingCodingAudit         = "coding_audit"
	MissingAppealHistory       = "appeal_history"
)

// ClaimContext is the claim data the decision engine reasons over.
type ClaimContext struct {
	AuthorizationNumber    string
	ClinicalNotes          string
	Amount                 float64
	PreviousAppealAttempts int
	CodingReviewPerformed  bool
}

// Input bundles everything one decision depends on. PayerHistory is
// accepted for future use and currently does not influence the result.
type Input struct {
	HistoricalSuccessRate *float64
	PayerHistory          map[string]any
	Context               ClaimContext
	Category              model.DenialCategory
	PayerType             model.PayerType
	RuleBaseline          model.RecommendedAction
}

// Result is the structured decision with its audit trail.
type Result struct {
	Decision     model.DecisionAction
	Rationale    string
	RuleBaseline model.RecommendedAction
	MissingInfo  []string
	Confidence   float64
}

// Decide makes a decision on how to handle a denial.
func Decide(in Input) Result {
	missing := identifyMissingInfo(in.Context, in.Category)

	confidence := baseConfidence
	var rationale strings.Builder
	fmt.Fprintf(&rationale, "Rule-based recommendation: %s for %s denial.",
		in.RuleBaseline, in.Category)

	if in.HistoricalSuccessRate != nil {
		rate := *in.HistoricalSuccessRate
		if rate > highHistoricalRate {
			confidence += highRateBonus
			fmt.Fprintf(&rationale, " High historical success rate (%.0f%%).", rate*100)
		} else if rate < lowHistoricalRate {
			confidence -= lowRatePenalty
			fmt.Fprintf(&rationale, " Low historical success rate (%.0f%%), considering alternatives.", rate*100)
		}
	}

	if in.Context.Amount > highValueAmount {
		fmt.Fprintf(&rationale, " High-value claim ($%.2f), recommend careful review.", in.Context.Amount)
		if in.RuleBaseline == model.ActionWriteOff {
			confidence -= highValueWriteOffPenalty
		}
	}

	if len(missing) > 0 {
		penalized := len(missing)
		if penalized > maxMissingInfoPenalized {
			penalized = maxMissingInfoPenalized
		}
		confidence -= missingInfoPenalty * float64(penalized)
		fmt.Fprintf(&rationale, " Missing information: %s.", strings.Join(missing, ", "))
	}

	decision := selectDecision(in, missing, &confidence, &rationale)

	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	if confidence < lowConfidenceThreshold {
		decision = model.DecisionFlagForHuman
		fmt.Fprintf(&rationale, " Low confidence (%.2f) requires human review.", confidence)
	}

	return Result{
		Decision:     decision,
		Confidence:   confidence,
		Rationale:    rationale.String(),
		MissingInfo:  missing,
		RuleBaseline: in.RuleBaseline,
	}
}

// selectDecision applies the category-specific branch table. The switch is
// exhaustive over the category enumeration so adding a category forces a
// decision here.
func selectDecision(in Input, missing []string, confidence *float64, rationale *strings.Builder) model.DecisionAction {
	switch in.Category {
	case model.CategoryEligibility:
		// Eligibility issues are usually hard to fix.
		if in.HistoricalSuccessRate != nil && *in.HistoricalSuccessRate > appealWorthwhileRate {
			rationale.WriteString(" Historical data suggests appeal may be successful.")
			return model.DecisionAppeal
		}
		return model.DecisionWriteOff

	case model.CategoryCodingError:
		rationale.WriteString(" Coding errors can typically be corrected and resubmitted.")
		return model.DecisionResubmit

	case model.CategoryMedicalNecessity:
		if contains(missing, MissingClinicalDocs) {
			rationale.WriteString(" Missing clinical documentation required for appeal.")
			return model.DecisionFlagForHuman
		}
		rationale.WriteString(" Medical necessity denials often succeed on appeal with proper documentation.")
		return model.DecisionAppeal

	case model.CategoryPriorAuthMissing:
		rationale.WriteString(" Attempt to obtain prior authorization, then resubmit.")
		return model.DecisionRequestAuth

	case model.CategoryTimelyFiling:
		rationale.WriteString(" Timely filing denials cannot typically be resolved.")
		return model.DecisionWriteOff

	case model.CategoryCoverageExhausted:
		rationale.WriteString(" Coverage exhausted - consider patient responsibility.")
		if in.Context.Amount < exhaustedWriteOffCap {
			return model.DecisionWriteOff
		}
		return model.DecisionCollectPatient

	case model.CategoryDuplicate:
		rationale.WriteString(" Duplicate claim requires investigation before action.")
		return model.DecisionFlagForHuman

	case model.CategoryDocumentation, model.CategoryUnknown:
		*confidence = unknownCategoryScore
		rationale.WriteString(" Unclear category, requires human review.")
		return model.DecisionFlagForHuman

	default:
		*confidence = unknownCategoryScore
		rationale.WriteString(" Unclear category, requires human review.")
		return model.DecisionFlagForHuman
	}
}

// identifyMissingInfo lists information that would improve decision quality.
func identifyMissingInfo(claimCtx ClaimContext, category model.DenialCategory) []string {
	var missing []string

	if category == model.CategoryPriorAuthMissing && claimCtx.AuthorizationNumber == "" {
		missing = append(missing, MissingAuthorizationNumber)
	}

	if category == model.CategoryMedicalNecessity && claimCtx.ClinicalNotes == "" {
		missing = append(missing, MissingClinicalDocs)
	}

	if category == model.CategoryCodingError && !claimCtx.CodingReviewPerformed {
		missing = append(missing, MissingCodingAudit)
	}

	// Appeal history always matters when weighing an appeal.
	if claimCtx.PreviousAppealAttempts == 0 {
		missing = append(missing, MissingAppealHistory)
	}

	return missing
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
