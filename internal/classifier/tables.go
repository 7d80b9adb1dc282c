package classifier

import (
	"regexp"

	"github.com/remitware/remit/internal/model"
)

// codeTable maps known payer denial codes to denial reasons. Lookups are
// exact-match on the uppercased code.
var codeTable = map[string]model.DenialReason{
	"CO-50":  model.ReasonInvalidCPTCode,
	"CO-19":  model.ReasonInvalidICDCode,
	"CO-29":  model.ReasonMissingAuthorization,
	"CO-18":  model.ReasonDuplicateClaim,
	"CO-11":  model.ReasonCoverageTerminated,
	"CO-197": model.ReasonCOBRequired,
	"CO-16":  model.ReasonTimelyFiling,
	"CO-56":  model.ReasonNotMedicallyNecessary,
	"CO-119": model.ReasonBenefitsExhausted,
	"CO-252": model.ReasonDocumentationRequired,
}

// patternRule ties a denial reason to the message patterns that indicate it.
type patternRule struct {
	reason   model.DenialReason
	patterns []string
}

// patternRules are scanned in order against the lowercased denial message;
// the first reason with any matching pattern wins. Order is the priority.
var patternRules = []patternRule{
	{model.ReasonInvalidCPTCode, []string{
		`invalid.*cpt`,
		`cpt.*not.*covered`,
		`procedure.*code.*invalid`,
		`co-50`,
	}},
	{model.ReasonInvalidICDCode, []string{
		`invalid.*diagnosis`,
		`icd.*not.*valid`,
		`diagnosis.*code.*invalid`,
		`co-19`,
	}},
	{model.ReasonMissingAuthorization, []string{
		`authorization.*required`,
		`prior.*auth.*required`,
		`pre.*authorization`,
		`co-29`,
	}},
	{model.ReasonDuplicateClaim, []string{
		`duplicate`,
		`already.*processed`,
		`previously.*paid`,
		`co-18`,
	}},
	{model.ReasonCoverageTerminated, []string{
		`coverage.*terminated`,
		`coverage.*ended`,
		`benefits.*exhausted`,
		`co-11`,
	}},
	{model.ReasonCOBRequired, []string{
		`coordination.*benefits`,
		`cob.*required`,
		`other.*insurance`,
		`co-197`,
	}},
	{model.ReasonTimelyFiling, []string{
		`timely.*filing`,
		`filing.*deadline`,
		`submitted.*late`,
		`co-16`,
	}},
	{model.ReasonInvalidProvider, []string{
		`provider.*not.*eligible`,
		`invalid.*provider`,
		`provider.*number.*invalid`,
	}},
	{model.ReasonNotMedicallyNecessary, []string{
		`medical.*necessity`,
		`not.*medically.*necessary`,
		`experimental.*investigational`,
		`co-56`,
	}},
	{model.ReasonBenefitsExhausted, []string{
		`benefit.*maximum`,
		`maximum.*benefit.*reached`,
		`lifetime.*maximum`,
		`co-119`,
	}},
	{model.ReasonDocumentationRequired, []string{
		`documentation.*requested`,
		`medical.*records.*required`,
		`additional.*information.*required`,
		`co-252`,
	}},
}

// compiledPatterns mirrors patternRules with pre-compiled regexes.
var compiledPatterns = func() map[model.DenialReason][]*regexp.Regexp {
	compiled := make(map[model.DenialReason][]*regexp.Regexp, len(patternRules))
	for _, rule := range patternRules {
		res := make([]*regexp.Regexp, len(rule.patterns))
		for i, p := range rule.patterns {
			res[i] = regexp.MustCompile(p)
		}
		compiled[rule.reason] = res
	}
	return compiled
}()

// reasonCategories normalizes each denial reason to exactly one category.
var reasonCategories = map[model.DenialReason]model.DenialCategory{
	model.ReasonCoverageTerminated:    model.CategoryEligibility,
	model.ReasonCOBRequired:           model.CategoryEligibility,
	model.ReasonInvalidProvider:       model.CategoryEligibility,
	model.ReasonInvalidCPTCode:        model.CategoryCodingError,
	model.ReasonInvalidICDCode:        model.CategoryCodingError,
	model.ReasonMissingAuthorization:  model.CategoryPriorAuthMissing,
	model.ReasonTimelyFiling:          model.CategoryTimelyFiling,
	model.ReasonDuplicateClaim:        model.CategoryDuplicate,
	model.ReasonNotMedicallyNecessary: model.CategoryMedicalNecessity,
	model.ReasonBenefitsExhausted:     model.CategoryCoverageExhausted,
	model.ReasonDocumentationRequired: model.CategoryDocumentation,
	model.ReasonUnknown:               model.CategoryUnknown,
}

// baselineActions is the deterministic rule-baseline action per category.
var baselineActions = map[model.DenialCategory]model.RecommendedAction{
	model.CategoryEligibility:       model.ActionWriteOff,
	model.CategoryCodingError:       model.ActionResubmit,
	model.CategoryMedicalNecessity:  model.ActionAppeal,
	model.CategoryPriorAuthMissing:  model.ActionRequestAuth,
	model.CategoryTimelyFiling:      model.ActionWriteOff,
	model.CategoryCoverageExhausted: model.ActionWriteOff,
	model.CategoryDuplicate:         model.ActionNoAction,
	model.CategoryDocumentation:     model.ActionAppeal,
	model.CategoryUnknown:           model.ActionNoAction,
}

// CategoryFor returns the normalized category for a denial reason.
func CategoryFor(reason model.DenialReason) model.DenialCategory {
	if category, ok := reasonCategories[reason]; ok {
		return category
	}
	return model.CategoryUnknown
}

// BaselineAction returns the rule-baseline recommended action for a category.
func BaselineAction(category model.DenialCategory) model.RecommendedAction {
	if action, ok := baselineActions[category]; ok {
		return action
	}
	return model.ActionNoAction
}
