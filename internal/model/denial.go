package model

// DenialReason identifies the specific reason a payer denied a claim.
type DenialReason string

// Known denial reasons.
const (
	ReasonInvalidCPTCode        DenialReason = "INVALID_CPT_CODE"
	ReasonInvalidICDCode        DenialReason = "INVALID_ICD_CODE"
	ReasonMissingAuthorization  DenialReason = "MISSING_AUTHORIZATION"
	ReasonDuplicateClaim        DenialReason = "DUPLICATE_CLAIM"
	ReasonCoverageTerminated    DenialReason = "COVERAGE_TERMINATED"
	ReasonCOBRequired           DenialReason = "COB_REQUIRED"
	ReasonTimelyFiling          DenialReason = "TIMELY_FILING"
	ReasonInvalidProvider       DenialReason = "INVALID_PROVIDER"
	ReasonNotMedicallyNecessary DenialReason = "NOT_MEDICALLY_NECESSARY"
	ReasonBenefitsExhausted     DenialReason = "BENEFITS_EXHAUSTED"
	ReasonDocumentationRequired DenialReason = "DOCUMENTATION_REQUIRED"
	ReasonUnknown               DenialReason = "UNKNOWN"
)

// DenialCategory is the normalized grouping a denial reason rolls up to.
// The decision engine reasons over categories, not raw reasons.
type DenialCategory string

// Normalized denial categories.
const (
	CategoryEligibility       DenialCategory = "ELIGIBILITY"
	CategoryMedicalNecessity  DenialCategory = "MEDICAL_NECESSITY"
	CategoryCodingError       DenialCategory = "CODING_ERROR"
	CategoryPriorAuthMissing  DenialCategory = "PRIOR_AUTH_MISSING"
	CategoryTimelyFiling      DenialCategory = "TIMELY_FILING"
	CategoryCoverageExhausted DenialCategory = "COVERAGE_EXHAUSTED"
	CategoryDuplicate         DenialCategory = "DUPLICATE"
	CategoryDocumentation     DenialCategory = "DOCUMENTATION"
	CategoryUnknown           DenialCategory = "UNKNOWN"
)

// AllCategories lists every normalized denial category.
var AllCategories = []DenialCategory{
	CategoryEligibility,
	CategoryMedicalNecessity,
	CategoryCodingError,
	CategoryPriorAuthMissing,
	CategoryTimelyFiling,
	CategoryCoverageExhausted,
	CategoryDuplicate,
	CategoryDocumentation,
	CategoryUnknown,
}

// RecommendedAction is the rule-baseline action for a denial category.
type RecommendedAction string

// Rule-baseline actions.
const (
	ActionWriteOff       RecommendedAction = "WRITE_OFF"
	ActionResubmit       RecommendedAction = "RESUBMIT"
	ActionAppeal         RecommendedAction = "APPEAL"
	ActionRequestAuth    RecommendedAction = "REQUEST_AUTH"
	ActionCollectPatient RecommendedAction = "COLLECT_PATIENT"
	ActionNoAction       RecommendedAction = "NO_ACTION"
)

// DecisionAction is the action the decision engine selects for a denial.
// It is a superset of RecommendedAction: a decision may defer to a human.
type DecisionAction string

// Decision actions.
const (
	DecisionResubmit       DecisionAction = "RESUBMIT"
	DecisionAppeal         DecisionAction = "APPEAL"
	DecisionWriteOff       DecisionAction = "WRITE_OFF"
	DecisionRequestAuth    DecisionAction = "REQUEST_AUTH"
	DecisionCollectPatient DecisionAction = "COLLECT_PATIENT"
	DecisionFlagForHuman   DecisionAction = "FLAG_FOR_HUMAN"
	DecisionNoAction       DecisionAction = "NO_ACTION"
)
