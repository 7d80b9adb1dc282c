// Package rules validates claims against payer formatting and coverage
// rules before submission.
package rules

import (
	"fmt"
	"regexp"
	"time"

	"github.com/remitware/remit/internal/model"
)

var (
	// CPT code format: 5 digits, optionally followed by a 2-letter modifier.
	cptCodePattern = regexp.MustCompile(`^\d{5}([A-Z]{2})?$`)

	// ICD-10 code format: letter, two digits, optional decimal extension.
	icd10CodePattern = regexp.MustCompile(`^[A-Z]\d{2}(\.\d{0,4})?$`)

	// NPI format: exactly 10 digits.
	npiPattern = regexp.MustCompile(`^\d{10}$`)
)

// Result reports the outcome of validating a claim. Errors block the
// CREATED -> VALIDATED transition; warnings flag issues without blocking.
type Result struct {
	Errors   []string
	Warnings []string
	Info     []string
	Valid    bool
}

// ValidateClaim validates a claim against universal and payer-specific rules.
func ValidateClaim(claim *model.Claim, now time.Time) Result {
	var r Result

	r.checkCPTCodes(claim.CPTCodes)
	r.checkICDCodes(claim.ICDCodes)
	r.checkProviderNPI(claim.ProviderNPI)
	r.checkServiceDates(claim.ServiceDateFrom, claim.ServiceDateTo, now)

	switch claim.PayerType {
	case model.PayerMedicare:
		r.checkMedicareRules(claim)
	case model.PayerMedicaid:
		r.checkMedicaidRules(claim)
	case model.PayerCommercial, model.PayerSelfPay:
		// No additional format rules beyond the universal set.
	}

	r.Valid = len(r.Errors) == 0
	return r
}

func (r *Result) checkCPTCodes(codes []string) {
	if len(codes) == 0 {
		r.Errors = append(r.Errors, "at least one CPT code is required")
	}
	for _, code := range codes {
		if !cptCodePattern.MatchString(code) {
			r.Errors = append(r.Errors, fmt.Sprintf("invalid CPT code format: %s", code))
		}
	}
}

func (r *Result) checkICDCodes(codes []string) {
	if len(codes) == 0 {
		r.Errors = append(r.Errors, "at least one ICD code is required")
	}
	for _, code := range codes {
		if !icd10CodePattern.MatchString(code) {
			r.Errors = append(r.Errors, fmt.Sprintf("invalid ICD-10 code format: %s", code))
		}
	}
}

func (r *Result) checkProviderNPI(npi string) {
	if !npiPattern.MatchString(npi) {
		r.Errors = append(r.Errors, fmt.Sprintf("invalid NPI format: %s (must be 10 digits)", npi))
	}
}

func (r *Result) checkServiceDates(from, to, now time.Time) {
	if to.Before(from) {
		r.Errors = append(r.Errors, "service date 'to' must be >= service date 'from'")
	}
	if from.After(now) {
		r.Warnings = append(r.Warnings, "service date is in the future")
	}
}

func (r *Result) checkMedicareRules(claim *model.Claim) {
	if len(claim.ICDCodes) < 1 {
		r.Errors = append(r.Errors, "Medicare requires at least one ICD-10 code")
	}

	for _, cpt := range claim.CPTCodes {
		// Some procedure families need supporting secondary diagnoses.
		if len(cpt) > 0 && cpt[0] == '1' && len(claim.ICDCodes) < 2 {
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("CPT %s may require secondary diagnosis codes for Medicare", cpt))
		}
	}
}

func (r *Result) checkMedicaidRules(claim *model.Claim) {
	if claim.Amount > 10000 {
		r.Warnings = append(r.Warnings, "high-value claim may require prior authorization for Medicaid")
	}
}
