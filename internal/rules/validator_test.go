package rules

import (
	"testing"
	"time"

	"github.com/remitware/remit/internal/model"
	"github.com/stretchr/testify/assert"
)

func validClaim() *model.Claim {
	return &model.Claim{
		ClaimNumber:     "CLM-001",
		ProviderNPI:     "1234567890",
		PayerType:       model.PayerCommercial,
		Amount:          1500,
		CPTCodes:        []string{"99213"},
		ICDCodes:        []string{"E11.9"},
		ServiceDateFrom: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		ServiceDateTo:   time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
	}
}

var now = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func TestValidateClaim_ValidClaim(t *testing.T) {
	result := ValidateClaim(validClaim(), now)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateClaim_CPTCodes(t *testing.T) {
	tests := []struct {
		name     string
		codes    []string
		wantErrs int
	}{
		{"valid five digit", []string{"99213"}, 0},
		{"valid with modifier", []string{"99213TC"}, 0},
		{"empty list", nil, 1},
		{"too short", []string{"9921"}, 1},
		{"letters in digits", []string{"9921A"}, 1},
		{"lowercase modifier", []string{"99213tc"}, 1},
		{"multiple invalid", []string{"abc", "12"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := validClaim()
			claim.CPTCodes = tt.codes
			result := ValidateClaim(claim, now)
			assert.Len(t, result.Errors, tt.wantErrs)
			assert.Equal(t, tt.wantErrs == 0, result.Valid)
		})
	}
}

func TestValidateClaim_ICDCodes(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		valid bool
	}{
		{"valid with decimal", []string{"E11.9"}, true},
		{"valid bare", []string{"E11"}, true},
		{"valid bare decimal point", []string{"E11."}, true},
		{"missing leading letter", []string{"119"}, false},
		{"lowercase letter", []string{"e11.9"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := validClaim()
			claim.ICDCodes = tt.codes
			assert.Equal(t, tt.valid, ValidateClaim(claim, now).Valid)
		})
	}
}

func TestValidateClaim_ProviderNPI(t *testing.T) {
	claim := validClaim()
	claim.ProviderNPI = "12345"
	result := ValidateClaim(claim, now)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "invalid NPI format")
}

func TestValidateClaim_ServiceDates(t *testing.T) {
	claim := validClaim()
	claim.ServiceDateFrom = time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	claim.ServiceDateTo = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	result := ValidateClaim(claim, now)
	assert.False(t, result.Valid)

	// Future service dates warn without blocking.
	claim = validClaim()
	claim.ServiceDateFrom = now.AddDate(0, 1, 0)
	claim.ServiceDateTo = now.AddDate(0, 1, 2)
	result = ValidateClaim(claim, now)
	assert.True(t, result.Valid)
	assert.NotEmpty(t, result.Warnings)
}

func TestValidateClaim_MedicareSecondaryDiagnosisWarning(t *testing.T) {
	claim := validClaim()
	claim.PayerType = model.PayerMedicare
	claim.CPTCodes = []string{"10040"}
	claim.ICDCodes = []string{"E11.9"}

	result := ValidateClaim(claim, now)
	assert.True(t, result.Valid)
	assert.NotEmpty(t, result.Warnings)
}

func TestValidateClaim_MedicaidHighValueWarning(t *testing.T) {
	claim := validClaim()
	claim.PayerType = model.PayerMedicaid
	claim.Amount = 12000

	result := ValidateClaim(claim, now)
	assert.True(t, result.Valid)
	assert.Contains(t, result.Warnings[0], "prior authorization")
}
