package model

import (
	"fmt"
	"time"
)

// Claim represents a medical insurance claim tracked through its lifecycle.
// It is the aggregate root: every other entity references it by ID.
type Claim struct {
	ServiceDateFrom     time.Time
	ServiceDateTo       time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	SubmittedAt         *time.Time
	RespondedAt         *time.Time
	PaidAt              *time.Time
	AllowedAmount       *float64
	PaidAmount          *float64
	AgentConfidence     *float64
	ID                  string
	ClaimNumber         string
	ProviderNPI         string
	PatientID           string
	PayerID             string
	DenialReason        string
	DenialDetails       string
	PayerType           PayerType
	Status              ClaimStatus
	RecommendedAction   RecommendedAction
	CPTCodes            []string
	ICDCodes            []string
	Amount              float64
	RequiresHumanReview bool
}

// Validate ensures the claim carries the fields required before persistence.
func (c *Claim) Validate() error {
	if c.ClaimNumber == "" {
		return fmt.Errorf("claim number is required")
	}
	if c.ProviderNPI == "" {
		return fmt.Errorf("provider NPI is required")
	}
	if c.PatientID == "" {
		return fmt.Errorf("patient ID is required")
	}
	if c.PayerID == "" {
		return fmt.Errorf("payer ID is required")
	}
	if c.PayerType == "" {
		return fmt.Errorf("payer type is required")
	}
	if c.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if len(c.CPTCodes) == 0 {
		return fmt.Errorf("at least one CPT code is required")
	}
	if len(c.ICDCodes) == 0 {
		return fmt.Errorf("at least one ICD code is required")
	}
	if c.ServiceDateTo.Before(c.ServiceDateFrom) {
		return fmt.Errorf("service date range is inverted")
	}
	return nil
}

// RecoverableAmount returns the revenue a successful resolution yields:
// the paid amount when the payer has adjudicated one, else the billed amount.
func (c *Claim) RecoverableAmount() float64 {
	if c.PaidAmount != nil {
		return *c.PaidAmount
	}
	return c.Amount
}
