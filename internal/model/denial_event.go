package model

import "time"

// DenialEvent is an immutable record of one payer denial occurrence,
// including the raw payer data and the normalized classification of it.
type DenialEvent struct {
	CreatedAt         time.Time
	ID                string
	ClaimID           string
	PayerID           string
	DenialCode        string
	DenialMessage     string
	RawPayload        string
	Details           string
	PayerType         PayerType
	Reason            DenialReason
	Category          DenialCategory
	RecommendedAction RecommendedAction
	Confidence        float64
}
