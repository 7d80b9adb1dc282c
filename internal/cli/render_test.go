package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/remitware/remit/internal/model"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$1500.00", FormatAmount(1500))
	assert.Equal(t, "$0.50", FormatAmount(0.5))
}

func TestRenderClaimDetailIncludesCoreFields(t *testing.T) {
	from := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	confidence := 0.82
	claim := &model.Claim{
		ID:                "abc-123",
		ClaimNumber:       "CLM-9001",
		ProviderNPI:       "1234567890",
		PatientID:         "PT-1",
		PayerID:           "PAYER-X",
		PayerType:         model.PayerMedicare,
		Status:            model.StatusDenied,
		Amount:            1234.56,
		CPTCodes:          []string{"99213"},
		ICDCodes:          []string{"E11.9"},
		ServiceDateFrom:   from,
		ServiceDateTo:     from,
		DenialReason:      string(model.ReasonInvalidCPTCode),
		RecommendedAction: model.ActionResubmit,
		AgentConfidence:   &confidence,
	}

	out := RenderClaimDetail(claim)
	assert.Contains(t, out, "CLM-9001")
	assert.Contains(t, out, "DENIED")
	assert.Contains(t, out, "$1234.56")
	assert.Contains(t, out, "INVALID_CPT_CODE")
	assert.Contains(t, out, "RESUBMIT")
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := RenderTable(
		[]string{"NUMBER", "STATUS"},
		[][]string{
			{"CLM-1", "CREATED"},
			{"CLM-100", "DENIED"},
		},
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NUMBER")
	assert.Contains(t, lines[1], "CLM-1")
	assert.Contains(t, lines[2], "CLM-100")
}

func TestStripANSI(t *testing.T) {
	styled := ErrorStyle.Render("DENIED")
	assert.Equal(t, "DENIED", stripANSI(styled))
}

func TestRenderConfidenceBuckets(t *testing.T) {
	high := stripANSI(RenderConfidence(0.9))
	mid := stripANSI(RenderConfidence(0.55))
	low := stripANSI(RenderConfidence(0.2))

	assert.Equal(t, "90%", high)
	assert.Equal(t, "55%", mid)
	assert.Equal(t, "20%", low)
}
