package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/remitware/remit/internal/model"
)

// FormatAmount renders a dollar amount.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// FormatTime renders a timestamp for table output.
func FormatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

// FormatOptionalTime renders a nullable timestamp, with a dash for unset.
func FormatOptionalTime(t *time.Time) string {
	if t == nil {
		return SubtleStyle.Render("—")
	}
	return FormatTime(*t)
}

// RenderClaimDetail renders one claim as a labeled field list.
func RenderClaimDetail(claim *model.Claim) string {
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(LabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	b.WriteString(FormatTitle(fmt.Sprintf("Claim %s", claim.ClaimNumber)))
	b.WriteString("\n")
	row("ID", claim.ID)
	row("Status", RenderStatus(claim.Status))
	row("Payer", fmt.Sprintf("%s (%s)", claim.PayerID, claim.PayerType))
	row("Provider NPI", claim.ProviderNPI)
	row("Patient", claim.PatientID)
	row("Amount", FormatAmount(claim.Amount))
	if claim.PaidAmount != nil {
		row("Paid amount", FormatAmount(*claim.PaidAmount))
	}
	row("CPT codes", strings.Join(claim.CPTCodes, ", "))
	row("ICD codes", strings.Join(claim.ICDCodes, ", "))
	row("Service dates", fmt.Sprintf("%s to %s",
		claim.ServiceDateFrom.Format("2006-01-02"),
		claim.ServiceDateTo.Format("2006-01-02")))
	row("Submitted", FormatOptionalTime(claim.SubmittedAt))
	row("Responded", FormatOptionalTime(claim.RespondedAt))
	row("Paid", FormatOptionalTime(claim.PaidAt))

	if claim.DenialReason != "" {
		row("Denial reason", ErrorStyle.Render(claim.DenialReason))
	}
	if claim.RecommendedAction != "" {
		row("Recommended action", string(claim.RecommendedAction))
	}
	if claim.AgentConfidence != nil {
		row("Agent confidence", RenderConfidence(*claim.AgentConfidence))
	}
	if claim.RequiresHumanReview {
		row("Review", WarningStyle.Render("requires human review"))
	}

	return b.String()
}

// RenderDecision renders one agent decision with its rationale.
func RenderDecision(decision *model.AgentDecision) string {
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(LabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Decision ID", decision.ID)
	row("Decision", BoldStyle.Render(string(decision.Decision)))
	row("Confidence", RenderConfidence(decision.Confidence))
	row("Category", string(decision.DenialCategory))
	row("Rule baseline", string(decision.RuleBaseline))
	if decision.HistoricalSuccessRate != nil {
		row("Historical rate", formatPercent(*decision.HistoricalSuccessRate))
	}
	if len(decision.MissingInfo) > 0 {
		row("Missing info", strings.Join(decision.MissingInfo, ", "))
	}
	if decision.RequiresHumanReview {
		row("Review", WarningStyle.Render("requires human review"))
	}
	if decision.WasExecuted {
		row("Executed", FormatSuccess(decision.ExecutedAction))
		row("Result", decision.ExecutionResult)
	} else if decision.ExecutionResult != "" {
		row("Result", ErrorStyle.Render(decision.ExecutionResult))
	}
	if decision.HumanOverride {
		row("Overridden by", decision.HumanReviewer)
		if decision.HumanNotes != "" {
			row("Notes", decision.HumanNotes)
		}
	}
	row("Rationale", SubtleStyle.Render(decision.Rationale))

	return b.String()
}

// RenderTable renders rows with a styled header. Column widths fit the
// widest cell.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			if i < len(widths) && len(stripANSI(cell)) > widths[i] {
				widths[i] = len(stripANSI(cell))
			}
		}
	}

	var b strings.Builder
	var headerRow strings.Builder
	for i, h := range headers {
		headerRow.WriteString(pad(h, widths[i]))
		headerRow.WriteString("  ")
	}
	b.WriteString(TableHeaderStyle.Render(strings.TrimRight(headerRow.String(), " ")))
	b.WriteString("\n")

	for _, r := range rows {
		for i, cell := range r {
			if i < len(widths) {
				b.WriteString(cell)
				b.WriteString(strings.Repeat(" ", widths[i]-len(stripANSI(cell))+2))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// stripANSI removes escape sequences so styled cells measure correctly.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
