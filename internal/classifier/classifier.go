// Package classifier normalizes raw payer denial codes and messages into
// denial categories with confidence scores. It is a best-effort heuristic:
// it never fails, it degrades to UNKNOWN.
package classifier

import (
	"fmt"
	"strings"

	"github.com/remitware/remit/internal/model"
)

// Confidence levels for the individual strategies.
const (
	codeMatchConfidence      = 0.9
	codeUnknownConfidence    = 0.3
	patternVerbatimScore     = 1.0
	patternPartialScore      = 0.7
	messageUnknownConfidence = 0.5
	contextConfidence        = 0.6
)

// Classification is the normalized result for one denial.
type Classification struct {
	Reason     model.DenialReason
	Category   model.DenialCategory
	Details    string
	Confidence float64
}

// ClaimContext carries optional claim fields that refine classification.
type ClaimContext struct {
	CPTCodes []string
	ICDCodes []string
	Amount   float64
}

// Classify combines three strategies over a payer denial: exact code
// lookup, ordered message pattern matching, and claim-context refinement.
// Non-UNKNOWN results win; ties break toward the earlier strategy.
func Classify(payerType model.PayerType, denialCode, denialMessage string, claimCtx *ClaimContext) Classification {
	results := []Classification{
		classifyByCode(denialCode),
		classifyByMessage(denialMessage),
	}

	if claimCtx != nil {
		if refined, ok := classifyByClaimContext(denialMessage, claimCtx); ok {
			results = append(results, refined)
		}
	}

	best := Classification{Confidence: -1}
	for _, c := range results {
		if c.Reason != model.ReasonUnknown && c.Confidence > best.Confidence {
			best = c
		}
	}
	if best.Confidence >= 0 {
		return best
	}

	// All strategies came up UNKNOWN; keep the most confident of them.
	for _, c := range results {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

// classifyByCode maps known payer denial codes to reasons.
func classifyByCode(denialCode string) Classification {
	code := strings.ToUpper(strings.TrimSpace(denialCode))

	if reason, ok := codeTable[code]; ok {
		return Classification{
			Reason:     reason,
			Category:   CategoryFor(reason),
			Confidence: codeMatchConfidence,
			Details:    fmt.Sprintf("classified from denial code %s", denialCode),
		}
	}

	return Classification{
		Reason:     model.ReasonUnknown,
		Category:   model.CategoryUnknown,
		Confidence: codeUnknownConfidence,
		Details:    fmt.Sprintf("unknown denial code %s", denialCode),
	}
}

// classifyByMessage scans the pattern rules in priority order against the
// lowercased message. The first reason with a matching pattern wins; a
// verbatim pattern substring scores higher than a bare regex match.
func classifyByMessage(denialMessage string) Classification {
	message := strings.ToLower(denialMessage)

	for _, rule := range patternRules {
		for i, re := range compiledPatterns[rule.reason] {
			if !re.MatchString(message) {
				continue
			}

			confidence := patternPartialScore
			if strings.Contains(message, strings.ToLower(rule.patterns[i])) {
				confidence = patternVerbatimScore
			}

			return Classification{
				Reason:     rule.reason,
				Category:   CategoryFor(rule.reason),
				Confidence: confidence,
				Details:    fmt.Sprintf("classified from message: %s", truncate(denialMessage, 200)),
			}
		}
	}

	return Classification{
		Reason:     model.ReasonUnknown,
		Category:   model.CategoryUnknown,
		Confidence: messageUnknownConfidence,
		Details:    fmt.Sprintf("unable to classify denial message: %s", truncate(denialMessage, 200)),
	}
}

// classifyByClaimContext refines classification from claim data: a denial
// mentioning codes on a claim missing its code lists points at a coding
// problem on whichever list is empty.
func classifyByClaimContext(denialMessage string, claimCtx *ClaimContext) (Classification, bool) {
	if !strings.Contains(strings.ToLower(denialMessage), "code") {
		return Classification{}, false
	}
	if len(claimCtx.CPTCodes) > 0 && len(claimCtx.ICDCodes) > 0 {
		return Classification{}, false
	}

	reason := model.ReasonInvalidICDCode
	if len(claimCtx.CPTCodes) == 0 {
		reason = model.ReasonInvalidCPTCode
	}

	return Classification{
		Reason:     reason,
		Category:   CategoryFor(reason),
		Confidence: contextConfidence,
		Details:    "classified from claim data",
	}, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
