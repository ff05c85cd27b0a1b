package heuristic

import (
	"fmt"
	"strings"

	"github.com/mikey/llm-scam-detector/internal/core"
)

// Score band lower bounds
const (
	bandFraud      = 80
	bandPhishing   = 60
	bandSuspicious = 40
	bandLowRisk    = 20
)

var recommendationsByBand = map[int][]string{
	bandFraud: {
		"Do not respond to this message or click any links",
		"Block the sender and report the content to the relevant authorities",
		"Never share personal or financial information",
	},
	bandPhishing: {
		"Exercise extreme caution with this content",
		"Verify the sender through an official channel before taking any action",
		"Do not provide personal information",
	},
	bandSuspicious: {
		"Be cautious and verify the source independently",
		"Look for additional red flags before proceeding",
	},
	bandLowRisk: {
		"Content appears mostly safe, but stay vigilant",
		"Verify any unexpected requests for money or information",
	},
	0: {
		"Content appears to be safe",
	},
}

func band(score int) int {
	switch {
	case score >= bandFraud:
		return bandFraud
	case score >= bandPhishing:
		return bandPhishing
	case score >= bandSuspicious:
		return bandSuspicious
	case score >= bandLowRisk:
		return bandLowRisk
	default:
		return 0
	}
}

// CategoryForScore maps a risk score onto its category
func CategoryForScore(score int) core.Category {
	switch band(score) {
	case bandFraud:
		return core.CategoryFraud
	case bandPhishing:
		return core.CategoryPhishing
	case bandSuspicious:
		return core.CategorySuspicious
	case bandLowRisk:
		return core.CategoryLowRisk
	default:
		return core.CategorySafe
	}
}

// Recommendations returns the advice list for the score's band.
// The returned slice is a fresh copy.
func Recommendations(score int) []string {
	return append([]string(nil), recommendationsByBand[band(score)]...)
}

// Explain builds the human-readable explanation for a score, its indicators and the content type
func Explain(score int, indicators []string, contentType core.ContentType) string {
	ct := contentType.Normalize()

	switch band(score) {
	case bandFraud:
		return fmt.Sprintf("High-risk %s content detected. Multiple scam indicators found%s.", ct, listed(indicators, 3))
	case bandPhishing:
		return fmt.Sprintf("Moderate-risk %s content. Suspicious patterns detected%s.", ct, listed(indicators, 2))
	case bandSuspicious:
		return fmt.Sprintf("Low-risk %s content with some concerning elements%s.", ct, listed(indicators, 1))
	case bandLowRisk:
		return fmt.Sprintf("Mostly safe %s content with minor concerns%s.", ct, listed(indicators, 1))
	default:
		return fmt.Sprintf("Safe %s content. No significant scam indicators detected.", ct)
	}
}

// listed renders ": a; b" for the first n indicators, or "" when there are none
func listed(indicators []string, n int) string {
	if len(indicators) == 0 {
		return ""
	}
	if len(indicators) > n {
		indicators = indicators[:n]
	}
	return ": " + strings.Join(indicators, "; ")
}
