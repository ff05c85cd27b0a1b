// Package heuristic implements the rule-based scam scorer used as the primary detector and as
// the fallback when no AI classifier is available.
package heuristic

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mikey/llm-scam-detector/internal/core"
)

// domainPattern captures the host of the first http(s) URL
var domainPattern = regexp.MustCompile(`https?://([^/]+)`)

// Scorer computes risk assessments from lexical patterns only.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	rules         *RuleSet
	textMatcher   *phraseMatcher
	domainMatcher *phraseMatcher
	domainPattern *regexp.Regexp
}

// NewScorer creates a scorer over the given rules, or the default rules when nil
func NewScorer(rules *RuleSet) *Scorer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Scorer{
		rules:         rules,
		textMatcher:   newPhraseMatcher(rules.textPhrases()),
		domainMatcher: newPhraseMatcher(rules.domainPhrases()),
		domainPattern: domainPattern,
	}
}

// NewDefaultScorer creates a scorer over the built-in rule table
func NewDefaultScorer() *Scorer {
	return NewScorer(nil)
}

// Evaluate scores text of the given content type. It never fails.
func (s *Scorer) Evaluate(text string, contentType core.ContentType) *core.RiskAssessment {
	ct := contentType.Normalize()
	normalized := strings.ToLower(text)

	var acc accumulator
	hits := s.textMatcher.match(normalized)

	acc.apply(s.rules.Universal, hits)
	acc.apply(s.rules.TypeSpecific[ct], hits)

	switch ct {
	case core.ContentTypeURL:
		if domain := extractDomain(s.domainPattern, normalized); domain != "" {
			domainHits := s.domainMatcher.match(domain)
			acc.apply(s.rules.DomainKeywords, domainHits)
			for _, r := range s.rules.NewTLDs {
				if domainHits[r.Phrase] {
					acc.add(r.Weight, IndicatorNewTLD)
				}
			}
		}
	case core.ContentTypeJobOffer, core.ContentTypeInvoice:
		acc.apply(s.rules.Named[ct], hits)
	}

	if utf8.RuneCountInString(text) < shortTextLength {
		acc.add(shortTextWeight, IndicatorShortText)
	}

	score := acc.score
	if score > maxRiskScore {
		score = maxRiskScore
	}

	indicators := acc.indicators
	if len(indicators) > core.MaxIndicators {
		indicators = indicators[:core.MaxIndicators]
	}
	if indicators == nil {
		indicators = []string{}
	}

	return &core.RiskAssessment{
		IsScam:          score >= core.ScamScoreThreshold,
		Confidence:      float64(score) / 100,
		Category:        CategoryForScore(score),
		RiskScore:       score,
		Explanation:     Explain(score, indicators, ct),
		Indicators:      indicators,
		Recommendations: Recommendations(score),
		DetectionMethod: core.DetectionHeuristic,
	}
}

type accumulator struct {
	score      int
	indicators []string
}

func (a *accumulator) add(weight int, indicator string) {
	a.score += weight
	a.indicators = append(a.indicators, indicator)
}

func (a *accumulator) apply(rules []PatternRule, hits map[string]bool) {
	if len(hits) == 0 {
		return
	}
	for _, r := range rules {
		if hits[r.Phrase] {
			a.add(r.Weight, FormatIndicator(r.Category, r.Phrase))
		}
	}
}

// FormatIndicator renders the indicator string for a fired phrase rule
func FormatIndicator(category, phrase string) string {
	return fmt.Sprintf("%s: contains %q", category, phrase)
}

// extractDomain returns the host part of the first URL matched by pattern, or "" when there is none
func extractDomain(pattern *regexp.Regexp, text string) (domain string) {
	defer func() {
		if r := recover(); r != nil {
			domain = ""
		}
	}()

	m := pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
