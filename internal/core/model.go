package core

import (
	"strings"
	"time"
)

// ContentType is the declared kind of a submission
type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeURL      ContentType = "url"
	ContentTypeJobOffer ContentType = "job_offer"
	ContentTypeInvoice  ContentType = "invoice"
)

// ParseContentType maps a raw type name to a ContentType.
// Unknown or empty values are treated as plain text.
func ParseContentType(s string) ContentType {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case ContentTypeURL:
		return ContentTypeURL
	case ContentTypeJobOffer:
		return ContentTypeJobOffer
	case ContentTypeInvoice:
		return ContentTypeInvoice
	default:
		return ContentTypeText
	}
}

// Normalize returns the content type with unknown values folded into text
func (t ContentType) Normalize() ContentType {
	return ParseContentType(string(t))
}

// Category is the coarse risk bucket of an assessment
type Category string

const (
	CategoryFraud      Category = "fraud"
	CategoryPhishing   Category = "phishing"
	CategorySuspicious Category = "suspicious"
	CategoryLowRisk    Category = "low_risk"
	CategorySafe       Category = "safe"
	CategoryUnknown    Category = "unknown"
)

// DetectionMethod records which scorer produced an assessment
type DetectionMethod string

const (
	DetectionHeuristic DetectionMethod = "heuristic"
	DetectionAI        DetectionMethod = "ai"
)

// ScamScoreThreshold is the risk score from which content is considered a scam
const ScamScoreThreshold = 60

// MaxIndicators is the maximum number of indicators kept on an assessment
const MaxIndicators = 10

// Submission is a piece of content submitted for analysis
type Submission struct {
	Content string
	Type    ContentType
	// Source identifies the frontend that received the submission (http, postfix, cli)
	Source string
}

// RiskAssessment is the result of analysing a submission
type RiskAssessment struct {
	ID              string          `json:"id,omitempty"`
	IsScam          bool            `json:"isScam"`
	Confidence      float64         `json:"confidence"`
	Category        Category        `json:"category"`
	RiskScore       int             `json:"riskScore"`
	Explanation     string          `json:"explanation"`
	Indicators      []string        `json:"indicators"`
	Recommendations []string        `json:"recommendations"`
	DetectionMethod DetectionMethod `json:"detectionMethod"`
	ModelUsed       string          `json:"modelUsed,omitempty"`
	AnalyzedAt      time.Time       `json:"analyzedAt"`
}

// Clone returns a deep copy of the assessment
func (a *RiskAssessment) Clone() *RiskAssessment {
	if a == nil {
		return nil
	}
	c := *a
	c.Indicators = append([]string(nil), a.Indicators...)
	c.Recommendations = append([]string(nil), a.Recommendations...)
	return &c
}

// CacheEntry is a cached assessment keyed by content fingerprint
type CacheEntry struct {
	Key        string
	Assessment *RiskAssessment
	CreatedAt  time.Time
	ExpiresAt  time.Time
}
