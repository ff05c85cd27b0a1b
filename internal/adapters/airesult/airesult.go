// Package airesult turns raw model output into risk assessments and builds the prompt shared by
// every LLM provider.
package airesult

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/llm-scam-detector/internal/core"
)

// ErrNoJSON is returned when the model output contains no JSON object
var ErrNoJSON = errors.New("no JSON object in model response")

// Defaults applied to fields the model leaves out
const (
	defaultConfidence = 0.5
	defaultRiskScore  = 50
)

// Response is the structured answer requested from the model.
// Pointer fields distinguish missing values from zero values.
type Response struct {
	IsScam          *bool    `json:"isScam"`
	Confidence      *float64 `json:"confidence"`
	Category        *string  `json:"category"`
	RiskScore       *float64 `json:"riskScore"`
	Explanation     *string  `json:"explanation"`
	Indicators      []string `json:"indicators"`
	Recommendations []string `json:"recommendations"`
}

// Parse extracts the model's JSON answer from responseText and converts it into an assessment
func Parse(responseText string, modelName string) (*core.RiskAssessment, error) {
	resp, err := decode(responseText)
	if err != nil {
		return nil, err
	}
	a := resp.ToAssessment()
	a.ModelUsed = modelName
	return a, nil
}

func decode(responseText string) (*Response, error) {
	var resp Response
	if err := json.Unmarshal([]byte(responseText), &resp); err == nil {
		return &resp, nil
	}

	// Models often wrap the object in prose or code fences
	jsonStart := strings.Index(responseText, "{")
	jsonEnd := strings.LastIndex(responseText, "}")
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return nil, ErrNoJSON
	}

	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd+1]), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return &resp, nil
}

// ToAssessment applies defaults and clamps to produce a valid assessment
func (r *Response) ToAssessment() *core.RiskAssessment {
	a := &core.RiskAssessment{
		Confidence:      defaultConfidence,
		Category:        core.CategoryUnknown,
		RiskScore:       defaultRiskScore,
		Indicators:      []string{},
		Recommendations: []string{},
		DetectionMethod: core.DetectionAI,
	}

	if r.IsScam != nil {
		a.IsScam = *r.IsScam
	}
	if r.Confidence != nil {
		a.Confidence = clampFloat(*r.Confidence, 0, 1)
	}
	if r.Category != nil && strings.TrimSpace(*r.Category) != "" {
		a.Category = core.Category(strings.ToLower(strings.TrimSpace(*r.Category)))
	}
	if r.RiskScore != nil {
		a.RiskScore = int(clampFloat(*r.RiskScore, 0, 100) + 0.5)
	}
	if r.Explanation != nil {
		a.Explanation = *r.Explanation
	}
	if r.Indicators != nil {
		a.Indicators = append(a.Indicators, r.Indicators...)
		if len(a.Indicators) > core.MaxIndicators {
			a.Indicators = a.Indicators[:core.MaxIndicators]
		}
	}
	if r.Recommendations != nil {
		a.Recommendations = append(a.Recommendations, r.Recommendations...)
	}

	return a
}

func clampFloat(v, lo, hi float64) float64 {
	// NaN compares false everywhere, treat it as the lower bound
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
