package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikey/llm-scam-detector/internal/core"
)

func TestCategoryForScore_Bands(t *testing.T) {
	for score := 0; score <= 100; score++ {
		var want core.Category
		switch {
		case score >= 80:
			want = core.CategoryFraud
		case score >= 60:
			want = core.CategoryPhishing
		case score >= 40:
			want = core.CategorySuspicious
		case score >= 20:
			want = core.CategoryLowRisk
		default:
			want = core.CategorySafe
		}
		assert.Equal(t, want, CategoryForScore(score), "score %d", score)
	}
}

func TestExplain(t *testing.T) {
	indicators := []string{"a", "b", "c", "d"}

	tests := []struct {
		name       string
		score      int
		indicators []string
		ct         core.ContentType
		want       string
	}{
		{"high risk", 80, indicators, core.ContentTypeURL,
			"High-risk url content detected. Multiple scam indicators found: a; b; c."},
		{"moderate risk", 79, indicators, core.ContentTypeText,
			"Moderate-risk text content. Suspicious patterns detected: a; b."},
		{"low risk", 40, indicators, core.ContentTypeInvoice,
			"Low-risk invoice content with some concerning elements: a."},
		{"mostly safe", 20, indicators, core.ContentTypeJobOffer,
			"Mostly safe job_offer content with minor concerns: a."},
		{"safe", 19, indicators, core.ContentTypeText,
			"Safe text content. No significant scam indicators detected."},
		{"fewer indicators than slice", 95, []string{"only"}, core.ContentTypeText,
			"High-risk text content detected. Multiple scam indicators found: only."},
		{"no indicators", 60, nil, core.ContentTypeText,
			"Moderate-risk text content. Suspicious patterns detected."},
		{"unknown type", 0, nil, core.ContentType("fax"),
			"Safe text content. No significant scam indicators detected."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Explain(tt.score, tt.indicators, tt.ct))
		})
	}
}

func TestRecommendations(t *testing.T) {
	assert.Len(t, Recommendations(100), 3)
	assert.Len(t, Recommendations(60), 3)
	assert.Len(t, Recommendations(59), 2)
	assert.Len(t, Recommendations(20), 2)
	assert.Equal(t, []string{"Content appears to be safe"}, Recommendations(0))
	assert.Equal(t, "Exercise extreme caution with this content", Recommendations(65)[0])

	// callers get their own copy
	r := Recommendations(0)
	r[0] = "changed"
	assert.Equal(t, "Content appears to be safe", Recommendations(0)[0])
}
