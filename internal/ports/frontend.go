package ports

import (
	"context"

	"github.com/mikey/llm-scam-detector/internal/core"
)

// Analyzer produces risk assessments; implemented by core.AssessmentService
type Analyzer interface {
	Analyze(ctx context.Context, sub *core.Submission) (*core.RiskAssessment, error)
}

// Frontend defines the interface for a submission ingress
type Frontend interface {
	// ProcessSubmission analyzes a submission and returns its assessment
	ProcessSubmission(ctx context.Context, sub *core.Submission) (*core.RiskAssessment, error)

	// Start starts the frontend
	Start() error

	// Stop stops the frontend
	Stop() error
}
