package filter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/ports"
	"go.uber.org/zap"
)

const previewRunes = 500

// CliFilter implements a command-line interface for scam detection
type CliFilter struct {
	analyzer ports.Analyzer
	logger   *zap.Logger
	verbose  bool
	out      io.Writer
}

// NewCliFilter creates a new CLI filter writing its report to stdout
func NewCliFilter(analyzer ports.Analyzer, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		analyzer: analyzer,
		logger:   logger,
		verbose:  verbose,
		out:      os.Stdout,
	}, nil
}

// SetOutput redirects the report
func (f *CliFilter) SetOutput(w io.Writer) {
	f.out = w
}

// ProcessSubmission analyzes a submission and prints a report
func (f *CliFilter) ProcessSubmission(ctx context.Context, sub *core.Submission) (*core.RiskAssessment, error) {
	f.logger.Debug("Processing submission", zap.String("source", sub.Source))

	fmt.Fprintf(f.out, "\n=== Submission ===\n")
	fmt.Fprintf(f.out, "Type: %s\n", sub.Type.Normalize())
	fmt.Fprintf(f.out, "Length: %d characters\n", utf8.RuneCountInString(sub.Content))

	if f.verbose {
		preview := sub.Content
		if utf8.RuneCountInString(preview) > previewRunes {
			preview = string([]rune(preview)[:previewRunes]) + "..."
		}
		fmt.Fprintf(f.out, "\nPreview:\n%s\n", preview)
	}

	fmt.Fprintf(f.out, "\n=== Analysis ===\n")
	startTime := time.Now()
	result, err := f.analyzer.Analyze(ctx, sub)
	if err != nil {
		f.logger.Error("Failed to analyze submission", zap.Error(err))
		fmt.Fprintf(f.out, "Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Is scam: %t\n", result.IsScam)
	fmt.Fprintf(f.out, "Risk score: %d/100\n", result.RiskScore)
	fmt.Fprintf(f.out, "Confidence: %.2f\n", result.Confidence)
	fmt.Fprintf(f.out, "Category: %s\n", result.Category)
	fmt.Fprintf(f.out, "Explanation: %s\n", result.Explanation)
	if len(result.Indicators) > 0 {
		fmt.Fprintf(f.out, "Indicators:\n  - %s\n", strings.Join(result.Indicators, "\n  - "))
	}
	if len(result.Recommendations) > 0 {
		fmt.Fprintf(f.out, "Recommendations:\n  - %s\n", strings.Join(result.Recommendations, "\n  - "))
	}
	fmt.Fprintf(f.out, "Detection method: %s\n", result.DetectionMethod)
	fmt.Fprintf(f.out, "Model used: %s\n", result.ModelUsed)
	fmt.Fprintf(f.out, "Processing time: %v\n", duration)

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
