package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/llm-scam-detector/internal/adapters/filter"
	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/di"
	"github.com/mikey/llm-scam-detector/internal/heuristic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const jobOffer = "Work from home! No experience needed. Pay a small training fee for your starter kit."

func newAnalyzer() *core.AssessmentService {
	return core.NewAssessmentService(heuristic.NewDefaultScorer(), nil, nil, nil, nil, nil, zap.NewNop(), core.ServiceOptions{})
}

func TestRun_JSONOutput(t *testing.T) {
	analyzer := newAnalyzer()
	flags := &di.CLIFlags{ContentType: "job_offer", JSONOutput: true}

	var out bytes.Buffer
	err := run(flags, zap.NewNop(), nil, analyzer, strings.NewReader(jobOffer), &out)
	require.NoError(t, err)

	var result core.RiskAssessment
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, core.DetectionHeuristic, result.DetectionMethod)
	assert.Equal(t, result.RiskScore >= core.ScamScoreThreshold, result.IsScam)
	assert.NotEmpty(t, result.Indicators)
}

func TestRun_ReportFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offer.txt")
	require.NoError(t, os.WriteFile(path, []byte(jobOffer), 0o600))

	analyzer := newAnalyzer()
	cli, err := filter.NewCliFilter(analyzer, zap.NewNop(), false)
	require.NoError(t, err)
	var out bytes.Buffer
	cli.SetOutput(&out)

	flags := &di.CLIFlags{ContentType: "job_offer", InputFile: path}
	require.NoError(t, run(flags, zap.NewNop(), cli, analyzer, strings.NewReader(""), &out))

	assert.Contains(t, out.String(), "Type: job_offer")
	assert.Contains(t, out.String(), "Risk score: ")
}

func TestRun_EmptyInput(t *testing.T) {
	err := run(&di.CLIFlags{}, zap.NewNop(), nil, newAnalyzer(), strings.NewReader("  \n"), &bytes.Buffer{})
	assert.EqualError(t, err, "no content to analyze")
}

func TestRun_MissingFile(t *testing.T) {
	flags := &di.CLIFlags{InputFile: filepath.Join(t.TempDir(), "missing.txt")}
	err := run(flags, zap.NewNop(), nil, newAnalyzer(), strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to open input file")
}
