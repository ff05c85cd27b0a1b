package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mikey/llm-scam-detector/internal/config"
	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/heuristic"
	"github.com/mikey/llm-scam-detector/internal/metrics"
	"github.com/mikey/llm-scam-detector/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const phishingText = "URGENT: Your account will be suspended. Click here to verify: http://secure-bank-update.com"

func testConfig() config.HTTPConfig {
	return config.HTTPConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		MaxRequestBytes: 4096,
		MaxContentEcho:  20,
	}
}

func createTestServer(t *testing.T, cfg config.HTTPConfig) (*Server, *metrics.Metrics) {
	t.Helper()
	logger := zap.NewNop()
	m := metrics.New()
	svc := core.NewAssessmentService(heuristic.NewDefaultScorer(), nil, nil, nil, nil, m, logger, core.ServiceOptions{})
	return NewServer(cfg, svc, m, utils.NewTextProcessor(logger), logger), m
}

func postAnalyze(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	server, _ := createTestServer(t, testConfig())

	body, err := json.Marshal(AnalyzeRequest{Content: phishingText, Type: "text"})
	require.NoError(t, err)
	rec := postAnalyze(t, server, string(body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["isScam"])
	assert.InDelta(t, 65, resp["riskScore"], 0)
	assert.InDelta(t, 0.65, resp["confidence"], 1e-9)
	assert.Equal(t, "phishing", resp["category"])
	assert.Equal(t, "heuristic", resp["detectionMethod"])
	assert.Equal(t, "text", resp["contentType"])
	assert.Equal(t, "URGENT: Your account", resp["content"])
	assert.NotEmpty(t, resp["id"])
	assert.Len(t, resp["indicators"], 10)
}

func TestAnalyzeEndpoint_NormalizesType(t *testing.T) {
	server, _ := createTestServer(t, testConfig())

	rec := postAnalyze(t, server, `{"content":"hello there, how are you doing today?","type":"carrier-pigeon"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, core.ContentTypeText, resp.ContentType)
	assert.Equal(t, 0, resp.RiskScore)
	assert.Equal(t, core.CategorySafe, resp.Category)
}

func TestAnalyzeEndpoint_BadRequests(t *testing.T) {
	server, _ := createTestServer(t, testConfig())

	tests := map[string]string{
		"malformed json": `{"content":`,
		"blank content":  `{"content":"   ","type":"text"}`,
		"missing body":   ``,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := postAnalyze(t, server, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestAnalyzeEndpoint_TooLarge(t *testing.T) {
	server, _ := createTestServer(t, testConfig())

	body := `{"content":"` + strings.Repeat("a", 5000) + `"}`
	rec := postAnalyze(t, server, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyzeEndpoint_TooLargeChunked(t *testing.T) {
	server, _ := createTestServer(t, testConfig())

	body := `{"content":"` + strings.Repeat("a", 5000) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", io.NopCloser(bytes.NewBufferString(body)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyzeEndpoint_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	server, _ := createTestServer(t, cfg)

	first := postAnalyze(t, server, `{"content":"hello world, nothing to see here"}`)
	second := postAnalyze(t, server, `{"content":"hello world, nothing to see here"}`)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, *core.Submission) (*core.RiskAssessment, error) {
	return nil, errors.New("boom")
}

func TestAnalyzeEndpoint_InternalError(t *testing.T) {
	logger := zap.NewNop()
	server := NewServer(testConfig(), failingAnalyzer{}, nil, utils.NewTextProcessor(logger), logger)

	rec := postAnalyze(t, server, `{"content":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	server, _ := createTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	postAnalyze(t, server, `{"content":"`+phishingText+`"}`)

	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `scam_detector_assessments_total{category="phishing",method="heuristic"} 1`)
	assert.Contains(t, rec.Body.String(), `scam_detector_http_requests_total{route="/api/v1/analyze",status="200"} 1`)
}

func TestMethodNotAllowed(t *testing.T) {
	server, _ := createTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerStartStop(t *testing.T) {
	server, _ := createTestServer(t, testConfig())

	require.NoError(t, server.Start())
	assert.NotEmpty(t, server.Addr())
	assert.NoError(t, server.Stop())
}

func TestServerStart_AddressInUse(t *testing.T) {
	first, _ := createTestServer(t, testConfig())
	require.NoError(t, first.Start())
	defer first.Stop() //nolint:errcheck

	cfg := testConfig()
	cfg.ListenAddress = first.Addr()
	second, _ := createTestServer(t, cfg)
	assert.Error(t, second.Start())
}

// blockingAnalyzer holds each analysis until released
type blockingAnalyzer struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingAnalyzer) Analyze(context.Context, *core.Submission) (*core.RiskAssessment, error) {
	close(b.entered)
	<-b.release
	return &core.RiskAssessment{Category: core.CategorySafe}, nil
}

func TestServerStop_DrainsInFlightWithoutTimeouts(t *testing.T) {
	cfg := testConfig()
	cfg.WriteTimeout = 0
	cfg.ShutdownTimeout = 0
	logger := zap.NewNop()
	analyzer := &blockingAnalyzer{entered: make(chan struct{}), release: make(chan struct{})}
	server := NewServer(cfg, analyzer, nil, utils.NewTextProcessor(logger), logger)
	require.NoError(t, server.Start())

	type reply struct {
		status int
		err    error
	}
	replies := make(chan reply, 1)
	go func() {
		resp, err := http.Post("http://"+server.Addr()+"/api/v1/analyze", "application/json",
			strings.NewReader(`{"content":"hello there","type":"text"}`))
		if err != nil {
			replies <- reply{err: err}
			return
		}
		resp.Body.Close()
		replies <- reply{status: resp.StatusCode}
	}()

	select {
	case <-analyzer.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the analyzer")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- server.Stop() }()

	time.Sleep(50 * time.Millisecond)
	close(analyzer.release)

	require.NoError(t, <-stopped)
	r := <-replies
	require.NoError(t, r.err)
	assert.Equal(t, http.StatusOK, r.status)
}

func TestShutdownTimeout(t *testing.T) {
	cfg := testConfig()
	server, _ := createTestServer(t, cfg)
	assert.Equal(t, defaultShutdownTimeout, server.shutdownTimeout())

	cfg.ShutdownTimeout = 3 * time.Second
	server, _ = createTestServer(t, cfg)
	assert.Equal(t, 3*time.Second, server.shutdownTimeout())
}
