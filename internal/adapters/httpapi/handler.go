package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/ports"
	"github.com/mikey/llm-scam-detector/internal/utils"
	"go.uber.org/zap"
)

// Handler holds dependencies for API handlers
type Handler struct {
	analyzer      ports.Analyzer
	textProcessor *utils.TextProcessor
	maxEcho       int
	logger        *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(analyzer ports.Analyzer, textProcessor *utils.TextProcessor, maxEcho int, logger *zap.Logger) *Handler {
	return &Handler{
		analyzer:      analyzer,
		textProcessor: textProcessor,
		maxEcho:       maxEcho,
		logger:        logger,
	}
}

// AnalyzeRequest is the request body for POST /api/v1/analyze
type AnalyzeRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// AnalyzeResponse is the assessment plus the echoed submission
type AnalyzeResponse struct {
	*core.RiskAssessment
	Content     string           `json:"content"`
	ContentType core.ContentType `json:"contentType"`
}

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// Analyze handles POST /api/v1/analyze
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		writeError(w, r, http.StatusBadRequest, "content is required")
		return
	}

	sub := &core.Submission{
		Content: req.Content,
		Type:    core.ParseContentType(req.Type),
		Source:  "http:" + r.RemoteAddr,
	}

	result, err := h.analyzer.Analyze(r.Context(), sub)
	if err != nil {
		h.logger.Error("Failed to analyze submission",
			zap.Error(err),
			zap.String("request_id", middleware.GetReqID(r.Context())))
		writeError(w, r, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		RiskAssessment: result,
		Content:        h.textProcessor.TruncateRunes(req.Content, h.maxEcho),
		ContentType:    sub.Type,
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:     msg,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
