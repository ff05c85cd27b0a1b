package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNilSubmission is returned when Analyze is called without a submission
var ErrNilSubmission = errors.New("submission is nil")

// Model names stamped on assessments that did not come from an LLM
const (
	ModelHeuristic = "heuristic"
	ModelAllowlist = "allowlist"
)

// Reasons reported to the Recorder when the AI classifier is skipped or fails
const (
	FallbackRateLimited = "rate_limited"
	FallbackError       = "error"
	FallbackTimeout     = "timeout"
	FallbackEmpty       = "empty_result"
)

const trustedExplanation = "URL domain is on the trusted allowlist"

// ServiceOptions tunes the assessment service
type ServiceOptions struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	AITimeout    time.Duration
}

// AssessmentService is the core service for scam detection. It prefers the
// AI classifier and falls back to the heuristic scorer.
type AssessmentService struct {
	scorer   Scorer
	ai       AIClassifier
	cache    CacheRepository
	trust    TrustChecker
	limiter  Limiter
	recorder Recorder
	logger   *zap.Logger
	opts     ServiceOptions
	now      func() time.Time
}

// NewAssessmentService creates a new assessment service. Every dependency
// except the scorer and logger may be nil.
func NewAssessmentService(
	scorer Scorer,
	ai AIClassifier,
	cache CacheRepository,
	trust TrustChecker,
	limiter Limiter,
	recorder Recorder,
	logger *zap.Logger,
	opts ServiceOptions,
) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		scorer:   scorer,
		ai:       ai,
		cache:    cache,
		trust:    trust,
		limiter:  limiter,
		recorder: recorder,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// CacheKey fingerprints a submission for the assessment cache
func CacheKey(contentType ContentType, content string) string {
	h := sha256.New()
	h.Write([]byte(contentType))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// Analyze produces a risk assessment for the submission. Failures of the AI
// classifier or the cache never surface to the caller.
func (s *AssessmentService) Analyze(ctx context.Context, sub *Submission) (*RiskAssessment, error) {
	if sub == nil {
		return nil, ErrNilSubmission
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := s.now()
	normalized := *sub
	normalized.Type = sub.Type.Normalize()

	if normalized.Type == ContentTypeURL && s.trust != nil && s.trust.IsTrusted(normalized.Content) {
		s.logger.Info("Skipping scam check for trusted domain",
			zap.String("source", normalized.Source),
			zap.String("action", "allowlist_bypass"))
		result := trustedAssessment()
		s.finish(result, start)
		return result, nil
	}

	key := CacheKey(normalized.Type, normalized.Content)
	if cached := s.lookup(ctx, key); cached != nil {
		return cached, nil
	}

	result, err := s.classify(ctx, &normalized)
	if err != nil {
		return nil, err
	}
	s.finish(result, start)
	s.store(ctx, key, result)

	return result, nil
}

// classify asks the AI classifier and falls back to the heuristic scorer
func (s *AssessmentService) classify(ctx context.Context, sub *Submission) (*RiskAssessment, error) {
	if s.ai != nil {
		result, reason := s.classifyAI(ctx, sub)
		if result != nil {
			return result, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.recorder != nil {
			s.recorder.AIFallback(reason)
		}
	}

	result := s.scorer.Evaluate(sub.Content, sub.Type)
	if result.ModelUsed == "" {
		result.ModelUsed = ModelHeuristic
	}
	return result, nil
}

func (s *AssessmentService) classifyAI(ctx context.Context, sub *Submission) (*RiskAssessment, string) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.logger.Warn("AI classifier rate limited, using heuristic scorer",
			zap.String("content_type", string(sub.Type)))
		return nil, FallbackRateLimited
	}

	aiCtx := ctx
	if s.opts.AITimeout > 0 {
		var cancel context.CancelFunc
		aiCtx, cancel = context.WithTimeout(ctx, s.opts.AITimeout)
		defer cancel()
	}

	result, err := s.ai.Classify(aiCtx, sub)
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("AI classifier timed out, using heuristic scorer",
			zap.Duration("timeout", s.opts.AITimeout))
		return nil, FallbackTimeout
	case err != nil:
		s.logger.Warn("AI classifier failed, using heuristic scorer", zap.Error(err))
		return nil, FallbackError
	case result == nil:
		s.logger.Warn("AI classifier returned no result, using heuristic scorer")
		return nil, FallbackEmpty
	}
	result.DetectionMethod = DetectionAI
	return result, ""
}

func (s *AssessmentService) lookup(ctx context.Context, key string) *RiskAssessment {
	if !s.opts.CacheEnabled || s.cache == nil {
		return nil
	}

	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("Failed to read cache", zap.Error(err))
		}
		if s.recorder != nil {
			s.recorder.CacheMiss()
		}
		return nil
	}
	if entry == nil || entry.Assessment == nil {
		if s.recorder != nil {
			s.recorder.CacheMiss()
		}
		return nil
	}

	s.logger.Debug("Cache hit for submission", zap.String("key", key))
	if s.recorder != nil {
		s.recorder.CacheHit()
	}
	return entry.Assessment.Clone()
}

func (s *AssessmentService) store(ctx context.Context, key string, result *RiskAssessment) {
	if !s.opts.CacheEnabled || s.cache == nil {
		return
	}

	now := s.now()
	entry := &CacheEntry{
		Key:        key,
		Assessment: result.Clone(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.opts.CacheTTL),
	}
	if err := s.cache.Set(ctx, entry); err != nil {
		s.logger.Error("Failed to update cache", zap.Error(err))
	}
}

// finish stamps service metadata and records telemetry
func (s *AssessmentService) finish(result *RiskAssessment, start time.Time) {
	result.ID = uuid.NewString()
	result.AnalyzedAt = s.now()
	if result.Indicators == nil {
		result.Indicators = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}

	s.logger.Info("Submission analyzed",
		zap.String("id", result.ID),
		zap.Bool("is_scam", result.IsScam),
		zap.Int("risk_score", result.RiskScore),
		zap.String("category", string(result.Category)),
		zap.String("method", string(result.DetectionMethod)),
		zap.String("model", result.ModelUsed))

	if s.recorder != nil {
		s.recorder.ObserveAssessment(result.DetectionMethod, result.Category, time.Since(start))
	}
}

func trustedAssessment() *RiskAssessment {
	return &RiskAssessment{
		IsScam:          false,
		Confidence:      0,
		Category:        CategorySafe,
		RiskScore:       0,
		Explanation:     trustedExplanation,
		Indicators:      []string{},
		Recommendations: []string{"Domain is on the trusted list; still verify unexpected requests"},
		DetectionMethod: DetectionHeuristic,
		ModelUsed:       ModelAllowlist,
	}
}
