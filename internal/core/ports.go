package core

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by cache repositories when an entry is missing or expired
var ErrCacheMiss = errors.New("cache entry not found")

// Scorer produces a deterministic assessment from text alone
type Scorer interface {
	// Evaluate scores text of the given content type
	Evaluate(text string, contentType ContentType) *RiskAssessment
}

// AIClassifier defines the interface for interacting with LLM services
type AIClassifier interface {
	// Classify asks the model for a risk assessment of the submission
	Classify(ctx context.Context, sub *Submission) (*RiskAssessment, error)
}

// CacheRepository defines the interface for caching assessments
type CacheRepository interface {
	// Get retrieves a cached entry, returning ErrCacheMiss when absent or expired
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// TrustChecker reports whether a URL points at a trusted domain
type TrustChecker interface {
	IsTrusted(rawURL string) bool
}

// Limiter paces calls to the AI classifier
type Limiter interface {
	Allow() bool
}

// Recorder receives assessment telemetry
type Recorder interface {
	ObserveAssessment(method DetectionMethod, category Category, duration time.Duration)
	CacheHit()
	CacheMiss()
	AIFallback(reason string)
}
