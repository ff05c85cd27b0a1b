package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/llm-scam-detector/internal/core"
)

var errMissingAssessment = errors.New("cached entry has no assessment")

// storedEntry is the serialized form of a cache entry in external stores
type storedEntry struct {
	Assessment *core.RiskAssessment `json:"assessment"`
	CreatedAt  time.Time            `json:"createdAt"`
	ExpiresAt  time.Time            `json:"expiresAt"`
}

func encodeEntry(entry *core.CacheEntry) ([]byte, error) {
	data, err := json.Marshal(storedEntry{
		Assessment: entry.Assessment,
		CreatedAt:  entry.CreatedAt,
		ExpiresAt:  entry.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return data, nil
}

func decodeEntry(key string, data []byte) (*core.CacheEntry, error) {
	var stored storedEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if stored.Assessment == nil {
		return nil, errMissingAssessment
	}
	return &core.CacheEntry{
		Key:        key,
		Assessment: stored.Assessment,
		CreatedAt:  stored.CreatedAt,
		ExpiresAt:  stored.ExpiresAt,
	}, nil
}
