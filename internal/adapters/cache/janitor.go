package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type cleaner interface {
	Cleanup(ctx context.Context) error
}

// janitor periodically removes expired entries from a cache
type janitor struct {
	stopCh chan struct{}
	once   sync.Once
}

// startJanitor runs c.Cleanup every freq until stopped. A non-positive
// freq disables the sweep and returns a janitor whose stop is a no-op.
func startJanitor(c cleaner, freq time.Duration, logger *zap.Logger) *janitor {
	j := &janitor{stopCh: make(chan struct{})}
	if freq <= 0 {
		return j
	}

	go func() {
		ticker := time.NewTicker(freq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := c.Cleanup(context.Background()); err != nil {
					logger.Error("Failed to clean up cache", zap.Error(err))
				}
			case <-j.stopCh:
				return
			}
		}
	}()

	return j
}

func (j *janitor) stop() {
	j.once.Do(func() { close(j.stopCh) })
}
