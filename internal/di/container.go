package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-scam-detector/internal/allowlist"
	"github.com/mikey/llm-scam-detector/internal/config"
	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/factory"
	"github.com/mikey/llm-scam-detector/internal/heuristic"
	"github.com/mikey/llm-scam-detector/internal/logging"
	"github.com/mikey/llm-scam-detector/internal/metrics"
	"github.com/mikey/llm-scam-detector/internal/ports"
	"github.com/mikey/llm-scam-detector/internal/ratelimit"
	"github.com/mikey/llm-scam-detector/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the long-running detector daemon
func BuildContainer() (*dig.Container, error) {
	return buildContainer(config.New)
}

func buildContainer(loadConfig func() (*config.Config, error)) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(loadConfig); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideShared(container); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(metrics.New); err != nil {
		return nil, err
	}
	if err := container.Provide(func(m *metrics.Metrics) core.Recorder { return m }); err != nil {
		return nil, err
	}

	// Register AI call pacing
	if err := container.Provide(func(cfg *config.Config) (core.Limiter, error) {
		llmCfg, err := cfg.GetLLM()
		if err != nil {
			return nil, err
		}
		return ratelimit.New(llmCfg.RateLimitRPS, llmCfg.RateLimitBurst), nil
	}); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register trusted domains
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.TrustChecker {
		return allowlist.NewChecker(cfg.GetStringSlice("detector.trusted_domains"), logger)
	}); err != nil {
		return nil, err
	}

	// Register service options
	if err := container.Provide(factory.ServiceOptions); err != nil {
		return nil, err
	}

	if err := provideService(container); err != nil {
		return nil, err
	}

	return container, nil
}

// provideShared registers the dependencies common to the daemon and the CLI
func provideShared(container *dig.Container) error {
	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register heuristic scorer
	if err := container.Provide(func() core.Scorer { return heuristic.NewDefaultScorer() }); err != nil {
		return err
	}

	// Register AI classifier, nil when no provider is configured
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	return container.Provide(func(f *factory.LLMFactory) (core.AIClassifier, error) {
		return f.CreateClassifier(context.Background())
	})
}

// provideService registers the assessment service and the configured frontend
func provideService(container *dig.Container) error {
	if err := container.Provide(core.NewAssessmentService); err != nil {
		return err
	}
	if err := container.Provide(func(s *core.AssessmentService) ports.Analyzer { return s }); err != nil {
		return err
	}

	// Register frontend
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return err
	}
	return container.Provide(func(f *factory.FilterFactory) (ports.Frontend, error) {
		return f.CreateFrontend()
	})
}
