package factory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/llm-scam-detector/internal/adapters/bedrock"
	"github.com/mikey/llm-scam-detector/internal/adapters/gemini"
	"github.com/mikey/llm-scam-detector/internal/adapters/openai"
	"github.com/mikey/llm-scam-detector/internal/config"
	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/utils"
	"go.uber.org/zap"
)

// Supported values of llm.provider
const (
	ProviderNone    = "none"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

var (
	errOpenAIKeyRequired = errors.New("openai API key is required")
	errGeminiKeyRequired = errors.New("gemini API key is required")
)

// LLMFactory creates AI classifiers
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates the AI classifier named by llm.provider.
// It returns a nil classifier for the "none" provider, leaving the
// heuristic scorer as the only detection method.
func (f *LLMFactory) CreateClassifier(ctx context.Context) (core.AIClassifier, error) {
	llmCfg, err := f.cfg.GetLLM()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(llmCfg.Provider)) {
	case "", ProviderNone:
		f.logger.Info("No LLM provider configured, using heuristic scoring only")
		return nil, nil
	case ProviderOpenAI:
		if f.cfg.GetOpenAI().APIKey == "" {
			return nil, errOpenAIKeyRequired
		}
		client, err := openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClassifier()
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderGemini:
		if f.cfg.GetGemini().APIKey == "" {
			return nil, errGeminiKeyRequired
		}
		client, err := gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClassifier()
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderBedrock:
		client, err := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClassifier(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmCfg.Provider)
	}
}
