package factory

import (
	"fmt"

	"github.com/mikey/llm-scam-detector/internal/adapters/filter"
	"github.com/mikey/llm-scam-detector/internal/adapters/httpapi"
	"github.com/mikey/llm-scam-detector/internal/config"
	"github.com/mikey/llm-scam-detector/internal/metrics"
	"github.com/mikey/llm-scam-detector/internal/ports"
	"github.com/mikey/llm-scam-detector/internal/utils"
	"go.uber.org/zap"
)

// FilterFactory creates submission frontends based on configuration
type FilterFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	analyzer      ports.Analyzer
	metrics       *metrics.Metrics
	textProcessor *utils.TextProcessor
}

// NewFilterFactory creates a new filter factory. metrics may be nil.
func NewFilterFactory(
	cfg *config.Config,
	logger *zap.Logger,
	analyzer ports.Analyzer,
	m *metrics.Metrics,
	textProcessor *utils.TextProcessor,
) *FilterFactory {
	return &FilterFactory{
		cfg:           cfg,
		logger:        logger,
		analyzer:      analyzer,
		metrics:       m,
		textProcessor: textProcessor,
	}
}

// CreateFrontend creates the frontend named by server.frontend
func (f *FilterFactory) CreateFrontend() (ports.Frontend, error) {
	frontend := f.cfg.GetString("server.frontend")

	switch frontend {
	case "http":
		httpCfg, err := f.cfg.GetHTTP()
		if err != nil {
			return nil, err
		}
		return httpapi.NewServer(httpCfg, f.analyzer, f.metrics, f.textProcessor, f.logger), nil
	case "postfix":
		return filter.NewPostfixFilter(f.analyzer, f.cfg.GetSMTP(), f.logger), nil
	case "cli":
		cli, err := filter.NewCliFilter(f.analyzer, f.logger, f.cfg.GetBool("cli.verbose"))
		if err != nil {
			return nil, err
		}
		return cli, nil
	default:
		return nil, fmt.Errorf("unsupported frontend: %s", frontend)
	}
}
