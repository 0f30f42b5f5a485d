package factory

import (
	"fmt"

	"github.com/mikey/phishguard/internal/adapters/bedrock"
	"github.com/mikey/phishguard/internal/adapters/gemini"
	"github.com/mikey/phishguard/internal/adapters/httpapi"
	"github.com/mikey/phishguard/internal/adapters/openai"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
)

// ClassifierFactory creates classifiers
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new classifier based on the configuration
func (f *ClassifierFactory) CreateClassifier() (core.Classifier, error) {
	provider := f.cfg.GetClassifier().Provider
	logger := f.logger.With(zap.String("classifier", provider))

	switch provider {
	case "http":
		httpCfg, err := f.cfg.GetHTTPClassifier()
		if err != nil {
			return nil, err
		}
		return httpapi.NewClient(httpCfg.BaseURL, httpCfg.Timeout, httpCfg.URLPayload, httpCfg.MaxResponseBytes, logger)
	case "openai":
		return openai.NewFactory(f.cfg.GetOpenAI(), logger, f.textProcessor).CreateClient()
	case "gemini":
		return gemini.NewFactory(f.cfg.GetGemini(), logger, f.textProcessor).CreateClient()
	case "bedrock":
		return bedrock.NewFactory(f.cfg.GetBedrock(), logger, f.textProcessor).CreateClient()
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", provider)
	}
}
