package factory

import (
	"fmt"

	"github.com/mikey/email-prioritizer/internal/adapters/bedrock"
	"github.com/mikey/email-prioritizer/internal/adapters/gemini"
	"github.com/mikey/email-prioritizer/internal/adapters/openai"
	"github.com/mikey/email-prioritizer/internal/config"
	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/utils"
	"go.uber.org/zap"
)

// LLMFactory creates LLM classifiers
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

// CreateClassifier creates a new LLM classifier based on the configuration
func (f *LLMFactory) CreateClassifier() (core.Classifier, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
