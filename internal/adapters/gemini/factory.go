package gemini

import (
	"fmt"

	"github.com/mikey/email-prioritizer/internal/config"
	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/utils"
	"go.uber.org/zap"
)

// Factory creates Gemini classifiers
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Gemini factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new Gemini classifier
func (f *Factory) CreateClassifier() (core.Classifier, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	classifier, err := NewGeminiClassifier(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.EmbeddingModel,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini classifier: %w", err)
	}
	return classifier, nil
}
