package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/email-prioritizer/internal/config"
	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/utils"
	"go.uber.org/zap"
)

// Factory creates Bedrock classifiers
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new Bedrock classifier
func (f *Factory) CreateClassifier() (core.Classifier, error) {
	bedrockCfg := f.cfg.GetBedrock()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	client := bedrockruntime.NewFromConfig(awsCfg)

	classifier := NewBedrockClassifier(
		client,
		bedrockCfg.ModelID,
		bedrockCfg.EmbeddingModelID,
		bedrockCfg.MaxTokens,
		bedrockCfg.Temperature,
		bedrockCfg.TopP,
		bedrockCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
	return classifier, nil
}
