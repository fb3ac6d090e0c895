package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-prioritizer/internal/classify"
	"github.com/mikey/email-prioritizer/internal/config"
	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/factory"
	"github.com/mikey/email-prioritizer/internal/logging"
	"github.com/mikey/email-prioritizer/internal/metrics"
	"github.com/mikey/email-prioritizer/internal/ports"
	"github.com/mikey/email-prioritizer/internal/utils"
	"github.com/mikey/email-prioritizer/internal/vip"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewVectorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register LLM classifier
	if err := container.Provide(func(f *factory.LLMFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register vector index
	if err := container.Provide(func(f *factory.VectorFactory) (core.VectorIndex, error) {
		return f.CreateVectorIndex()
	}); err != nil {
		return nil, err
	}

	// Register VIP sender directory
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.SenderDirectory {
		priorityCfg := cfg.GetPriority()
		if len(priorityCfg.VIPSenders) > 0 {
			logger.Info("Loaded VIP senders", zap.Strings("senders", priorityCfg.VIPSenders))
		}
		return vip.NewDirectory(priorityCfg.VIPSenders, priorityCfg.VIPImportance, logger)
	}); err != nil {
		return nil, err
	}

	// Register intent classifier
	if err := container.Provide(func(logger *zap.Logger) core.IntentClassifier {
		return classify.NewKeywordIntentClassifier(logger)
	}); err != nil {
		return nil, err
	}

	// Register metrics collector
	if err := container.Provide(func() core.MetricsRecorder {
		return metrics.NewCollector()
	}); err != nil {
		return nil, err
	}

	// Register scoring pipeline
	if err := container.Provide(core.NewUrgencyExtractor); err != nil {
		return nil, err
	}
	if err := container.Provide(func(classifier core.Classifier, index core.VectorIndex, senders core.SenderDirectory, logger *zap.Logger) *core.SignalGatherer {
		return core.NewSignalGatherer(classifier, index, senders, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		cfg *config.Config,
		urgency *core.UrgencyExtractor,
		signals *core.SignalGatherer,
		intent core.IntentClassifier,
		classifier core.Classifier,
		logger *zap.Logger,
	) *core.PriorityScorer {
		return core.NewPriorityScorer(
			urgency,
			signals,
			intent,
			classifier,
			classifier,
			cfg.GetPriority().UseZeroShot,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	// Register priority service
	if err := container.Provide(func(
		cfg *config.Config,
		scorer *core.PriorityScorer,
		classifier core.Classifier,
		index core.VectorIndex,
		collector core.MetricsRecorder,
		logger *zap.Logger,
	) *core.PriorityService {
		return core.NewPriorityService(
			scorer,
			classifier,
			index,
			classifier,
			collector,
			logger,
			cfg.GetPriority().StoreResults,
		)
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
