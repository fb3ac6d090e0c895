package di

import (
	"flag"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-prioritizer/internal/classify"
	"github.com/mikey/email-prioritizer/internal/config"
	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/factory"
	"github.com/mikey/email-prioritizer/internal/logging"
	"github.com/mikey/email-prioritizer/internal/ports"
	"github.com/mikey/email-prioritizer/internal/utils"
	"github.com/mikey/email-prioritizer/internal/vip"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Scoring flags
	UseZeroShot   bool
	VIPSenders    string
	VIPImportance float64

	// Reply flags
	Reply     bool
	ReplyTone string

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// LLM provider flags
	flag.StringVar(&flags.Provider, "provider", "openai", "LLM provider (bedrock, gemini, openai)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum email body size to send to LLM")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	// Scoring flags
	flag.BoolVar(&flags.UseZeroShot, "zero-shot", false, "Use the zero-shot classifier for scoring")
	flag.StringVar(&flags.VIPSenders, "vip-senders", "", "Comma-separated VIP sender addresses or domains")
	flag.Float64Var(&flags.VIPImportance, "vip-importance", 0.95, "Importance assigned to VIP senders")

	// Reply flags
	flag.BoolVar(&flags.Reply, "reply", false, "Also generate a suggested reply")
	flag.StringVar(&flags.ReplyTone, "tone", "professional", "Reply tone (professional, casual, friendly)")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// No metrics collection for one-shot CLI runs
	if err := container.Provide(func() core.MetricsRecorder { return nil }); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
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

	// Register VIP sender directory
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.SenderDirectory {
		priorityCfg := cfg.GetPriority()
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

	// Register scoring pipeline with no vector index
	if err := container.Provide(core.NewUrgencyExtractor); err != nil {
		return nil, err
	}
	if err := container.Provide(func(classifier core.Classifier, senders core.SenderDirectory, logger *zap.Logger) *core.SignalGatherer {
		return core.NewSignalGatherer(classifier, nil, senders, logger)
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

	// Register priority service without vector storage or metrics
	if err := container.Provide(func(
		scorer *core.PriorityScorer,
		classifier core.Classifier,
		logger *zap.Logger,
	) *core.PriorityService {
		return core.NewPriorityService(
			scorer,
			classifier,
			nil, // No vector index for CLI
			classifier,
			nil, // No metrics for CLI
			logger,
			false, // Result storage disabled
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

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)

	// Set LLM provider
	v.Set("llm.provider", flags.Provider)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
		v.Set("bedrock.max_body_size", flags.MaxBodySize)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
		v.Set("gemini.max_body_size", flags.MaxBodySize)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
		v.Set("openai.max_body_size", flags.MaxBodySize)
	}

	// Set scoring configuration
	v.Set("priority.use_zero_shot", flags.UseZeroShot)
	v.Set("priority.reply_tone", flags.ReplyTone)
	v.Set("priority.vip_importance", flags.VIPImportance)
	if flags.VIPSenders != "" {
		v.Set("priority.vip_senders", splitAndTrim(flags.VIPSenders))
	}

	return config.NewFromViper(v)
}

// splitAndTrim splits a comma-separated flag value into clean entries.
func splitAndTrim(s string) []string {
	parts := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
