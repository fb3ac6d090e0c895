package config

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey         string
	ModelName      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	MaxBodySize    int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region           string
	ModelID          string
	EmbeddingModelID string
	MaxTokens        int
	Temperature      float32
	TopP             float32
	MaxBodySize      int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey         string
	ModelName      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	MaxBodySize    int
}

// PriorityConfig represents the scoring configuration
type PriorityConfig struct {
	UseZeroShot   bool
	StoreResults  bool
	ReplyTone     string
	VIPSenders    []string
	VIPImportance float64
}

// VectorConfig represents the vector index configuration
type VectorConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:         c.GetString("openai.api_key"),
		ModelName:      c.GetString("openai.model_name"),
		EmbeddingModel: c.GetString("openai.embedding_model"),
		MaxTokens:      c.GetInt("openai.max_tokens"),
		Temperature:    float32(c.GetFloat64("openai.temperature")),
		TopP:           float32(c.GetFloat64("openai.top_p")),
		MaxBodySize:    c.GetInt("openai.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:           c.GetString("bedrock.region"),
		ModelID:          c.GetString("bedrock.model_id"),
		EmbeddingModelID: c.GetString("bedrock.embedding_model_id"),
		MaxTokens:        c.GetInt("bedrock.max_tokens"),
		Temperature:      float32(c.GetFloat64("bedrock.temperature")),
		TopP:             float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize:      c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:         c.GetString("gemini.api_key"),
		ModelName:      c.GetString("gemini.model_name"),
		EmbeddingModel: c.GetString("gemini.embedding_model"),
		MaxTokens:      c.GetInt("gemini.max_tokens"),
		Temperature:    float32(c.GetFloat64("gemini.temperature")),
		TopP:           float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize:    c.GetInt("gemini.max_body_size"),
	}
}

// GetPriority returns the scoring configuration
func (c *Config) GetPriority() PriorityConfig {
	return PriorityConfig{
		UseZeroShot:   c.GetBool("priority.use_zero_shot"),
		StoreResults:  c.GetBool("priority.store_results"),
		ReplyTone:     c.GetString("priority.reply_tone"),
		VIPSenders:    c.GetStringSlice("priority.vip_senders"),
		VIPImportance: c.GetFloat64("priority.vip_importance"),
	}
}

// GetVector returns the vector index configuration
func (c *Config) GetVector() VectorConfig {
	return VectorConfig{
		Type:       c.GetString("vector.type"),
		SQLitePath: c.GetString("vector.sqlite_path"),
		MySQLDSN:   c.GetString("vector.mysql_dsn"),
	}
}
