package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const sentimentPromptFormat = `You are a sentiment analysis system. Analyze the sentiment of the following email text.
Respond with a JSON object containing:
- label: one of "POSITIVE", "NEGATIVE", "NEUTRAL"
- score: number between 0 and 1 (how confident you are in the label)

Text:
%s

Respond only with the JSON object and nothing else.`

const zeroShotPromptFormat = `You are a zero-shot text classifier. Rank the following candidate labels for this email, most fitting first.
Candidate labels: %s
Respond with a JSON object containing:
- labels: the candidate labels ordered from most to least fitting
- scores: a number between 0 and 1 for each label, same order

Email:
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`

const replyPromptFormat = `Write a %s reply to the following email. Respond with the reply text only, no commentary.

Subject: %s
Body:
%s`

// GeminiClassifier implements the core classifier capabilities using Google Gemini
type GeminiClassifier struct {
	client         *genai.Client
	model          *genai.GenerativeModel
	modelName      string
	embeddingModel string
	maxBodySize    int
	logger         *zap.Logger
	textProcessor  *utils.TextProcessor
}

// NewGeminiClassifier creates a new Gemini classifier
func NewGeminiClassifier(
	apiKey string,
	modelName string,
	embeddingModel string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClassifier, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClassifier{
		client:         client,
		model:          model,
		modelName:      modelName,
		embeddingModel: embeddingModel,
		maxBodySize:    maxBodySize,
		logger:         logger,
		textProcessor:  textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClassifier) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Embed generates an embedding for the given text
func (c *GeminiClassifier) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	resp, err := em.EmbedContent(ctx, genai.Text(c.textProcessor.ProcessText(text, c.maxBodySize)))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content with Gemini: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding response from Gemini")
	}
	return resp.Embedding.Values, nil
}

// ClassifySentiment labels the sentiment of a text
func (c *GeminiClassifier) ClassifySentiment(ctx context.Context, text string) (*core.SentimentResult, error) {
	prompt := fmt.Sprintf(sentimentPromptFormat, c.textProcessor.ProcessText(text, c.maxBodySize))

	responseText, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := extractJSON(responseText, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment response: %w", err)
	}
	if parsed.Label == "" {
		return nil, fmt.Errorf("sentiment response missing label")
	}
	return &core.SentimentResult{Label: parsed.Label, Score: parsed.Score}, nil
}

// ClassifyPriority ranks the candidate priority labels for an email
func (c *GeminiClassifier) ClassifyPriority(ctx context.Context, subject, body string, candidateLabels []string) (*core.ZeroShotResult, error) {
	prompt := fmt.Sprintf(zeroShotPromptFormat,
		strings.Join(candidateLabels, ", "),
		subject,
		c.textProcessor.ProcessText(body, c.maxBodySize))

	responseText, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := extractJSON(responseText, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse zero-shot response: %w", err)
	}
	if len(parsed.Labels) == 0 || len(parsed.Scores) == 0 {
		return nil, fmt.Errorf("zero-shot response missing labels or scores")
	}
	return &core.ZeroShotResult{Labels: parsed.Labels, Scores: parsed.Scores}, nil
}

// GenerateReply drafts a reply to an email in the requested tone
func (c *GeminiClassifier) GenerateReply(ctx context.Context, subject, body, tone string) (string, error) {
	prompt := fmt.Sprintf(replyPromptFormat, tone, subject, c.textProcessor.ProcessText(body, c.maxBodySize))

	responseText, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(responseText), nil
}

// generate runs a single generation and returns the response text
func (c *GeminiClassifier) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

// extractJSON parses a JSON response, tolerating surrounding prose
// by extracting the outermost JSON object.
func extractJSON(responseText string, out any) error {
	if err := json.Unmarshal([]byte(responseText), out); err == nil {
		return nil
	}

	jsonStart := strings.Index(responseText, "{")
	jsonEnd := strings.LastIndex(responseText, "}")
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return fmt.Errorf("no JSON object in response")
	}
	return json.Unmarshal([]byte(responseText[jsonStart:jsonEnd+1]), out)
}
