package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
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

// OpenAIClassifier implements the core classifier capabilities using OpenAI
type OpenAIClassifier struct {
	client         *openai.Client
	modelName      string
	embeddingModel string
	maxTokens      int
	temperature    float32
	topP           float32
	maxBodySize    int
	logger         *zap.Logger
	textProcessor  *utils.TextProcessor
}

// NewOpenAIClassifier creates a new OpenAI classifier
func NewOpenAIClassifier(
	client *openai.Client,
	modelName string,
	embeddingModel string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClassifier {
	return &OpenAIClassifier{
		client:         client,
		modelName:      modelName,
		embeddingModel: embeddingModel,
		maxTokens:      maxTokens,
		temperature:    temperature,
		topP:           topP,
		maxBodySize:    maxBodySize,
		logger:         logger,
		textProcessor:  textProcessor,
	}
}

// Embed generates an embedding for the given text
func (c *OpenAIClassifier) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{c.textProcessor.ProcessText(text, c.maxBodySize)},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding with OpenAI: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response from OpenAI")
	}
	return resp.Data[0].Embedding, nil
}

// ClassifySentiment labels the sentiment of a text
func (c *OpenAIClassifier) ClassifySentiment(ctx context.Context, text string) (*core.SentimentResult, error) {
	prompt := fmt.Sprintf(sentimentPromptFormat, c.textProcessor.ProcessText(text, c.maxBodySize))

	responseText, err := c.complete(ctx, "You are a sentiment analysis system. Respond only with JSON.", prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := unmarshalResponse(responseText, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment response: %w", err)
	}
	if parsed.Label == "" {
		return nil, fmt.Errorf("sentiment response missing label")
	}
	return &core.SentimentResult{Label: parsed.Label, Score: parsed.Score}, nil
}

// ClassifyPriority ranks the candidate priority labels for an email
func (c *OpenAIClassifier) ClassifyPriority(ctx context.Context, subject, body string, candidateLabels []string) (*core.ZeroShotResult, error) {
	prompt := fmt.Sprintf(zeroShotPromptFormat,
		strings.Join(candidateLabels, ", "),
		subject,
		c.textProcessor.ProcessText(body, c.maxBodySize))

	responseText, err := c.complete(ctx, "You are a zero-shot text classifier. Respond only with JSON.", prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := unmarshalResponse(responseText, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse zero-shot response: %w", err)
	}
	if len(parsed.Labels) == 0 || len(parsed.Scores) == 0 {
		return nil, fmt.Errorf("zero-shot response missing labels or scores")
	}
	return &core.ZeroShotResult{Labels: parsed.Labels, Scores: parsed.Scores}, nil
}

// GenerateReply drafts a reply to an email in the requested tone
func (c *OpenAIClassifier) GenerateReply(ctx context.Context, subject, body, tone string) (string, error) {
	prompt := fmt.Sprintf(replyPromptFormat, tone, subject, c.textProcessor.ProcessText(body, c.maxBodySize))

	responseText, err := c.complete(ctx, "You are an email assistant.", prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(responseText), nil
}

// complete runs a single chat completion and returns the response text
func (c *OpenAIClassifier) complete(ctx context.Context, system, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// unmarshalResponse parses a JSON response, tolerating surrounding prose
// by extracting the outermost JSON object.
func unmarshalResponse(responseText string, out any) error {
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
