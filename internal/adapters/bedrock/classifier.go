package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/utils"
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

// BedrockClassifier implements the core classifier capabilities using Amazon Bedrock
type BedrockClassifier struct {
	client           *bedrockruntime.Client
	modelID          string
	embeddingModelID string
	maxTokens        int
	temperature      float32
	topP             float32
	maxBodySize      int
	logger           *zap.Logger
	textProcessor    *utils.TextProcessor
}

// NewBedrockClassifier creates a new Bedrock classifier
func NewBedrockClassifier(
	client *bedrockruntime.Client,
	modelID string,
	embeddingModelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockClassifier {
	return &BedrockClassifier{
		client:           client,
		modelID:          modelID,
		embeddingModelID: embeddingModelID,
		maxTokens:        maxTokens,
		temperature:      temperature,
		topP:             topP,
		maxBodySize:      maxBodySize,
		logger:           logger,
		textProcessor:    textProcessor,
	}
}

// Embed generates an embedding for the given text using a Titan embedding model
func (c *BedrockClassifier) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"inputText": c.textProcessor.ProcessText(text, c.maxBodySize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.embeddingModelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock embedding model: %w", err)
	}

	var embeddingResp struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(resp.Body, &embeddingResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding response: %w", err)
	}
	if len(embeddingResp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response from Bedrock")
	}
	return embeddingResp.Embedding, nil
}

// ClassifySentiment labels the sentiment of a text
func (c *BedrockClassifier) ClassifySentiment(ctx context.Context, text string) (*core.SentimentResult, error) {
	prompt := fmt.Sprintf(sentimentPromptFormat, c.textProcessor.ProcessText(text, c.maxBodySize))

	responseText, err := c.invoke(ctx, prompt)
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
func (c *BedrockClassifier) ClassifyPriority(ctx context.Context, subject, body string, candidateLabels []string) (*core.ZeroShotResult, error) {
	prompt := fmt.Sprintf(zeroShotPromptFormat,
		strings.Join(candidateLabels, ", "),
		subject,
		c.textProcessor.ProcessText(body, c.maxBodySize))

	responseText, err := c.invoke(ctx, prompt)
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
func (c *BedrockClassifier) GenerateReply(ctx context.Context, subject, body, tone string) (string, error) {
	prompt := fmt.Sprintf(replyPromptFormat, tone, subject, c.textProcessor.ProcessText(body, c.maxBodySize))

	responseText, err := c.invoke(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(responseText), nil
}

// invoke calls the configured text model with a prompt and returns the response text
func (c *BedrockClassifier) invoke(ctx context.Context, prompt string) (string, error) {
	var payload []byte
	var err error

	if c.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	} else if c.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil
	}

	if c.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(resp.Body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil
	}

	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(resp.Body, &genericResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
	}
	if genericResp.Output != "" {
		return genericResp.Output, nil
	}
	if genericResp.Text != "" {
		return genericResp.Text, nil
	}
	if genericResp.Response != "" {
		return genericResp.Response, nil
	}
	return string(resp.Body), nil
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

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockClassifier) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClassifier) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}
