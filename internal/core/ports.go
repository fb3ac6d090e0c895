package core

import (
	"context"
)

// EmbeddingProvider turns arbitrary text into a fixed-dimension vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is a nearest-neighbor store of previously scored emails.
type VectorIndex interface {
	// Upsert stores or replaces a vector with its metadata
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error

	// Query returns the topK most similar entries, best first
	Query(ctx context.Context, vector []float32, topK int) ([]SimilarEmail, error)

	// Delete removes an entry
	Delete(ctx context.Context, id string) error
}

// SentimentClassifier labels the sentiment of a text.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (*SentimentResult, error)
}

// IntentClassifier labels the intent of an email.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, text string, subject string) (string, error)
}

// ZeroShotClassifier ranks a set of candidate priority labels for an email.
type ZeroShotClassifier interface {
	ClassifyPriority(ctx context.Context, subject string, body string, candidateLabels []string) (*ZeroShotResult, error)
}

// ReplyGenerator drafts a reply to an email in the requested tone.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, subject string, body string, tone string) (string, error)
}

// SenderDirectory resolves a sender address to a known importance value.
// The second return is false when the sender is not on record.
type SenderDirectory interface {
	Lookup(sender string) (float64, bool)
}

// MetricsRecorder receives per-email processing observations.
type MetricsRecorder interface {
	RecordEmail(latencyMs float64, success bool)
	RecordReply()
}

// Classifier aggregates the capabilities an LLM provider adapter offers.
// Every provider implements all four; the scorer only uses the pieces it
// is configured for.
type Classifier interface {
	EmbeddingProvider
	SentimentClassifier
	ZeroShotClassifier
	ReplyGenerator
}
