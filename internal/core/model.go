package core

import (
	"time"
)

// PriorityLevel is the discrete priority bucket assigned to an email.
type PriorityLevel string

const (
	PriorityUrgent PriorityLevel = "urgent"
	PriorityHigh   PriorityLevel = "high"
	PriorityNormal PriorityLevel = "normal"
	PriorityLow    PriorityLevel = "low"
	PrioritySpam   PriorityLevel = "spam"
)

// ParsePriorityLevel coerces a label string to a known priority level.
// Unknown labels map to PriorityNormal.
func ParsePriorityLevel(s string) PriorityLevel {
	switch PriorityLevel(s) {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow, PrioritySpam:
		return PriorityLevel(s)
	default:
		return PriorityNormal
	}
}

// Intent labels produced by the intent classifier.
const (
	IntentActionRequired = "action_required"
	IntentQuestion       = "question"
	IntentMeeting        = "meeting"
	IntentNewsletter     = "newsletter"
	IntentPromotional    = "promotional"
	IntentSpam           = "spam"
	IntentInformation    = "information"
)

// Email represents an email message
type Email struct {
	From       string
	To         []string
	Subject    string
	Body       string
	Headers    map[string][]string
	ReceivedAt time.Time
}

// PriorityResult is the outcome of scoring a single email. It is built
// fresh for every call and never mutated afterwards.
type PriorityResult struct {
	PriorityScore    float64
	PriorityLevel    PriorityLevel
	Intent           string
	Sentiment        string
	UrgencyKeywords  []string
	SenderImportance float64
	ProcessingTimeMs float64
}

// SentimentResult is the label/score pair from a sentiment classifier.
type SentimentResult struct {
	Label string
	Score float64
}

// ZeroShotResult is the ranked label list from a zero-shot classifier.
// Labels and Scores are parallel, ordered best-first.
type ZeroShotResult struct {
	Labels []string
	Scores []float64
}

// SimilarEmail is a single nearest-neighbor match from the vector index.
// Metadata carries whatever was stored at upsert time; the scorer only
// looks for a numeric "priority_score" entry.
type SimilarEmail struct {
	ID       string
	Score    float64
	Metadata map[string]any
}
