package core

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	noReplyMarkers       = []string{"noreply", "no-reply"}
	institutionalMarkers = []string{"@company.com", "@work.com", "@official"}
	personalDomains      = []string{"@gmail.com", "@yahoo.com", "@outlook.com", "@hotmail.com"}
)

// SignalGatherer computes the auxiliary signals the scorer blends with
// urgency: sender importance, time-of-day sensitivity and the similarity
// prior from previously scored emails. The embedding provider and vector
// index are optional; without them the similarity prior is neutral.
type SignalGatherer struct {
	embedder EmbeddingProvider
	index    VectorIndex
	senders  SenderDirectory
	logger   *zap.Logger
}

// NewSignalGatherer creates a new signal gatherer. embedder, index and
// senders may be nil.
func NewSignalGatherer(embedder EmbeddingProvider, index VectorIndex, senders SenderDirectory, logger *zap.Logger) *SignalGatherer {
	return &SignalGatherer{
		embedder: embedder,
		index:    index,
		senders:  senders,
		logger:   logger,
	}
}

// SenderImportance maps a sender address to an importance value in [0,1].
// A configured sender directory entry wins over the rule table.
func (g *SignalGatherer) SenderImportance(sender string) float64 {
	if g.senders != nil {
		if importance, ok := g.senders.Lookup(sender); ok {
			return importance
		}
	}

	senderLower := strings.ToLower(sender)
	for _, marker := range noReplyMarkers {
		if strings.Contains(senderLower, marker) {
			return 0.3
		}
	}
	for _, marker := range institutionalMarkers {
		if strings.Contains(senderLower, marker) {
			return 0.8
		}
	}
	for _, domain := range personalDomains {
		if strings.Contains(senderLower, domain) {
			return 0.5
		}
	}
	return 0.5
}

// TimeSensitivity scores the hour of day the email arrived: business
// hours score highest, late night lowest.
func (g *SignalGatherer) TimeSensitivity(receivedAt time.Time) float64 {
	hour := receivedAt.Hour()
	switch {
	case hour >= 9 && hour <= 17:
		return 0.8
	case hour >= 8 && hour <= 20:
		return 0.6
	default:
		return 0.4
	}
}

// SimilarityPrior returns the average normalized priority score of the
// nearest previously scored emails. Any failure along the way (no
// embedder, embedding error, index error, no usable matches) yields the
// neutral 0.5 rather than an error: the prior is an auxiliary signal and
// must never sink a scoring call.
func (g *SignalGatherer) SimilarityPrior(ctx context.Context, subject, body string) float64 {
	const neutral = 0.5

	if g.embedder == nil || g.index == nil {
		return neutral
	}

	vector, err := g.embedder.Embed(ctx, subject+" "+body)
	if err != nil {
		g.logger.Debug("Embedding unavailable for similarity prior", zap.Error(err))
		return neutral
	}

	matches, err := g.index.Query(ctx, vector, 3)
	if err != nil {
		g.logger.Debug("Vector index query failed", zap.Error(err))
		return neutral
	}
	if len(matches) == 0 {
		return neutral
	}

	total := 0.0
	count := 0
	for _, match := range matches {
		score, ok := priorityScoreFromMetadata(match.Metadata)
		if !ok {
			continue
		}
		total += score / 100
		count++
	}
	if count == 0 {
		return neutral
	}
	return total / float64(count)
}

func priorityScoreFromMetadata(metadata map[string]any) (float64, bool) {
	raw, ok := metadata["priority_score"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
