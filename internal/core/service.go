package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
)

// PriorityService is the core service for email prioritization. It scores
// emails, records metrics and feeds scored emails back into the vector
// index so later emails gain a similarity prior.
type PriorityService struct {
	scorer       *PriorityScorer
	embedder     EmbeddingProvider
	index        VectorIndex
	replies      ReplyGenerator
	metrics      MetricsRecorder
	logger       *zap.Logger
	storeResults bool
}

// NewPriorityService creates a new priority service. embedder, index,
// replies and metrics may each be nil.
func NewPriorityService(
	scorer *PriorityScorer,
	embedder EmbeddingProvider,
	index VectorIndex,
	replies ReplyGenerator,
	metrics MetricsRecorder,
	logger *zap.Logger,
	storeResults bool,
) *PriorityService {
	return &PriorityService{
		scorer:       scorer,
		embedder:     embedder,
		index:        index,
		replies:      replies,
		metrics:      metrics,
		logger:       logger,
		storeResults: storeResults,
	}
}

// AnalyzeEmail scores an email and returns the result. Auxiliary signal
// failures never surface as errors; the result always carries a score.
func (s *PriorityService) AnalyzeEmail(ctx context.Context, email *Email) (*PriorityResult, error) {
	receivedAt := email.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	result := s.scorer.CalculatePriority(ctx, email.Subject, email.Body, email.From, receivedAt)

	if s.metrics != nil {
		s.metrics.RecordEmail(result.ProcessingTimeMs, true)
	}

	if s.storeResults {
		s.storeResult(ctx, email, result)
	}

	s.logger.Info("Scored email",
		zap.String("sender", email.From),
		zap.Float64("score", result.PriorityScore),
		zap.String("level", string(result.PriorityLevel)),
		zap.String("intent", result.Intent),
		zap.Float64("processing_ms", result.ProcessingTimeMs))

	return result, nil
}

// GenerateReply drafts a reply for an email in the requested tone. A
// failed or missing generator falls back to a template.
func (s *PriorityService) GenerateReply(ctx context.Context, email *Email, tone string) string {
	if tone == "" {
		tone = "professional"
	}

	if s.metrics != nil {
		s.metrics.RecordReply()
	}

	if s.replies == nil {
		return FallbackReply(email.Subject, tone)
	}
	reply, err := s.replies.GenerateReply(ctx, email.Subject, email.Body, tone)
	if err != nil || reply == "" {
		if err != nil {
			s.logger.Warn("Reply generation failed, using template", zap.Error(err))
		}
		return FallbackReply(email.Subject, tone)
	}
	return reply
}

// storeResult upserts the scored email into the vector index, best effort.
func (s *PriorityService) storeResult(ctx context.Context, email *Email, result *PriorityResult) {
	if s.embedder == nil || s.index == nil {
		return
	}

	vector, err := s.embedder.Embed(ctx, email.Subject+" "+email.Body)
	if err != nil {
		s.logger.Debug("Skipping vector store update", zap.Error(err))
		return
	}

	metadata := map[string]any{
		"priority_score": result.PriorityScore,
		"priority_level": string(result.PriorityLevel),
		"subject":        email.Subject,
		"sender":         email.From,
	}
	if err := s.index.Upsert(ctx, emailID(email), vector, metadata); err != nil {
		s.logger.Warn("Failed to store email vector", zap.Error(err))
	}
}

// emailID derives a stable identifier for an email from its sender,
// subject and arrival time.
func emailID(email *Email) string {
	h := sha256.New()
	h.Write([]byte(email.From))
	h.Write([]byte{0})
	h.Write([]byte(email.Subject))
	h.Write([]byte{0})
	h.Write([]byte(email.ReceivedAt.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
