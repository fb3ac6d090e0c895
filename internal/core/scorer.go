package core

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// WeightTable holds the signal weights for the rule-based blend. The
// weights sum to 1.0 and never change within a scoring call.
type WeightTable struct {
	SenderImportance float64
	UrgencyKeywords  float64
	Intent           float64
	Sentiment        float64
	TimeSensitivity  float64
	SimilarEmails    float64
}

// DefaultWeights returns the standard weight table.
func DefaultWeights() WeightTable {
	return WeightTable{
		SenderImportance: 0.25,
		UrgencyKeywords:  0.20,
		Intent:           0.20,
		Sentiment:        0.15,
		TimeSensitivity:  0.10,
		SimilarEmails:    0.10,
	}
}

// zeroShotLabels are the candidate labels sent to the external classifier.
var zeroShotLabels = []string{"urgent", "high", "normal", "low"}

// zeroShotScores maps a zero-shot label to its fixed priority score.
var zeroShotScores = map[string]float64{
	"urgent": 88,
	"high":   72,
	"normal": 50,
	"low":    28,
}

// PriorityScorer combines urgency, sender, intent, sentiment, timing and
// similarity signals into a 0-100 priority score with a discrete level.
// It holds no mutable state between calls and is safe for concurrent use.
type PriorityScorer struct {
	urgency     *UrgencyExtractor
	signals     *SignalGatherer
	intent      IntentClassifier
	sentiment   SentimentClassifier
	zeroShot    ZeroShotClassifier
	useZeroShot bool
	weights     WeightTable
	logger      *zap.Logger
}

// NewPriorityScorer creates a new priority scorer. sentiment may be nil
// (a neutral label is substituted) and zeroShot may be nil (the rule-based
// path is always used).
func NewPriorityScorer(
	urgency *UrgencyExtractor,
	signals *SignalGatherer,
	intent IntentClassifier,
	sentiment SentimentClassifier,
	zeroShot ZeroShotClassifier,
	useZeroShot bool,
	logger *zap.Logger,
) *PriorityScorer {
	return &PriorityScorer{
		urgency:     urgency,
		signals:     signals,
		intent:      intent,
		sentiment:   sentiment,
		zeroShot:    zeroShot,
		useZeroShot: useZeroShot,
		weights:     DefaultWeights(),
		logger:      logger,
	}
}

// CalculatePriority scores an email. It never returns an error for
// unavailable auxiliary signals; those degrade to neutral defaults.
func (s *PriorityScorer) CalculatePriority(ctx context.Context, subject, body, sender string, receivedAt time.Time) *PriorityResult {
	start := time.Now()

	intent := s.classifyIntent(ctx, subject, body)
	sentiment := s.classifySentiment(ctx, subject+" "+body)

	if s.useZeroShot && s.zeroShot != nil {
		if result := s.computeZeroShot(ctx, subject, body, sender, intent, sentiment, start); result != nil {
			return result
		}
		s.logger.Debug("Zero-shot classifier unavailable, using rule-based scoring",
			zap.String("sender", sender))
	}

	return s.computeRuleBased(ctx, subject, body, sender, receivedAt, intent, sentiment, start)
}

// computeZeroShot delegates scoring to the external zero-shot classifier.
// A nil return means the path failed and the caller should fall back to
// the rule-based computation.
func (s *PriorityScorer) computeZeroShot(ctx context.Context, subject, body, sender, intent string, sentiment *SentimentResult, start time.Time) *PriorityResult {
	classification, err := s.zeroShot.ClassifyPriority(ctx, subject, body, zeroShotLabels)
	if err != nil {
		s.logger.Debug("Zero-shot priority classification failed", zap.Error(err))
		return nil
	}
	if classification == nil || len(classification.Labels) == 0 || len(classification.Scores) == 0 {
		return nil
	}

	topLabel := strings.ToLower(classification.Labels[0])
	score, ok := zeroShotScores[topLabel]
	if !ok {
		score = zeroShotScores["normal"]
	}
	level := ParsePriorityLevel(topLabel)
	if intent == IntentSpam {
		level = PrioritySpam
	}

	keywords := s.urgency.ExtractKeywords(subject, body)
	return &PriorityResult{
		PriorityScore:    round2(score),
		PriorityLevel:    level,
		Intent:           intent,
		Sentiment:        sentiment.Label,
		UrgencyKeywords:  keywords,
		SenderImportance: round2(s.signals.SenderImportance(sender)),
		ProcessingTimeMs: elapsedMs(start),
	}
}

// computeRuleBased runs the deterministic weighted blend. It is the only
// place the rule-based formula lives; the zero-shot path falls back to it
// so the two paths cannot drift.
func (s *PriorityScorer) computeRuleBased(ctx context.Context, subject, body, sender string, receivedAt time.Time, intent string, sentiment *SentimentResult, start time.Time) *PriorityResult {
	urgencyScore, keywords := s.urgency.ScoreUrgency(subject, body)
	senderImportance := s.signals.SenderImportance(sender)
	timeSensitivity := s.signals.TimeSensitivity(receivedAt)
	similarityPrior := s.signals.SimilarityPrior(ctx, subject, body)

	intentWeight := 0.5
	if intent == IntentActionRequired || intent == IntentQuestion {
		intentWeight = 1.0
	}

	score := 100 * (senderImportance*s.weights.SenderImportance +
		urgencyScore*s.weights.UrgencyKeywords +
		intentWeight*s.weights.Intent +
		sentiment.Score*s.weights.Sentiment +
		timeSensitivity*s.weights.TimeSensitivity +
		similarityPrior*s.weights.SimilarEmails)

	text := strings.ToLower(subject + " " + body)
	hasStrongUrgency := s.urgency.MatchesStrongUrgency(text)
	if s.urgency.MatchesLowUrgency(text) {
		score -= 15
	} else if hasStrongUrgency {
		score += 28
	}
	score = clampScore(score)

	level := scoreToLevel(score, intent)
	if hasStrongUrgency && intent != IntentSpam {
		level = PriorityUrgent
		if score < 80 {
			score = 80
		}
	}

	return &PriorityResult{
		PriorityScore:    round2(score),
		PriorityLevel:    level,
		Intent:           intent,
		Sentiment:        sentiment.Label,
		UrgencyKeywords:  keywords,
		SenderImportance: round2(senderImportance),
		ProcessingTimeMs: elapsedMs(start),
	}
}

func (s *PriorityScorer) classifyIntent(ctx context.Context, subject, body string) string {
	if s.intent == nil {
		return IntentInformation
	}
	intent, err := s.intent.ClassifyIntent(ctx, body, subject)
	if err != nil {
		s.logger.Debug("Intent classification failed", zap.Error(err))
		return IntentInformation
	}
	return intent
}

func (s *PriorityScorer) classifySentiment(ctx context.Context, text string) *SentimentResult {
	neutral := &SentimentResult{Label: "NEUTRAL", Score: 0.5}
	if s.sentiment == nil {
		return neutral
	}
	result, err := s.sentiment.ClassifySentiment(ctx, text)
	if err != nil || result == nil {
		if err != nil {
			s.logger.Debug("Sentiment classification failed", zap.Error(err))
		}
		return neutral
	}
	return result
}

// scoreToLevel maps a numeric score to a level. Spam intent overrides the
// score entirely.
func scoreToLevel(score float64, intent string) PriorityLevel {
	if intent == IntentSpam {
		return PrioritySpam
	}
	switch {
	case score >= 80:
		return PriorityUrgent
	case score >= 60:
		return PriorityHigh
	case score >= 40:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func elapsedMs(start time.Time) float64 {
	return round2(float64(time.Since(start).Microseconds()) / 1000)
}
