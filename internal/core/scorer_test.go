package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type staticIntent struct {
	intent string
	err    error
}

func (s *staticIntent) ClassifyIntent(ctx context.Context, text, subject string) (string, error) {
	return s.intent, s.err
}

type staticSentiment struct {
	result *SentimentResult
	err    error
}

func (s *staticSentiment) ClassifySentiment(ctx context.Context, text string) (*SentimentResult, error) {
	return s.result, s.err
}

type staticZeroShot struct {
	result *ZeroShotResult
	err    error
	calls  int
}

func (s *staticZeroShot) ClassifyPriority(ctx context.Context, subject, body string, candidateLabels []string) (*ZeroShotResult, error) {
	s.calls++
	return s.result, s.err
}

// businessHours is a fixed receive time inside [9,17] so TimeSensitivity
// contributes 0.8 in every test.
var businessHours = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestScorer(intent IntentClassifier, sentiment SentimentClassifier, zeroShot ZeroShotClassifier, useZeroShot bool) *PriorityScorer {
	logger := zap.NewNop()
	signals := NewSignalGatherer(nil, nil, nil, logger)
	return NewPriorityScorer(NewUrgencyExtractor(), signals, intent, sentiment, zeroShot, useZeroShot, logger)
}

func TestCalculatePriorityUrgentEmail(t *testing.T) {
	scorer := newTestScorer(&staticIntent{intent: IntentActionRequired}, nil, nil, false)

	result := scorer.CalculatePriority(context.Background(),
		"URGENT: Production server down",
		"Immediate action required, the system is critical.",
		"cto@company.com",
		businessHours)

	// sender 0.8*0.25 + urgency 1.0*0.20 + intent 1.0*0.20 +
	// sentiment 0.5*0.15 + time 0.8*0.10 + similar 0.5*0.10 = 0.805
	if result.PriorityScore != 80.5 {
		t.Errorf("PriorityScore = %v, want 80.5", result.PriorityScore)
	}
	if result.PriorityLevel != PriorityUrgent {
		t.Errorf("PriorityLevel = %v, want urgent", result.PriorityLevel)
	}
	want := []string{"urgent", "immediate", "critical", "required"}
	if len(result.UrgencyKeywords) != len(want) {
		t.Fatalf("UrgencyKeywords = %v, want %v", result.UrgencyKeywords, want)
	}
	for i, kw := range want {
		if result.UrgencyKeywords[i] != kw {
			t.Errorf("UrgencyKeywords[%d] = %q, want %q", i, result.UrgencyKeywords[i], kw)
		}
	}
	if result.SenderImportance != 0.8 {
		t.Errorf("SenderImportance = %v, want 0.8", result.SenderImportance)
	}
	if result.ProcessingTimeMs < 0 {
		t.Errorf("ProcessingTimeMs = %v, want >= 0", result.ProcessingTimeMs)
	}
}

func TestCalculatePriorityLowUrgencyNewsletter(t *testing.T) {
	scorer := newTestScorer(&staticIntent{intent: IntentNewsletter}, nil, nil, false)

	result := scorer.CalculatePriority(context.Background(),
		"Weekly Newsletter",
		"unsubscribe anytime, no rush reading this",
		"newsletter@techblog.com",
		businessHours)

	// blend = 47, low-urgency phrase subtracts 15
	if result.PriorityScore != 32 {
		t.Errorf("PriorityScore = %v, want 32", result.PriorityScore)
	}
	if result.PriorityLevel != PriorityLow {
		t.Errorf("PriorityLevel = %v, want low", result.PriorityLevel)
	}
}

func TestCalculatePriorityScoreBounds(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		intent  string
	}{
		{"empty email", "", "", IntentInformation},
		{"everything urgent", "URGENT asap", "critical emergency deadline today now, as soon as possible, top priority, due in 1 day", IntentActionRequired},
		{"everything calm", "nothing", "no rush, take your time, after 60 days", IntentNewsletter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := newTestScorer(&staticIntent{intent: tt.intent}, nil, nil, false)
			result := scorer.CalculatePriority(context.Background(), tt.subject, tt.body, "x@y.example", businessHours)
			if result.PriorityScore < 0 || result.PriorityScore > 100 {
				t.Errorf("PriorityScore = %v, want within [0,100]", result.PriorityScore)
			}
		})
	}
}

func TestCalculatePriorityDeadlineProximity(t *testing.T) {
	scorer := newTestScorer(&staticIntent{intent: IntentInformation}, nil, nil, false)

	near := scorer.CalculatePriority(context.Background(), "Report", "The report is due in 1 day.", "a@b.example", businessHours)
	far := scorer.CalculatePriority(context.Background(), "Report", "The report is due in 60 days.", "a@b.example", businessHours)

	if near.PriorityScore <= far.PriorityScore {
		t.Errorf("near deadline score %v should be strictly higher than far %v",
			near.PriorityScore, far.PriorityScore)
	}
}

func TestCalculatePrioritySpamDominance(t *testing.T) {
	// Rule-based path
	scorer := newTestScorer(&staticIntent{intent: IntentSpam}, nil, nil, false)
	result := scorer.CalculatePriority(context.Background(),
		"URGENT winner, act now",
		"This is very important, claim your prize as soon as possible, due in 1 day",
		"cto@company.com",
		businessHours)
	if result.PriorityLevel != PrioritySpam {
		t.Errorf("rule-based PriorityLevel = %v, want spam", result.PriorityLevel)
	}

	// Zero-shot path
	zeroShot := &staticZeroShot{result: &ZeroShotResult{Labels: []string{"urgent"}, Scores: []float64{0.93}}}
	scorer = newTestScorer(&staticIntent{intent: IntentSpam}, nil, zeroShot, true)
	result = scorer.CalculatePriority(context.Background(), "Free money", "click here", "spam@spam.example", businessHours)
	if result.PriorityLevel != PrioritySpam {
		t.Errorf("zero-shot PriorityLevel = %v, want spam", result.PriorityLevel)
	}
}

func TestCalculatePriorityStrongUrgencyFloor(t *testing.T) {
	scorer := newTestScorer(&staticIntent{intent: IntentInformation}, nil, nil, false)

	result := scorer.CalculatePriority(context.Background(),
		"Quick favor",
		"Could you look at this as soon as possible? It is very important.",
		"peer@smallbiz.example",
		businessHours)

	if result.PriorityLevel != PriorityUrgent {
		t.Errorf("PriorityLevel = %v, want urgent", result.PriorityLevel)
	}
	if result.PriorityScore < 80 {
		t.Errorf("PriorityScore = %v, want >= 80", result.PriorityScore)
	}
}

func TestCalculatePriorityIdempotent(t *testing.T) {
	scorer := newTestScorer(&staticIntent{intent: IntentQuestion}, &staticSentiment{result: &SentimentResult{Label: "POSITIVE", Score: 0.82}}, nil, false)

	first := scorer.CalculatePriority(context.Background(), "Question about invoice", "Could you check invoice 42? Deadline is in 3 days.", "client@gmail.com", businessHours)
	second := scorer.CalculatePriority(context.Background(), "Question about invoice", "Could you check invoice 42? Deadline is in 3 days.", "client@gmail.com", businessHours)

	if first.PriorityScore != second.PriorityScore {
		t.Errorf("scores differ across identical calls: %v vs %v", first.PriorityScore, second.PriorityScore)
	}
	if first.PriorityLevel != second.PriorityLevel {
		t.Errorf("levels differ across identical calls: %v vs %v", first.PriorityLevel, second.PriorityLevel)
	}
}

func TestCalculatePriorityZeroShotPath(t *testing.T) {
	tests := []struct {
		name      string
		result    *ZeroShotResult
		err       error
		wantScore float64
		wantLevel PriorityLevel
	}{
		{
			name:      "urgent label",
			result:    &ZeroShotResult{Labels: []string{"urgent", "high"}, Scores: []float64{0.91, 0.05}},
			wantScore: 88,
			wantLevel: PriorityUrgent,
		},
		{
			name:      "high label",
			result:    &ZeroShotResult{Labels: []string{"high"}, Scores: []float64{0.77}},
			wantScore: 72,
			wantLevel: PriorityHigh,
		},
		{
			name:      "low label",
			result:    &ZeroShotResult{Labels: []string{"low"}, Scores: []float64{0.66}},
			wantScore: 28,
			wantLevel: PriorityLow,
		},
		{
			name:      "unknown label coerced to normal",
			result:    &ZeroShotResult{Labels: []string{"mega-critical"}, Scores: []float64{0.9}},
			wantScore: 50,
			wantLevel: PriorityNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zeroShot := &staticZeroShot{result: tt.result, err: tt.err}
			scorer := newTestScorer(&staticIntent{intent: IntentInformation}, nil, zeroShot, true)
			result := scorer.CalculatePriority(context.Background(), "Subject", "Body text", "a@b.example", businessHours)
			if result.PriorityScore != tt.wantScore {
				t.Errorf("PriorityScore = %v, want %v", result.PriorityScore, tt.wantScore)
			}
			if result.PriorityLevel != tt.wantLevel {
				t.Errorf("PriorityLevel = %v, want %v", result.PriorityLevel, tt.wantLevel)
			}
		})
	}
}

func TestCalculatePriorityZeroShotFallback(t *testing.T) {
	tests := []struct {
		name     string
		zeroShot *staticZeroShot
	}{
		{"classifier error", &staticZeroShot{err: errors.New("endpoint unreachable")}},
		{"nil result", &staticZeroShot{}},
		{"empty labels", &staticZeroShot{result: &ZeroShotResult{Scores: []float64{0.5}}}},
		{"empty scores", &staticZeroShot{result: &ZeroShotResult{Labels: []string{"high"}}}},
	}

	intent := &staticIntent{intent: IntentQuestion}
	ruleOnly := newTestScorer(intent, nil, nil, false)
	want := ruleOnly.CalculatePriority(context.Background(), "Question", "Is the deadline in 3 days?", "a@b.example", businessHours)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := newTestScorer(intent, nil, tt.zeroShot, true)
			got := scorer.CalculatePriority(context.Background(), "Question", "Is the deadline in 3 days?", "a@b.example", businessHours)

			if tt.zeroShot.calls != 1 {
				t.Errorf("zero-shot classifier called %d times, want 1", tt.zeroShot.calls)
			}
			if got.PriorityScore != want.PriorityScore {
				t.Errorf("fallback PriorityScore = %v, want rule-based %v", got.PriorityScore, want.PriorityScore)
			}
			if got.PriorityLevel != want.PriorityLevel {
				t.Errorf("fallback PriorityLevel = %v, want rule-based %v", got.PriorityLevel, want.PriorityLevel)
			}
		})
	}
}

func TestScoreToLevel(t *testing.T) {
	tests := []struct {
		score  float64
		intent string
		want   PriorityLevel
	}{
		{95, IntentInformation, PriorityUrgent},
		{80, IntentInformation, PriorityUrgent},
		{79.99, IntentInformation, PriorityHigh},
		{60, IntentInformation, PriorityHigh},
		{59.99, IntentInformation, PriorityNormal},
		{40, IntentInformation, PriorityNormal},
		{39.99, IntentInformation, PriorityLow},
		{0, IntentInformation, PriorityLow},
		{95, IntentSpam, PrioritySpam},
		{0, IntentSpam, PrioritySpam},
	}

	for _, tt := range tests {
		if got := scoreToLevel(tt.score, tt.intent); got != tt.want {
			t.Errorf("scoreToLevel(%v, %q) = %v, want %v", tt.score, tt.intent, got, tt.want)
		}
	}
}

func TestFallbackReply(t *testing.T) {
	reply := FallbackReply("Invoice 42", "casual")
	if reply != "Thanks for reaching out! I'll get back to you soon regarding: Invoice 42" {
		t.Errorf("unexpected casual reply: %q", reply)
	}

	reply = FallbackReply("Invoice 42", "sarcastic")
	if reply != "Thank you for your email. I'll get back to you soon regarding: Invoice 42" {
		t.Errorf("unknown tone should fall back to professional, got %q", reply)
	}
}
