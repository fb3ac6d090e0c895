package core

import (
	"reflect"
	"testing"
)

func TestScoreUrgencyKeywords(t *testing.T) {
	extractor := NewUrgencyExtractor()

	tests := []struct {
		name         string
		subject      string
		body         string
		wantMin      float64
		wantMax      float64
		wantKeywords []string
	}{
		{
			name:         "empty text",
			subject:      "",
			body:         "",
			wantMin:      0,
			wantMax:      0,
			wantKeywords: []string{},
		},
		{
			name:         "single mid-weight keyword",
			subject:      "Project deadline",
			body:         "The deadline was moved.",
			wantMin:      0.3,
			wantMax:      0.5,
			wantKeywords: []string{"deadline"},
		},
		{
			name:         "stacked keywords saturate",
			subject:      "URGENT: server down",
			body:         "Immediate action required, this is critical, an emergency even. Act now, asap.",
			wantMin:      1.0,
			wantMax:      1.0,
			wantKeywords: []string{"urgent", "asap", "immediate", "critical", "emergency", "now", "required"},
		},
		{
			name:         "low urgency phrase short-circuits",
			subject:      "Urgent... not really",
			body:         "This is urgent paperwork but no rush, handle it next month.",
			wantMin:      0.2,
			wantMax:      0.2,
			wantKeywords: []string{"urgent"},
		},
		{
			name:         "strong phrase floors near max",
			subject:      "Quick one",
			body:         "This is very important, please have a look.",
			wantMin:      0.95,
			wantMax:      1.0,
			wantKeywords: []string{"important"},
		},
		{
			name:         "negated important excluded from scoring but listed",
			subject:      "FYI",
			body:         "This is not important, just keeping you posted.",
			wantMin:      0.2,
			wantMax:      0.2,
			wantKeywords: []string{"important"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urgency, keywords := extractor.ScoreUrgency(tt.subject, tt.body)
			if urgency < tt.wantMin || urgency > tt.wantMax {
				t.Errorf("urgency = %v, want in [%v, %v]", urgency, tt.wantMin, tt.wantMax)
			}
			if !reflect.DeepEqual(keywords, tt.wantKeywords) {
				t.Errorf("keywords = %v, want %v", keywords, tt.wantKeywords)
			}
		})
	}
}

func TestScoreUrgencyTemporal(t *testing.T) {
	extractor := NewUrgencyExtractor()

	tests := []struct {
		name    string
		body    string
		wantMin float64
		wantMax float64
	}{
		{
			name:    "due in 1 day",
			body:    "The report is due in 1 day.",
			wantMin: 0.9,
			wantMax: 1.0,
		},
		{
			name:    "due in 2 days",
			body:    "The report is due in 2 days.",
			wantMin: 0.85,
			wantMax: 0.85,
		},
		{
			name:    "3 days remaining",
			body:    "Only 3 days remaining for the review.",
			wantMin: 0.75,
			wantMax: 0.75,
		},
		{
			name:    "in 7 days",
			body:    "The window closes in 7 days.",
			wantMin: 0.6,
			wantMax: 0.6,
		},
		{
			name:    "far future dampened",
			body:    "The report is due in 60 days.",
			wantMin: 0,
			wantMax: 0.1,
		},
		{
			name:    "nearest deadline wins",
			body:    "First milestone in 2 days, final delivery in 30 days.",
			wantMin: 0.85,
			wantMax: 0.85,
		},
		{
			name:    "tomorrow floors high",
			body:    "Please take care of this tomorrow.",
			wantMin: 0.9,
			wantMax: 0.9,
		},
		{
			name:    "hour count within a day",
			body:    "The call starts in 3 hours.",
			wantMin: 0.9,
			wantMax: 0.9,
		},
		{
			name:    "after N days forces dampening",
			body:    "We only need this after 30 days, the deadline is soft.",
			wantMin: 0,
			wantMax: 0.45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urgency, _ := extractor.ScoreUrgency("", tt.body)
			if urgency < tt.wantMin || urgency > tt.wantMax {
				t.Errorf("urgency = %v, want in [%v, %v]", urgency, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestScoreUrgencyNearVsFarDeadline(t *testing.T) {
	extractor := NewUrgencyExtractor()

	near, _ := extractor.ScoreUrgency("", "The report is due in 1 day.")
	far, _ := extractor.ScoreUrgency("", "The report is due in 60 days.")

	if near < 0.9 {
		t.Errorf("near deadline urgency = %v, want >= 0.9", near)
	}
	if near <= far {
		t.Errorf("near deadline urgency %v should be strictly higher than far %v", near, far)
	}
}

func TestExtractKeywordsTableOrder(t *testing.T) {
	extractor := NewUrgencyExtractor()

	// "now" appears after "critical" in the text but before it in the
	// table order of the output
	keywords := extractor.ExtractKeywords("Status", "critical issue happening now")
	want := []string{"critical", "now"}
	if !reflect.DeepEqual(keywords, want) {
		t.Errorf("keywords = %v, want %v", keywords, want)
	}
}

func TestCustomTables(t *testing.T) {
	extractor := NewUrgencyExtractorWithTables(
		[]UrgencyKeyword{{"blocker", 10}},
		[]string{"backlog it"},
		[]string{"drop everything"},
	)

	urgency, keywords := extractor.ScoreUrgency("", "This is a blocker.")
	if urgency != 0.5 {
		t.Errorf("urgency = %v, want 0.5 (10 / (10*2))", urgency)
	}
	if !reflect.DeepEqual(keywords, []string{"blocker"}) {
		t.Errorf("keywords = %v, want [blocker]", keywords)
	}

	urgency, _ = extractor.ScoreUrgency("", "Just backlog it, drop everything can wait.")
	if urgency != 0.2 {
		t.Errorf("low phrase should win over strong phrase, got %v", urgency)
	}
}
