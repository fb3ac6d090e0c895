package classify

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/email-prioritizer/internal/core"
)

func TestClassifyIntent(t *testing.T) {
	classifier := NewKeywordIntentClassifier(zap.NewNop())

	tests := []struct {
		name    string
		subject string
		text    string
		want    string
	}{
		{
			name:    "action required",
			subject: "Deadline approaching",
			text:    "This is urgent, action needed asap please.",
			want:    core.IntentActionRequired,
		},
		{
			name:    "question",
			subject: "Quick question",
			text:    "I was wondering if you could help me understand this?",
			want:    core.IntentQuestion,
		},
		{
			name:    "meeting",
			subject: "Sync",
			text:    "Let's schedule a zoom call, I'll send a calendar invite.",
			want:    core.IntentMeeting,
		},
		{
			name:    "newsletter",
			subject: "Monthly Newsletter",
			text:    "You can unsubscribe at any time.",
			want:    core.IntentNewsletter,
		},
		{
			name:    "promotional",
			subject: "Big sale",
			text:    "50% discount, best deal of the year, use promo code.",
			want:    core.IntentPromotional,
		},
		{
			name:    "spam",
			subject: "You are a winner",
			text:    "Click here to claim your prize, limited time, act now!",
			want:    core.IntentSpam,
		},
		{
			name:    "no matches defaults to information",
			subject: "Minutes",
			text:    "Attached are the notes from yesterday.",
			want:    core.IntentInformation,
		},
		{
			name:    "empty text defaults to information",
			subject: "",
			text:    "",
			want:    core.IntentInformation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifier.ClassifyIntent(context.Background(), tt.text, tt.subject)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ClassifyIntent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyIntentTieBreak(t *testing.T) {
	rules := []IntentRule{
		{"first", []string{"alpha"}},
		{"second", []string{"alpha"}},
	}
	classifier := NewKeywordIntentClassifierWithRules(rules, zap.NewNop())

	got, _ := classifier.ClassifyIntent(context.Background(), "alpha", "")
	if got != "first" {
		t.Errorf("ties should resolve to the earliest rule, got %q", got)
	}
}
