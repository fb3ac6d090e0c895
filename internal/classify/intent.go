package classify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/email-prioritizer/internal/core"
)

// IntentRule pairs an intent label with the keywords that vote for it.
type IntentRule struct {
	Intent   string
	Keywords []string
}

// DefaultIntentRules returns the built-in intent keyword rules. Order is
// the tie-break: the earliest rule with the highest vote count wins.
func DefaultIntentRules() []IntentRule {
	return []IntentRule{
		{core.IntentActionRequired, []string{"urgent", "asap", "deadline", "required", "need", "please", "action"}},
		{core.IntentQuestion, []string{"?", "question", "wondering", "ask", "help"}},
		{core.IntentMeeting, []string{"meeting", "call", "schedule", "calendar", "zoom", "teams"}},
		{core.IntentNewsletter, []string{"newsletter", "unsubscribe", "subscribe"}},
		{core.IntentPromotional, []string{"sale", "discount", "offer", "deal", "promo"}},
		{core.IntentSpam, []string{"click here", "limited time", "act now", "winner", "prize"}},
	}
}

// KeywordIntentClassifier labels email intent by counting keyword hits
// per intent. It runs in-process and never fails, so the scorer always
// has an intent signal even with every external service down.
type KeywordIntentClassifier struct {
	rules  []IntentRule
	logger *zap.Logger
}

// NewKeywordIntentClassifier creates a classifier with the default rules.
func NewKeywordIntentClassifier(logger *zap.Logger) *KeywordIntentClassifier {
	return NewKeywordIntentClassifierWithRules(DefaultIntentRules(), logger)
}

// NewKeywordIntentClassifierWithRules creates a classifier with
// caller-supplied rules, mainly for tests.
func NewKeywordIntentClassifierWithRules(rules []IntentRule, logger *zap.Logger) *KeywordIntentClassifier {
	return &KeywordIntentClassifier{
		rules:  rules,
		logger: logger,
	}
}

// ClassifyIntent returns the intent with the most keyword hits, or
// "information" when nothing matches. The error return satisfies the
// core port and is always nil.
func (c *KeywordIntentClassifier) ClassifyIntent(ctx context.Context, text, subject string) (string, error) {
	combined := strings.ToLower(subject + " " + text)

	best := core.IntentInformation
	bestVotes := 0
	for _, rule := range c.rules {
		votes := 0
		for _, keyword := range rule.Keywords {
			if strings.Contains(combined, keyword) {
				votes++
			}
		}
		if votes > bestVotes {
			best = rule.Intent
			bestVotes = votes
		}
	}
	return best, nil
}
