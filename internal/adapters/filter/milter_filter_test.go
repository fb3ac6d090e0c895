package filter

import (
	"context"
	"net/textproto"
	"testing"

	"github.com/emersion/go-milter"
	"github.com/mikey/email-prioritizer/internal/core"
	"go.uber.org/zap"
)

// newTestService builds a priority service with the rule-based scoring
// path only, no external collaborators.
func newTestService(t *testing.T) *core.PriorityService {
	t.Helper()

	logger := zap.NewNop()
	urgency := core.NewUrgencyExtractor()
	signals := core.NewSignalGatherer(nil, nil, nil, logger)
	scorer := core.NewPriorityScorer(urgency, signals, nil, nil, nil, false, logger)
	return core.NewPriorityService(scorer, nil, nil, nil, nil, logger, false)
}

func testHeaderNames() HeaderNames {
	return HeaderNames{
		Score:    "X-Priority-Score",
		Level:    "X-Priority-Level",
		Intent:   "X-Priority-Intent",
		Keywords: "X-Priority-Keywords",
	}
}

func TestPriorityMilterAccumulatesMessage(t *testing.T) {
	f := NewMilterFilter(newTestService(t), zap.NewNop(), "127.0.0.1:0", false, testHeaderNames(), nil)
	m := &priorityMilter{filter: f}

	// The modifier is unused by the accumulation callbacks
	if resp, err := m.MailFrom("envelope@example.com", nil); err != nil || resp != milter.RespContinue {
		t.Fatalf("MailFrom returned %v, %v", resp, err)
	}
	if resp, err := m.RcptTo("bob@example.com", nil); err != nil || resp != milter.RespContinue {
		t.Fatalf("RcptTo returned %v, %v", resp, err)
	}

	headers := textproto.MIMEHeader{}
	headers.Set("From", "Alice <alice@example.com>")
	headers.Set("Subject", "URGENT: server down")
	if resp, err := m.Headers(headers, nil); err != nil || resp != milter.RespContinue {
		t.Fatalf("Headers returned %v, %v", resp, err)
	}

	if resp, err := m.BodyChunk([]byte("Please respond asap, "), nil); err != nil || resp != milter.RespContinue {
		t.Fatalf("BodyChunk returned %v, %v", resp, err)
	}
	if resp, err := m.BodyChunk([]byte("production is on fire."), nil); err != nil || resp != milter.RespContinue {
		t.Fatalf("BodyChunk returned %v, %v", resp, err)
	}

	email, result, err := m.analyze(context.Background())
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	// The From header wins over the envelope sender
	if email.From != "alice@example.com" {
		t.Errorf("expected From alice@example.com, got %q", email.From)
	}
	if len(email.To) != 1 || email.To[0] != "bob@example.com" {
		t.Errorf("unexpected recipients: %v", email.To)
	}
	if email.Subject != "URGENT: server down" {
		t.Errorf("unexpected subject: %q", email.Subject)
	}
	if email.Body != "Please respond asap, production is on fire." {
		t.Errorf("body chunks not joined: %q", email.Body)
	}

	if result.PriorityScore < 0 || result.PriorityScore > 100 {
		t.Errorf("score out of range: %f", result.PriorityScore)
	}
	if len(result.UrgencyKeywords) == 0 {
		t.Errorf("expected urgency keywords for an urgent message")
	}
}

func TestPriorityMilterHeaders(t *testing.T) {
	f := NewMilterFilter(newTestService(t), zap.NewNop(), "127.0.0.1:0", false, testHeaderNames(), nil)
	m := &priorityMilter{filter: f}

	result := &core.PriorityResult{
		PriorityScore:   87.5,
		PriorityLevel:   core.PriorityUrgent,
		Intent:          core.IntentActionRequired,
		UrgencyKeywords: []string{"urgent", "asap"},
	}

	headers := m.priorityHeaders(result)

	if got := headers["X-Priority-Score"]; got != "87.50" {
		t.Errorf("score header = %q, want 87.50", got)
	}
	if got := headers["X-Priority-Level"]; got != "urgent" {
		t.Errorf("level header = %q, want urgent", got)
	}
	if got := headers["X-Priority-Intent"]; got != core.IntentActionRequired {
		t.Errorf("intent header = %q, want %q", got, core.IntentActionRequired)
	}
	if got := headers["X-Priority-Keywords"]; got != "urgent, asap" {
		t.Errorf("keywords header = %q, want %q", got, "urgent, asap")
	}
}

func TestPriorityMilterOmitsEmptyKeywordsHeader(t *testing.T) {
	f := NewMilterFilter(newTestService(t), zap.NewNop(), "127.0.0.1:0", false, testHeaderNames(), nil)
	m := &priorityMilter{filter: f}

	result := &core.PriorityResult{
		PriorityScore: 50,
		PriorityLevel: core.PriorityNormal,
		Intent:        core.IntentInformation,
	}

	headers := m.priorityHeaders(result)
	if _, ok := headers["X-Priority-Keywords"]; ok {
		t.Errorf("keywords header should be omitted when no keywords matched")
	}
	if len(headers) != 3 {
		t.Errorf("expected 3 headers, got %d: %v", len(headers), headers)
	}
}

func TestPriorityMilterAbortResetsMessageState(t *testing.T) {
	f := NewMilterFilter(newTestService(t), zap.NewNop(), "127.0.0.1:0", false, testHeaderNames(), nil)
	m := &priorityMilter{filter: f}

	m.MailFrom("alice@example.com", nil)
	m.RcptTo("bob@example.com", nil)
	m.Headers(textproto.MIMEHeader{"Subject": {"hello"}}, nil)
	m.BodyChunk([]byte("some text"), nil)

	if err := m.Abort(nil); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}

	if m.from != "" || m.rcpts != nil || m.headers != nil || m.body.Len() != 0 {
		t.Errorf("message state not cleared: from=%q rcpts=%v headers=%v body=%d bytes",
			m.from, m.rcpts, m.headers, m.body.Len())
	}
}

func TestSenderDomain(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"alice@example.com", "example.com"},
		{"no-at-sign", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		if got := senderDomain(tt.from); got != tt.want {
			t.Errorf("senderDomain(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}
