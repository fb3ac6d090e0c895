package filter

import (
	"strings"
	"testing"

	"github.com/mikey/email-prioritizer/internal/metrics"
	"go.uber.org/zap"
)

func newTestPostfixFilter(t *testing.T, collector *metrics.Collector) *PostfixFilter {
	t.Helper()

	return NewPostfixFilter(
		newTestService(t),
		zap.NewNop(),
		"127.0.0.1:0",
		false,
		testHeaderNames(),
		"127.0.0.1",
		10026,
		false, // do not forward back to Postfix in tests
		"",
		false,
		collector,
	)
}

func TestSMTPSessionDataRecordsUnparsableMessage(t *testing.T) {
	collector := metrics.NewCollector()
	session := &smtpSession{
		filter: newTestPostfixFilter(t, collector),
		sender: "alice@example.com",
	}

	err := session.Data(strings.NewReader("this is not a valid rfc822 message"))
	if err == nil {
		t.Fatal("expected an error for an unparsable message")
	}

	snap := collector.Snapshot()
	if snap.Errors != 1 {
		t.Errorf("errors counter = %d, want 1", snap.Errors)
	}
	if snap.EmailsProcessed != 0 {
		t.Errorf("processed counter = %d, want 0", snap.EmailsProcessed)
	}
}

func TestSMTPSessionDataScoresValidMessage(t *testing.T) {
	collector := metrics.NewCollector()
	session := &smtpSession{
		filter:     newTestPostfixFilter(t, collector),
		sender:     "alice@example.com",
		recipients: []string{"bob@example.com"},
	}

	raw := "From: alice@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: weekly report\r\n" +
		"\r\n" +
		"Nothing urgent, just the usual numbers.\r\n"

	if err := session.Data(strings.NewReader(raw)); err != nil {
		t.Fatalf("Data failed on a valid message: %v", err)
	}

	if snap := collector.Snapshot(); snap.Errors != 0 {
		t.Errorf("errors counter = %d, want 0", snap.Errors)
	}
}
