package filter

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"time"

	"github.com/emersion/go-milter"
	"github.com/mikey/email-prioritizer/internal/core"
	"go.uber.org/zap"
)

// MilterFilter implements a Milter filter that annotates emails with
// priority headers
type MilterFilter struct {
	service     *core.PriorityService
	logger      *zap.Logger
	listenAddr  string
	server      *milter.Server
	listener    net.Listener
	discardSpam bool
	headers     HeaderNames
	metrics     core.MetricsRecorder
}

// NewMilterFilter creates a new Milter filter
func NewMilterFilter(
	service *core.PriorityService,
	logger *zap.Logger,
	listenAddr string,
	discardSpam bool,
	headers HeaderNames,
	metrics core.MetricsRecorder,
) *MilterFilter {
	return &MilterFilter{
		service:     service,
		logger:      logger,
		listenAddr:  listenAddr,
		discardSpam: discardSpam,
		headers:     headers,
		metrics:     metrics,
	}
}

// Start starts the Milter filter service
func (f *MilterFilter) Start() error {
	f.server = &milter.Server{
		NewMilter: func() milter.Milter {
			return &priorityMilter{filter: f}
		},
		Actions: milter.OptAddHeader,
	}

	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.listenAddr, err)
	}
	f.listener = ln

	f.logger.Info("Milter filter started", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.Serve(ln); err != nil && err != milter.ErrServerClosed {
			f.logger.Error("Milter server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the Milter filter service
func (f *MilterFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail scores an email and returns the result
// This is mainly used for testing or direct API calls
func (f *MilterFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.PriorityResult, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

// priorityMilter handles one milter connection. It accumulates the
// envelope, headers and body chunks, then scores the assembled message
// at end of body.
type priorityMilter struct {
	filter  *MilterFilter
	from    string
	rcpts   []string
	headers textproto.MIMEHeader
	body    bytes.Buffer
}

var _ milter.Milter = (*priorityMilter)(nil)

// Connect implements the milter.Milter interface
func (s *priorityMilter) Connect(host string, family string, port uint16, addr net.IP, m *milter.Modifier) (milter.Response, error) {
	return milter.RespContinue, nil
}

// Helo implements the milter.Milter interface
func (s *priorityMilter) Helo(name string, m *milter.Modifier) (milter.Response, error) {
	return milter.RespContinue, nil
}

// MailFrom implements the milter.Milter interface
func (s *priorityMilter) MailFrom(from string, m *milter.Modifier) (milter.Response, error) {
	s.from = from
	return milter.RespContinue, nil
}

// RcptTo implements the milter.Milter interface
func (s *priorityMilter) RcptTo(rcptTo string, m *milter.Modifier) (milter.Response, error) {
	s.rcpts = append(s.rcpts, rcptTo)
	return milter.RespContinue, nil
}

// Header implements the milter.Milter interface
func (s *priorityMilter) Header(name string, value string, m *milter.Modifier) (milter.Response, error) {
	return milter.RespContinue, nil
}

// Headers implements the milter.Milter interface
func (s *priorityMilter) Headers(h textproto.MIMEHeader, m *milter.Modifier) (milter.Response, error) {
	s.headers = h
	return milter.RespContinue, nil
}

// BodyChunk implements the milter.Milter interface
func (s *priorityMilter) BodyChunk(chunk []byte, m *milter.Modifier) (milter.Response, error) {
	s.body.Write(chunk)
	return milter.RespContinue, nil
}

// Body implements the milter.Milter interface. All message modifications
// happen here.
func (s *priorityMilter) Body(m *milter.Modifier) (milter.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	email, result, err := s.analyze(ctx)
	if err != nil {
		s.filter.logger.Error("Failed to analyze email",
			zap.Error(err),
			zap.String("sender", email.From),
			zap.String("sender_domain", senderDomain(email.From)))
		if s.filter.metrics != nil {
			s.filter.metrics.RecordEmail(0, false)
		}
		return milter.RespAccept, nil
	}

	if result.PriorityLevel == core.PrioritySpam && s.filter.discardSpam {
		s.filter.logger.Info("Rejecting spam email",
			zap.String("from", email.From),
			zap.String("sender_domain", senderDomain(email.From)),
			zap.Float64("score", result.PriorityScore),
			zap.String("intent", result.Intent))
		return milter.RespReject, nil
	}

	for name, value := range s.priorityHeaders(result) {
		if err := m.AddHeader(name, value); err != nil {
			s.filter.logger.Error("Failed to add header",
				zap.Error(err),
				zap.String("header", name))
			return milter.RespTempFail, nil
		}
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", email.From),
		zap.String("sender_domain", senderDomain(email.From)),
		zap.Float64("score", result.PriorityScore),
		zap.String("level", string(result.PriorityLevel)),
		zap.String("intent", result.Intent))

	return milter.RespAccept, nil
}

// Abort implements the milter.Milter interface. Message state is cleared,
// connection state kept.
func (s *priorityMilter) Abort(m *milter.Modifier) error {
	s.from = ""
	s.rcpts = nil
	s.headers = nil
	s.body.Reset()
	return nil
}

// analyze assembles the accumulated message into a core email and scores it
func (s *priorityMilter) analyze(ctx context.Context) (*core.Email, *core.PriorityResult, error) {
	email := &core.Email{
		From:    s.from,
		To:      s.rcpts,
		Body:    s.body.String(),
		Headers: make(map[string][]string),
	}

	for key, values := range s.headers {
		email.Headers[key] = values
	}

	// Prefer the From header over the envelope sender when present
	if from := s.headers.Get("From"); from != "" {
		email.From = extractEmailAddress(from)
	}
	email.Subject = s.headers.Get("Subject")

	result, err := s.filter.service.AnalyzeEmail(ctx, email)
	return email, result, err
}

// priorityHeaders builds the header set added to a scored message
func (s *priorityMilter) priorityHeaders(result *core.PriorityResult) map[string]string {
	headers := map[string]string{
		s.filter.headers.Score:  fmt.Sprintf("%.2f", result.PriorityScore),
		s.filter.headers.Level:  string(result.PriorityLevel),
		s.filter.headers.Intent: result.Intent,
	}
	if len(result.UrgencyKeywords) > 0 {
		headers[s.filter.headers.Keywords] = strings.Join(result.UrgencyKeywords, ", ")
	}
	return headers
}

// senderDomain extracts the domain part of an address for logging
func senderDomain(from string) string {
	if parts := strings.Split(from, "@"); len(parts) == 2 {
		return parts[1]
	}
	return "unknown"
}

// extractEmailAddress extracts the email address from a string
func extractEmailAddress(s string) string {
	// Simple extraction for addresses like "Name <email@example.com>"
	start := strings.LastIndex(s, "<")
	end := strings.LastIndex(s, ">")

	if start >= 0 && end > start {
		return s[start+1 : end]
	}

	// If no angle brackets, return as is
	return s
}
