package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/email-prioritizer/internal/core"
	"go.uber.org/zap"
)

// HeaderNames holds the header names written onto scored emails.
type HeaderNames struct {
	Score    string
	Level    string
	Intent   string
	Keywords string
}

// PostfixFilter implements a Postfix content filter that scores emails
// and re-injects them with priority headers
type PostfixFilter struct {
	service        *core.PriorityService
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	discardSpam    bool
	headers        HeaderNames
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
	urgentPrefix   string
	tagUrgent      bool
	metrics        core.MetricsRecorder
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *core.PriorityService,
	logger *zap.Logger,
	listenAddr string,
	discardSpam bool,
	headers HeaderNames,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	urgentPrefix string,
	tagUrgent bool,
	metrics core.MetricsRecorder,
) *PostfixFilter {
	// If urgent prefix is not set but tagging is enabled, use default prefix
	if urgentPrefix == "" && tagUrgent {
		urgentPrefix = "[URGENT] "
	}

	return &PostfixFilter{
		service:        service,
		logger:         logger,
		listenAddr:     listenAddr,
		discardSpam:    discardSpam,
		headers:        headers,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
		urgentPrefix:   urgentPrefix,
		tagUrgent:      tagUrgent,
		metrics:        metrics,
	}
}

// recordFailure counts a message that could not be scored
func (f *PostfixFilter) recordFailure() {
	if f.metrics != nil {
		f.metrics.RecordEmail(0, false)
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail scores an email and returns the result
// This is mainly used for testing or direct API calls
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.PriorityResult, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

// sendToPostfix sends the processed email back to Postfix on the configured port using go-smtp
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := fmt.Sprintf("%s:%d", f.postfixAddr, f.postfixPort)

	// Get hostname for EHLO
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	// Connect to the server with a timeout
	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			// Continue with other recipients even if one fails
		} else {
			recipientOK = true
		}
	}

	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	_, err = wc.Write(emailData)
	if err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
		// Not returning an error here as the email has already been sent
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
	data       []byte
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
	s.data = nil
}

// AuthPlain handles PLAIN authentication (not needed for our filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data handles the email data
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		s.filter.recordFailure()
		return err
	}

	// Keep a copy of the raw data for later reconstruction
	rawDataCopy := make([]byte, len(rawData))
	copy(rawDataCopy, rawData)

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		s.filter.recordFailure()
		return err
	}

	textContent, err := extractTextFromMessage(msg)
	if err != nil {
		s.filter.logger.Error("Failed to extract text content", zap.Error(err))
		s.filter.recordFailure()
		return err
	}

	email := &core.Email{
		Headers: make(map[string][]string),
		Body:    textContent,
		From:    s.sender,
		To:      s.recipients,
	}

	for key, values := range msg.Header {
		email.Headers[key] = values

		if strings.EqualFold(key, "Subject") && len(values) > 0 {
			email.Subject = values[0]
		}
	}

	// Use the message's own Date header as arrival time when it parses
	if date, err := msg.Header.Date(); err == nil {
		email.ReceivedAt = date
	}

	domain := senderDomain(email.From)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.filter.service.AnalyzeEmail(ctx, email)
	if err != nil {
		s.filter.logger.Error("Failed to analyze email",
			zap.Error(err),
			zap.String("sender", email.From),
			zap.String("sender_domain", domain))
		s.filter.recordFailure()

		// Score unavailable, pass the email through as normal priority
		result = &core.PriorityResult{
			PriorityScore: 50,
			PriorityLevel: core.PriorityNormal,
			Intent:        core.IntentInformation,
		}
	}

	isSpam := result.PriorityLevel == core.PrioritySpam

	if isSpam && s.filter.discardSpam {
		s.filter.logger.Info("Rejecting spam email",
			zap.String("from", email.From),
			zap.String("sender_domain", domain),
			zap.Float64("score", result.PriorityScore),
			zap.String("intent", result.Intent))
		return fmt.Errorf("550 Rejected as spam (score: %.2f)", result.PriorityScore)
	}

	// Prepare the modified email with priority headers
	var modifiedEmail bytes.Buffer

	fmt.Fprintf(&modifiedEmail, "%s: %.2f\r\n", s.filter.headers.Score, result.PriorityScore)
	fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", s.filter.headers.Level, result.PriorityLevel)
	fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", s.filter.headers.Intent, result.Intent)
	if len(result.UrgencyKeywords) > 0 {
		fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", s.filter.headers.Keywords, strings.Join(result.UrgencyKeywords, ", "))
	}

	tagSubject := result.PriorityLevel == core.PriorityUrgent && s.filter.tagUrgent && s.filter.urgentPrefix != ""
	if tagSubject {
		originalSubject := msg.Header.Get("Subject")

		decodedSubject, err := decodeEncodedHeader(originalSubject)
		if err != nil {
			// If decoding fails, use the original subject
			decodedSubject = originalSubject
		}

		if !strings.HasPrefix(decodedSubject, s.filter.urgentPrefix) {
			newSubject := s.filter.urgentPrefix + decodedSubject

			fmt.Fprintf(&modifiedEmail, "Subject: %s\r\n", newSubject)

			// Skip the original subject when writing the other headers
			for key, values := range msg.Header {
				if !strings.EqualFold(key, "Subject") {
					for _, value := range values {
						fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", key, value)
					}
				}
			}
		} else {
			// Subject already has the prefix, write all headers as is
			for key, values := range msg.Header {
				for _, value := range values {
					fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", key, value)
				}
			}
		}
	} else {
		for key, values := range msg.Header {
			for _, value := range values {
				fmt.Fprintf(&modifiedEmail, "%s: %s\r\n", key, value)
			}
		}
	}

	// End of headers
	fmt.Fprintf(&modifiedEmail, "\r\n")

	// Find where the original body starts in the raw data
	bodyStartIndex := bytes.Index(rawDataCopy, []byte("\r\n\r\n"))
	if bodyStartIndex == -1 {
		bodyStartIndex = bytes.Index(rawDataCopy, []byte("\n\n"))
		if bodyStartIndex == -1 {
			// Fallback: if we can't find the body separator, just use the original message body
			bodyBytes, err := io.ReadAll(msg.Body)
			if err != nil {
				s.filter.logger.Error("Failed to read message body", zap.Error(err))
				return err
			}
			modifiedEmail.Write(bodyBytes)
		} else {
			// Write the original body (preserving all MIME parts and attachments)
			modifiedEmail.Write(rawDataCopy[bodyStartIndex+2:])
		}
	} else {
		modifiedEmail.Write(rawDataCopy[bodyStartIndex+4:])
	}

	if s.filter.postfixEnabled {
		if err := s.filter.sendToPostfix(s.sender, s.recipients, modifiedEmail.Bytes()); err != nil {
			s.filter.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", email.From))
			return err
		}
	} else {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", email.From),
		zap.String("sender_domain", domain),
		zap.Float64("score", result.PriorityScore),
		zap.String("level", string(result.PriorityLevel)),
		zap.String("intent", result.Intent))

	return nil
}

// Logout handles SMTP logout (not needed for our filter)
func (s *smtpSession) Logout() error {
	return nil
}
