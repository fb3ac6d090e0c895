package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/email-prioritizer/internal/core"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for one-shot scoring
type CliFilter struct {
	service *core.PriorityService
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.PriorityService, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail scores an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.PriorityResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	// Print body preview if verbose
	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n")

	fmt.Printf("=== Analysis ===\n")
	fmt.Printf("Scoring email...\n")
	result, err := f.service.AnalyzeEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Priority score: %.2f\n", result.PriorityScore)
	fmt.Printf("Priority level: %s\n", result.PriorityLevel)
	fmt.Printf("Intent: %s\n", result.Intent)
	fmt.Printf("Sentiment: %s\n", result.Sentiment)
	fmt.Printf("Sender importance: %.2f\n", result.SenderImportance)
	if len(result.UrgencyKeywords) > 0 {
		fmt.Printf("Urgency keywords: %s\n", strings.Join(result.UrgencyKeywords, ", "))
	}
	fmt.Printf("Processing time: %.1f ms\n", result.ProcessingTimeMs)

	return result, nil
}

// GenerateReply drafts a reply for an email and prints it
func (f *CliFilter) GenerateReply(ctx context.Context, email *core.Email, tone string) string {
	reply := f.service.GenerateReply(ctx, email, tone)

	fmt.Printf("\n=== Suggested Reply ===\n")
	fmt.Printf("%s\n", reply)

	return reply
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
