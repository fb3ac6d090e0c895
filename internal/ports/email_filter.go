package ports

import (
	"context"

	"github.com/mikey/email-prioritizer/internal/core"
)

// EmailFilter defines the interface for email prioritization frontends
type EmailFilter interface {
	// ProcessEmail scores an email and returns the result
	ProcessEmail(ctx context.Context, email *core.Email) (*core.PriorityResult, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
