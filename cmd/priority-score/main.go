package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/mikey/email-prioritizer/internal/adapters/filter"
	"github.com/mikey/email-prioritizer/internal/core"
	"github.com/mikey/email-prioritizer/internal/di"
	"github.com/mikey/email-prioritizer/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run scores a single email read from a file or stdin
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	emailFilter ports.EmailFilter,
	classifier core.Classifier,
) error {
	defer logger.Sync()

	// Read email from file or stdin
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			logger.Error("Failed to open input file", zap.Error(err), zap.String("file", flags.InputFile))
			return err
		}
		defer file.Close()
		emailReader = file
		logger.Debug("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Debug("Reading email from stdin")
	}

	// Parse email
	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Error("Failed to parse email", zap.Error(err))
		return err
	}

	from := msg.Header.Get("From")
	to := msg.Header.Get("To")
	subject := msg.Header.Get("Subject")

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		logger.Error("Failed to read email body", zap.Error(err))
		return err
	}

	email := &core.Email{
		From:    from,
		To:      strings.Split(to, ","),
		Subject: subject,
		Body:    string(bodyBytes),
		Headers: make(map[string][]string),
	}

	for k, v := range msg.Header {
		email.Headers[k] = v
	}

	// Use the message's own Date header as arrival time when it parses
	if date, err := msg.Header.Date(); err == nil {
		email.ReceivedAt = date
	}

	// Bound the run so a stuck LLM call cannot hang the process; the
	// budget covers both scoring and optional reply generation.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := emailFilter.ProcessEmail(ctx, email); err != nil {
		return err
	}

	if flags.Reply {
		if cli, ok := emailFilter.(*filter.CliFilter); ok {
			cli.GenerateReply(ctx, email, flags.ReplyTone)
		}
	}

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM classifier", zap.Error(err))
		}
	}

	return nil
}
