// Package mail sends transactional email such as password reset links.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrz1836/postmark"
)

var (
	ErrInvalidMessage = errors.New("invalid mail message")
	ErrSendFailed     = errors.New("failed to send mail")
)

// Message is a single outbound email. At least one body is required.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
	// Tag groups messages for provider analytics, e.g. "password-reset".
	Tag string
}

// Validate checks the required fields.
func (m Message) Validate() error {
	switch {
	case strings.TrimSpace(m.To) == "":
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	case strings.TrimSpace(m.Subject) == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	case m.TextBody == "" && m.HTMLBody == "":
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// postmarkAPI is the subset of *postmark.Client used here.
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender delivers through the Postmark API.
type PostmarkSender struct {
	client postmarkAPI
	from   string
}

// NewPostmarkSender creates a sender authenticated with serverToken.
func NewPostmarkSender(serverToken, from string) (*PostmarkSender, error) {
	if serverToken == "" {
		return nil, errors.New("postmark server token is required")
	}
	if from == "" {
		return nil, errors.New("sender address is required")
	}
	return &PostmarkSender{client: postmark.NewClient(serverToken, ""), from: from}, nil
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       msg.To,
		Subject:  msg.Subject,
		Tag:      msg.Tag,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

// LogSender writes message metadata to the log instead of sending. Bodies
// are logged at debug level only since they may contain one-time tokens.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "mail")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "mail not sent, log backend", "to", msg.To, "subject", msg.Subject, "tag", msg.Tag)
	s.logger.DebugContext(ctx, "mail body", "to", msg.To, "text", msg.TextBody)
	return nil
}

var (
	_ Sender = (*PostmarkSender)(nil)
	_ Sender = (*LogSender)(nil)
)
