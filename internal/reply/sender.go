// Package reply is the outbound side of the conversation: handlers compose
// responses and hand them to a Sender.
package reply

import (
	"context"
	"log/slog"
)

// Sender delivers a text reply to a Zalo user.
type Sender interface {
	Send(ctx context.Context, userID, text string) error
}

// LogSender records outbound replies in the log instead of delivering
// them. It stands in for the Zalo Send API integration, which is not
// implemented yet; swapping in a real client is a matter of satisfying
// Sender.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the reply and reports success.
func (s *LogSender) Send(ctx context.Context, userID, text string) error {
	s.logger.InfoContext(ctx, "reply logged, not sent (Send API not integrated)",
		slog.String("user_id", userID),
		slog.String("text", text),
	)
	return nil
}
