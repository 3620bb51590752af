package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/truongvinhkhuong/zalo-webhook-go/internal/event"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/reply"
)

// MessageHandler processes user messages: text (including slash commands),
// images, files, stickers, and locations. Each message gets an
// acknowledgment reply through the Sender.
type MessageHandler struct {
	replies  reply.Sender
	logger   *slog.Logger
	commands map[string]func(ctx context.Context, ev *event.Event, args []string) error
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(replies reply.Sender, logger *slog.Logger) *MessageHandler {
	h := &MessageHandler{replies: replies, logger: logger}
	h.commands = map[string]func(ctx context.Context, ev *event.Event, args []string) error{
		"/start": h.startCommand,
		"/help":  h.helpCommand,
		"/info":  h.infoCommand,
	}
	return h
}

// Handle processes one message event.
func (h *MessageHandler) Handle(ctx context.Context, ev *event.Event) error {
	switch ev.Kind {
	case event.KindText:
		return h.handleText(ctx, ev)
	case event.KindImage:
		n := 0
		if ev.Message != nil {
			n = len(ev.Message.Attachments)
		}
		h.logger.InfoContext(ctx, "image message received",
			slog.String("user_id", ev.UserIDByApp), slog.Int("attachments", n))
		return h.replies.Send(ctx, ev.UserIDByApp,
			"We received your image. Image processing is under development.")
	case event.KindFile:
		h.logger.InfoContext(ctx, "file message received", slog.String("user_id", ev.UserIDByApp))
		return h.replies.Send(ctx, ev.UserIDByApp,
			"We received your file. File processing is under development.")
	case event.KindSticker:
		return h.replies.Send(ctx, ev.UserIDByApp, "Nice sticker!")
	case event.KindLocation:
		h.logger.InfoContext(ctx, "location message received", slog.String("user_id", ev.UserIDByApp))
		return h.replies.Send(ctx, ev.UserIDByApp,
			"We received your location. Location-based features are under development.")
	}
	return nil
}

func (h *MessageHandler) handleText(ctx context.Context, ev *event.Event) error {
	text := ""
	if ev.Message != nil {
		text = ev.Message.Text
	}
	h.logger.InfoContext(ctx, "text message received",
		slog.String("user_id", ev.UserIDByApp),
		slog.String("text", text),
	)

	if strings.HasPrefix(text, "/") {
		return h.handleCommand(ctx, ev, text)
	}

	lower := strings.ToLower(text)
	var response string
	switch {
	case strings.Contains(lower, "hello"):
		response = "Hello! How can I help you?"
	case strings.Contains(lower, "thank"):
		response = "You're welcome! Happy to help."
	default:
		response = fmt.Sprintf("You said: %q. We got your message, thank you!", text)
	}
	return h.replies.Send(ctx, ev.UserIDByApp, response)
}

func (h *MessageHandler) handleCommand(ctx context.Context, ev *event.Event, text string) error {
	parts := strings.Fields(text)
	cmd := strings.ToLower(parts[0])

	if fn, ok := h.commands[cmd]; ok {
		return fn(ctx, ev, parts[1:])
	}

	h.logger.InfoContext(ctx, "unknown command", slog.String("command", cmd))
	return h.replies.Send(ctx, ev.UserIDByApp,
		fmt.Sprintf("Command %q is not supported. Send /help for the command list.", cmd))
}

func (h *MessageHandler) startCommand(ctx context.Context, ev *event.Event, _ []string) error {
	name := "there"
	if ev.Sender != nil && ev.Sender.Name != "" {
		name = ev.Sender.Name
	}
	return h.replies.Send(ctx, ev.UserIDByApp,
		fmt.Sprintf("Hello %s! Welcome to our service. Send /help to see the available commands.", name))
}

func (h *MessageHandler) helpCommand(ctx context.Context, ev *event.Event, _ []string) error {
	return h.replies.Send(ctx, ev.UserIDByApp,
		"Available commands:\n/start - start using the service\n/help - show this help\n/info - system information\n\nYou can also send a regular message and we will respond.")
}

func (h *MessageHandler) infoCommand(ctx context.Context, ev *event.Event, _ []string) error {
	name := "unknown"
	if ev.Sender != nil && ev.Sender.Name != "" {
		name = ev.Sender.Name
	}
	return h.replies.Send(ctx, ev.UserIDByApp, fmt.Sprintf(
		"System information:\nUser ID: %s\nApp ID: %s\nTimestamp: %s\nName: %s\n\nThe system is running normally.",
		ev.UserIDByApp, ev.AppID, ev.Timestamp, name))
}
