package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/truongvinhkhuong/zalo-webhook-go/internal/event"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/reply"
)

// UserActionHandler processes follow/unfollow, submitted info forms, and
// button clicks.
type UserActionHandler struct {
	replies reply.Sender
	logger  *slog.Logger
}

// NewUserActionHandler creates a UserActionHandler.
func NewUserActionHandler(replies reply.Sender, logger *slog.Logger) *UserActionHandler {
	return &UserActionHandler{replies: replies, logger: logger}
}

// Handle processes one user-action event.
func (h *UserActionHandler) Handle(ctx context.Context, ev *event.Event) error {
	switch ev.Kind {
	case event.KindFollow:
		return h.handleFollow(ctx, ev)
	case event.KindUnfollow:
		return h.handleUnfollow(ctx, ev)
	case event.KindSubmitInfo:
		return h.handleSubmitInfo(ctx, ev)
	case event.KindClickButton:
		return h.handleButtonClick(ctx, ev)
	}
	return nil
}

func (h *UserActionHandler) handleFollow(ctx context.Context, ev *event.Event) error {
	name := "there"
	if ev.Follower != nil && ev.Follower.Name != "" {
		name = ev.Follower.Name
	}
	h.logger.InfoContext(ctx, "user followed OA",
		slog.String("user_id", ev.UserIDByApp), slog.String("name", name))

	return h.replies.Send(ctx, ev.UserIDByApp,
		"Welcome "+name+"! Thanks for following our Official Account. We'll keep you posted with useful updates. Send /help to see the available commands.")
}

func (h *UserActionHandler) handleUnfollow(ctx context.Context, ev *event.Event) error {
	h.logger.InfoContext(ctx, "user unfollowed OA", slog.String("user_id", ev.UserIDByApp))
	// No reply; the user is gone. A CRM integration would record the churn
	// here.
	return nil
}

func (h *UserActionHandler) handleSubmitInfo(ctx context.Context, ev *event.Event) error {
	h.logger.InfoContext(ctx, "user submitted info",
		slog.String("user_id", ev.UserIDByApp),
		slog.Int("fields", len(ev.Info)),
	)
	return h.replies.Send(ctx, ev.UserIDByApp,
		"Thanks for your submission! We received your information and will process it as soon as possible.")
}

func (h *UserActionHandler) handleButtonClick(ctx context.Context, ev *event.Event) error {
	h.logger.InfoContext(ctx, "user clicked button", slog.String("user_id", ev.UserIDByApp))

	payload := extractButtonPayload(ev.Message)
	if len(payload) == 0 {
		return nil
	}

	action, _ := payload["action"].(string)
	data, _ := payload["data"].(map[string]any)

	h.logger.InfoContext(ctx, "button action",
		slog.String("user_id", ev.UserIDByApp), slog.String("action", action))

	switch action {
	case "get_info":
		return h.replies.Send(ctx, ev.UserIDByApp, infoResponse(data))
	case "make_order":
		product, _ := data["product_id"].(string)
		return h.replies.Send(ctx, ev.UserIDByApp,
			"Order received for product #"+product+". We will contact you shortly to confirm. Need anything else? Send /help.")
	case "contact_support":
		return h.replies.Send(ctx, ev.UserIDByApp,
			"Your support request has been recorded. Our team will get back to you within 24 hours.")
	default:
		h.logger.WarnContext(ctx, "unknown button action", slog.String("action", action))
		return nil
	}
}

func infoResponse(data map[string]any) string {
	switch data["type"] {
	case "contact":
		return "Contact us:\nEmail: info@example.com\nHotline: 1900-xxxx\nWebsite: www.example.com"
	case "services":
		return "Our services:\n- Service A\n- Service B\n- Service C\n24/7 support available."
	}
	return "General information about our services..."
}

// extractButtonPayload digs the button payload out of a click event. Zalo
// encodes it either in an attachment's payload object or as a JSON string
// in the message text.
func extractButtonPayload(msg *event.Message) map[string]any {
	if msg == nil {
		return nil
	}
	for _, att := range msg.Attachments {
		if p, ok := att["payload"].(map[string]any); ok {
			return p
		}
	}
	if msg.Text != "" {
		var p map[string]any
		if err := json.Unmarshal([]byte(msg.Text), &p); err == nil {
			return p
		}
	}
	return nil
}
