package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/truongvinhkhuong/zalo-webhook-go/internal/event"
)

type fakeSender struct {
	sent []string
	to   []string
}

func (f *fakeSender) Send(ctx context.Context, userID, text string) error {
	f.to = append(f.to, userID)
	f.sent = append(f.sent, text)
	return nil
}

func textEvent(text string) *event.Event {
	return &event.Event{
		Kind:        event.KindText,
		EventName:   "user_send_text",
		UserIDByApp: "u1",
		Message:     &event.Message{MsgID: "m1", Text: text},
		Sender:      &event.User{ID: "u1", Name: "Alice"},
	}
}

func TestMessageHandler_Commands(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"/start", "Hello Alice"},
		{"/help", "Available commands"},
		{"/info", "User ID: u1"},
		{"/unknown", "not supported"},
		{"/HELP", "Available commands"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sender := &fakeSender{}
			h := NewMessageHandler(sender, discardLogger())

			if err := h.Handle(context.Background(), textEvent(tt.command)); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if len(sender.sent) != 1 {
				t.Fatalf("sent %d replies, want 1", len(sender.sent))
			}
			if !strings.Contains(sender.sent[0], tt.want) {
				t.Errorf("reply = %q, want it to contain %q", sender.sent[0], tt.want)
			}
			if sender.to[0] != "u1" {
				t.Errorf("reply went to %q, want u1", sender.to[0])
			}
		})
	}
}

func TestMessageHandler_PlainText(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"hello over there", "Hello!"},
		{"thank you so much", "welcome"},
		{"what time is it", "You said"},
	}

	for _, tt := range tests {
		sender := &fakeSender{}
		h := NewMessageHandler(sender, discardLogger())
		h.Handle(context.Background(), textEvent(tt.text))

		if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], tt.want) {
			t.Errorf("Handle(%q) replies = %v, want one containing %q", tt.text, sender.sent, tt.want)
		}
	}
}

func TestMessageHandler_NonTextKinds(t *testing.T) {
	kinds := []event.Kind{event.KindImage, event.KindFile, event.KindSticker, event.KindLocation}

	for _, kind := range kinds {
		sender := &fakeSender{}
		h := NewMessageHandler(sender, discardLogger())

		ev := textEvent("")
		ev.Kind = kind
		if err := h.Handle(context.Background(), ev); err != nil {
			t.Fatalf("Handle(%s) error = %v", kind, err)
		}
		if len(sender.sent) != 1 {
			t.Errorf("Handle(%s) sent %d replies, want 1", kind, len(sender.sent))
		}
	}
}

func TestUserActionHandler_FollowSendsWelcome(t *testing.T) {
	sender := &fakeSender{}
	h := NewUserActionHandler(sender, discardLogger())

	ev := &event.Event{
		Kind:        event.KindFollow,
		EventName:   "follow",
		UserIDByApp: "u2",
		Follower:    &event.User{ID: "u2", Name: "Bob"},
	}
	if err := h.Handle(context.Background(), ev); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Welcome Bob") {
		t.Errorf("replies = %v, want one welcome for Bob", sender.sent)
	}
}

func TestUserActionHandler_UnfollowIsSilent(t *testing.T) {
	sender := &fakeSender{}
	h := NewUserActionHandler(sender, discardLogger())

	ev := &event.Event{Kind: event.KindUnfollow, EventName: "unfollow", UserIDByApp: "u2",
		Follower: &event.User{ID: "u2"}}
	if err := h.Handle(context.Background(), ev); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("unfollow produced replies: %v", sender.sent)
	}
}

func TestUserActionHandler_SubmitInfoConfirms(t *testing.T) {
	sender := &fakeSender{}
	h := NewUserActionHandler(sender, discardLogger())

	ev := &event.Event{
		Kind:        event.KindSubmitInfo,
		EventName:   "user_submit_info",
		UserIDByApp: "u3",
		Info:        map[string]any{"phone": "0901234567"},
		Sender:      &event.User{ID: "u3"},
	}
	h.Handle(context.Background(), ev)

	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "received your information") {
		t.Errorf("replies = %v, want a confirmation", sender.sent)
	}
}

func TestUserActionHandler_ButtonPayloadFromAttachment(t *testing.T) {
	sender := &fakeSender{}
	h := NewUserActionHandler(sender, discardLogger())

	ev := &event.Event{
		Kind:        event.KindClickButton,
		EventName:   "user_click_button",
		UserIDByApp: "u4",
		Sender:      &event.User{ID: "u4"},
		Message: &event.Message{
			MsgID: "m1",
			Attachments: []map[string]any{
				{"payload": map[string]any{
					"action": "make_order",
					"data":   map[string]any{"product_id": "p42"},
				}},
			},
		},
	}
	h.Handle(context.Background(), ev)

	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "#p42") {
		t.Errorf("replies = %v, want an order confirmation for p42", sender.sent)
	}
}

func TestUserActionHandler_ButtonPayloadFromText(t *testing.T) {
	sender := &fakeSender{}
	h := NewUserActionHandler(sender, discardLogger())

	ev := &event.Event{
		Kind:        event.KindClickButton,
		EventName:   "user_click_button",
		UserIDByApp: "u5",
		Sender:      &event.User{ID: "u5"},
		Message:     &event.Message{MsgID: "m1", Text: `{"action":"get_info","data":{"type":"contact"}}`},
	}
	h.Handle(context.Background(), ev)

	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Hotline") {
		t.Errorf("replies = %v, want contact info", sender.sent)
	}
}

func TestUserActionHandler_UnknownButtonActionIsIgnored(t *testing.T) {
	sender := &fakeSender{}
	h := NewUserActionHandler(sender, discardLogger())

	ev := &event.Event{
		Kind:        event.KindClickButton,
		EventName:   "user_click_button",
		UserIDByApp: "u6",
		Message:     &event.Message{MsgID: "m1", Text: `{"action":"self_destruct"}`},
	}
	if err := h.Handle(context.Background(), ev); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("unknown action produced replies: %v", sender.sent)
	}
}
