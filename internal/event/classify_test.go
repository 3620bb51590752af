package event

import (
	"encoding/json"
	"errors"
	"testing"
)

func decode(t *testing.T, body string) RawPayload {
	t.Helper()
	var raw RawPayload
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatalf("test payload is not valid JSON: %v", err)
	}
	return raw
}

func TestClassify_MessageVariants(t *testing.T) {
	names := map[string]Kind{
		"user_send_text":     KindText,
		"user_send_image":    KindImage,
		"user_send_file":     KindFile,
		"user_send_sticker":  KindSticker,
		"user_send_location": KindLocation,
		"user_click_button":  KindClickButton,
	}

	for name, want := range names {
		t.Run(name, func(t *testing.T) {
			raw := decode(t, `{
				"app_id": "a1",
				"event_name": "`+name+`",
				"timestamp": "1700000000",
				"user_id_by_app": "u1",
				"message": {"msg_id": "m1", "text": "hi"},
				"sender": {"id": "u1", "name": "Alice"},
				"recipient": {"id": "oa1"}
			}`)

			ev, err := Classify(raw)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if ev.Kind != want {
				t.Errorf("Kind = %q, want %q", ev.Kind, want)
			}
			if ev.AppID != "a1" || ev.UserIDByApp != "u1" || ev.Timestamp != "1700000000" {
				t.Errorf("common fields not populated: %+v", ev)
			}
			if ev.Message == nil || ev.Message.MsgID != "m1" || ev.Message.Text != "hi" {
				t.Errorf("Message = %+v, want msg_id m1 text hi", ev.Message)
			}
			if ev.Sender == nil || ev.Sender.ID != "u1" || ev.Sender.Name != "Alice" {
				t.Errorf("Sender = %+v", ev.Sender)
			}
			if ev.Recipient == nil || ev.Recipient.ID != "oa1" {
				t.Errorf("Recipient = %+v", ev.Recipient)
			}
		})
	}
}

func TestClassify_FollowUnfollow(t *testing.T) {
	for _, name := range []string{"follow", "unfollow"} {
		raw := decode(t, `{
			"app_id": "a1",
			"event_name": "`+name+`",
			"timestamp": "1700000001",
			"user_id_by_app": "u2",
			"follower": {"id": "u2", "name": "Bob"}
		}`)

		ev, err := Classify(raw)
		if err != nil {
			t.Fatalf("Classify(%s) error = %v", name, err)
		}
		if ev.Kind != Kind(name) {
			t.Errorf("Kind = %q, want %q", ev.Kind, name)
		}
		if ev.Follower == nil || ev.Follower.ID != "u2" {
			t.Errorf("Follower = %+v", ev.Follower)
		}
	}
}

func TestClassify_SubmitInfo(t *testing.T) {
	raw := decode(t, `{
		"app_id": "a1",
		"event_name": "user_submit_info",
		"timestamp": "1700000002",
		"user_id_by_app": "u3",
		"info": {"phone": "0901234567", "address": "HCMC"},
		"sender": {"id": "u3"}
	}`)

	ev, err := Classify(raw)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if ev.Kind != KindSubmitInfo {
		t.Errorf("Kind = %q, want %q", ev.Kind, KindSubmitInfo)
	}
	if ev.Info["phone"] != "0901234567" {
		t.Errorf("Info = %v", ev.Info)
	}
}

func TestClassify_UnknownNameIsGeneric(t *testing.T) {
	raw := decode(t, `{
		"app_id": "a1",
		"event_name": "oa_send_text",
		"timestamp": "1700000003",
		"user_id_by_app": "u4",
		"extra": {"anything": true}
	}`)

	ev, err := Classify(raw)
	if err != nil {
		t.Fatalf("Classify() error = %v, want nil for unknown event_name", err)
	}
	if ev.Kind != KindGeneric {
		t.Errorf("Kind = %q, want %q", ev.Kind, KindGeneric)
	}
	if ev.EventName != "oa_send_text" {
		t.Errorf("EventName = %q", ev.EventName)
	}
	if _, ok := ev.Raw["extra"]; !ok {
		t.Errorf("Generic event dropped original fields: %v", ev.Raw)
	}
}

func TestClassify_MissingEventName(t *testing.T) {
	raw := decode(t, `{"app_id": "a1", "user_id_by_app": "u1", "message": {"msg_id": "m1"}}`)

	_, err := Classify(raw)
	if !errors.Is(err, ErrMissingEventName) {
		t.Fatalf("Classify() error = %v, want ErrMissingEventName", err)
	}
}

func TestClassify_MalformedVariants(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		variant Kind
	}{
		{
			name:    "text without message",
			body:    `{"event_name": "user_send_text", "sender": {"id": "u1"}}`,
			variant: KindText,
		},
		{
			name:    "text without sender",
			body:    `{"event_name": "user_send_text", "message": {"msg_id": "m1"}}`,
			variant: KindText,
		},
		{
			name:    "message without msg_id",
			body:    `{"event_name": "user_send_image", "message": {"text": "x"}, "sender": {"id": "u1"}}`,
			variant: KindImage,
		},
		{
			name:    "follow without follower",
			body:    `{"event_name": "follow", "user_id_by_app": "u1"}`,
			variant: KindFollow,
		},
		{
			name:    "submit_info without info",
			body:    `{"event_name": "user_submit_info", "sender": {"id": "u1"}}`,
			variant: KindSubmitInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(decode(t, tt.body))
			var malformed *MalformedVariantError
			if !errors.As(err, &malformed) {
				t.Fatalf("Classify() error = %v, want MalformedVariantError", err)
			}
			if malformed.Variant != tt.variant {
				t.Errorf("Variant = %q, want %q", malformed.Variant, tt.variant)
			}
		})
	}
}

func TestClassify_ToleratesNumericFields(t *testing.T) {
	// Zalo sometimes sends timestamp and ids unquoted.
	raw := decode(t, `{
		"app_id": 12345,
		"event_name": "user_send_text",
		"timestamp": 1700000000,
		"user_id_by_app": "u1",
		"message": {"msg_id": "m1", "text": "hi", "timestamp": 1700000000123},
		"sender": {"id": "u1"}
	}`)

	ev, err := Classify(raw)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if ev.AppID != "12345" {
		t.Errorf("AppID = %q, want 12345", ev.AppID)
	}
	if ev.Timestamp != "1700000000" {
		t.Errorf("Timestamp = %q, want 1700000000", ev.Timestamp)
	}
	if ev.Message.Timestamp != 1700000000123 {
		t.Errorf("Message.Timestamp = %d", ev.Message.Timestamp)
	}
}

func TestClassify_AttachmentsPreserved(t *testing.T) {
	raw := decode(t, `{
		"event_name": "user_send_image",
		"user_id_by_app": "u1",
		"message": {
			"msg_id": "m2",
			"attachments": [{"type": "image", "payload": {"url": "https://example.com/a.jpg"}}]
		},
		"sender": {"id": "u1"}
	}`)

	ev, err := Classify(raw)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(ev.Message.Attachments) != 1 {
		t.Fatalf("Attachments = %v, want one entry", ev.Message.Attachments)
	}
	if ev.Message.Attachments[0]["type"] != "image" {
		t.Errorf("attachment type = %v", ev.Message.Attachments[0]["type"])
	}
}
