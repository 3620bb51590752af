package event

import (
	"errors"
	"fmt"
	"strconv"
)

// RawPayload is the decoded but untyped JSON document received on the
// webhook endpoint.
type RawPayload map[string]any

// ErrMissingEventName is returned when the payload has no event_name
// field; without the discriminator there is nothing to classify.
var ErrMissingEventName = errors.New("event: payload has no event_name")

// MalformedVariantError reports a payload whose event_name is recognized
// but whose body is missing a field the variant requires.
type MalformedVariantError struct {
	Variant Kind
	Reason  string
}

func (e *MalformedVariantError) Error() string {
	return fmt.Sprintf("event: malformed %s payload: %s", e.Variant, e.Reason)
}

// variantKinds maps the event_name discriminator to the variant it selects.
// Extend by adding entries; anything absent classifies as Generic.
var variantKinds = map[string]Kind{
	"user_send_text":     KindText,
	"user_send_image":    KindImage,
	"user_send_file":     KindFile,
	"user_send_sticker":  KindSticker,
	"user_send_location": KindLocation,
	"follow":             KindFollow,
	"unfollow":           KindUnfollow,
	"user_submit_info":   KindSubmitInfo,
	"user_click_button":  KindClickButton,
}

// Classify turns a raw payload into a typed Event. Classification is total
// over payloads that carry an event_name: recognized names produce the
// matching variant (or a MalformedVariantError when required fields are
// absent), unrecognized names always produce a Generic event carrying the
// original document verbatim.
func Classify(raw RawPayload) (*Event, error) {
	name := stringField(raw, "event_name")
	if name == "" {
		return nil, ErrMissingEventName
	}

	ev := &Event{
		EventName:   name,
		AppID:       stringField(raw, "app_id"),
		Timestamp:   stringField(raw, "timestamp"),
		UserIDByApp: stringField(raw, "user_id_by_app"),
	}

	kind, ok := variantKinds[name]
	if !ok {
		ev.Kind = KindGeneric
		ev.Raw = map[string]any(raw)
		return ev, nil
	}
	ev.Kind = kind

	switch kind {
	case KindText, KindImage, KindFile, KindSticker, KindLocation, KindClickButton:
		msg, err := requiredMessage(raw, kind)
		if err != nil {
			return nil, err
		}
		sender, err := requiredUser(raw, "sender", kind)
		if err != nil {
			return nil, err
		}
		ev.Message = msg
		ev.Sender = sender
		ev.Recipient = optionalUser(raw, "recipient")

	case KindFollow, KindUnfollow:
		follower, err := requiredUser(raw, "follower", kind)
		if err != nil {
			return nil, err
		}
		ev.Follower = follower

	case KindSubmitInfo:
		info, ok := objectField(raw, "info")
		if !ok {
			return nil, &MalformedVariantError{Variant: kind, Reason: "missing info object"}
		}
		sender, err := requiredUser(raw, "sender", kind)
		if err != nil {
			return nil, err
		}
		ev.Info = info
		ev.Sender = sender
	}

	return ev, nil
}

func requiredMessage(raw RawPayload, kind Kind) (*Message, error) {
	obj, ok := objectField(raw, "message")
	if !ok {
		return nil, &MalformedVariantError{Variant: kind, Reason: "missing message object"}
	}
	msg := &Message{
		MsgID: stringField(obj, "msg_id"),
		Text:  stringField(obj, "text"),
	}
	if msg.MsgID == "" {
		return nil, &MalformedVariantError{Variant: kind, Reason: "message has no msg_id"}
	}
	if ts, ok := obj["timestamp"]; ok {
		msg.Timestamp = int64Of(ts)
	}
	if atts, ok := obj["attachments"].([]any); ok {
		for _, a := range atts {
			if m, ok := a.(map[string]any); ok {
				msg.Attachments = append(msg.Attachments, m)
			}
		}
	}
	return msg, nil
}

func requiredUser(raw RawPayload, field string, kind Kind) (*User, error) {
	u := optionalUser(raw, field)
	if u == nil {
		return nil, &MalformedVariantError{Variant: kind, Reason: "missing " + field + " object"}
	}
	if u.ID == "" {
		return nil, &MalformedVariantError{Variant: kind, Reason: field + " has no id"}
	}
	return u, nil
}

func optionalUser(raw RawPayload, field string) *User {
	obj, ok := objectField(raw, field)
	if !ok {
		return nil
	}
	return &User{
		ID:     stringField(obj, "id"),
		Name:   stringField(obj, "name"),
		Avatar: stringField(obj, "avatar"),
	}
}

func objectField(m map[string]any, key string) (map[string]any, bool) {
	obj, ok := m[key].(map[string]any)
	return obj, ok
}

// stringField reads a string-valued field, tolerating JSON numbers since
// Zalo is inconsistent about quoting ids and timestamps.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func int64Of(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}
