// Package event defines the typed representation of Zalo OA webhook
// payloads and the classifier that turns a raw JSON document into one of a
// closed set of event variants.
package event

// Kind discriminates the event variants. Values match the event_name
// strings Zalo sends on the wire, except KindGeneric which covers every
// event_name we do not model explicitly.
type Kind string

const (
	KindText        Kind = "user_send_text"
	KindImage       Kind = "user_send_image"
	KindFile        Kind = "user_send_file"
	KindSticker     Kind = "user_send_sticker"
	KindLocation    Kind = "user_send_location"
	KindFollow      Kind = "follow"
	KindUnfollow    Kind = "unfollow"
	KindSubmitInfo  Kind = "user_submit_info"
	KindClickButton Kind = "user_click_button"
	KindGeneric     Kind = "generic"
)

// User is a Zalo user reference as it appears in sender/recipient/follower
// fields. Only ID is guaranteed.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Message is the message object carried by the user_send_* and
// user_click_button variants.
type Message struct {
	MsgID       string           `json:"msg_id"`
	Text        string           `json:"text,omitempty"`
	Attachments []map[string]any `json:"attachments,omitempty"`
	Timestamp   int64            `json:"timestamp,omitempty"`
}

// Event is the tagged union over all webhook event variants. Kind selects
// the variant; the optional fields below are populated per variant:
//
//	Text/Image/File/Sticker/Location: Message, Sender, Recipient
//	Follow/Unfollow:                  Follower
//	SubmitInfo:                       Info, Sender
//	ClickButton:                      Message, Sender, Recipient
//	Generic:                          Raw (the full original document)
//
// Timestamp is kept as the string Zalo sent; it is usually unix
// milliseconds but is not guaranteed to parse as a number.
type Event struct {
	Kind        Kind             `json:"kind"`
	AppID       string           `json:"app_id"`
	EventName   string           `json:"event_name"`
	Timestamp   string           `json:"timestamp"`
	UserIDByApp string           `json:"user_id_by_app"`
	Message     *Message         `json:"message,omitempty"`
	Sender      *User            `json:"sender,omitempty"`
	Recipient   *User            `json:"recipient,omitempty"`
	Follower    *User            `json:"follower,omitempty"`
	Info        map[string]any   `json:"info,omitempty"`
	Raw         map[string]any   `json:"raw,omitempty"`
}
