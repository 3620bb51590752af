// Package storage defines the persistence collaborator for event subtypes
// worth keeping beyond process lifetime. Today that is image messages
// only; the dispatcher offers them to the store as a best-effort side
// channel.
package storage

import (
	"context"
	"time"
)

// ImageMessage is a persisted user_send_image event.
type ImageMessage struct {
	ID          int64
	AppID       string
	UserIDByApp string
	SenderID    string
	RecipientID string
	EventName   string
	Timestamp   int64
	MsgID       string
	Text        string
	Attachments []map[string]any
	CreatedAt   time.Time
}

// ImageMessageStore persists image message events.
type ImageMessageStore interface {
	SaveImageMessage(ctx context.Context, msg *ImageMessage) error
	ImageMessagesByUser(ctx context.Context, userID string, limit int) ([]*ImageMessage, error)
	Close() error
}
