// Package dispatch routes classified events to their handler category.
// Dispatch runs in the background after the webhook request has been
// acknowledged, so nothing here may surface an error to the caller:
// failures end up in the log and in the returned Outcome only.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/truongvinhkhuong/zalo-webhook-go/internal/event"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/storage"
)

// Handler processes one event category.
type Handler interface {
	Handle(ctx context.Context, ev *event.Event) error
}

// Outcome is the result of dispatching a single event.
type Outcome struct {
	Handled bool
}

// Dispatcher routes events to the message handler, the user-action
// handler, or a generic fallback. Image events are additionally offered to
// the image store; store failures are logged and never affect the outcome.
type Dispatcher struct {
	messages Handler
	actions  Handler
	images   storage.ImageMessageStore
	logger   *slog.Logger
}

// New creates a Dispatcher. images may be nil when persistence is
// disabled.
func New(messages, actions Handler, images storage.ImageMessageStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		messages: messages,
		actions:  actions,
		images:   images,
		logger:   logger,
	}
}

// Dispatch routes ev and reports whether its handler succeeded. Handler
// errors and panics are absorbed here; they never propagate.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *event.Event) Outcome {
	d.logger.InfoContext(ctx, "handling event",
		slog.String("event_name", ev.EventName),
		slog.String("user_id", ev.UserIDByApp),
	)

	var err error
	switch ev.Kind {
	case event.KindText, event.KindImage, event.KindFile, event.KindSticker, event.KindLocation:
		err = d.safeHandle(ctx, d.messages, ev)
		if ev.Kind == event.KindImage {
			d.persistImage(ctx, ev)
		}

	// ClickButton shares the message payload shape but the platform files
	// it under user actions, so it is routed with follow/unfollow here.
	case event.KindFollow, event.KindUnfollow, event.KindSubmitInfo, event.KindClickButton:
		err = d.safeHandle(ctx, d.actions, ev)

	default:
		d.logger.InfoContext(ctx, "handling generic event", slog.String("event_name", ev.EventName))
	}

	if err != nil {
		d.logger.ErrorContext(ctx, "event handler failed",
			slog.String("event_name", ev.EventName),
			slog.String("error", err.Error()),
		)
		return Outcome{Handled: false}
	}
	return Outcome{Handled: true}
}

// safeHandle invokes h and converts panics into errors so a misbehaving
// handler cannot take down the dispatch goroutine.
func (d *Dispatcher) safeHandle(ctx context.Context, h Handler, ev *event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

// persistImage writes an image event to the store. Best effort: a failed
// write is logged and forgotten.
func (d *Dispatcher) persistImage(ctx context.Context, ev *event.Event) {
	if d.images == nil {
		return
	}

	ts, _ := strconv.ParseInt(ev.Timestamp, 10, 64)
	rec := &storage.ImageMessage{
		AppID:       ev.AppID,
		UserIDByApp: ev.UserIDByApp,
		EventName:   ev.EventName,
		Timestamp:   ts,
	}
	if ev.Sender != nil {
		rec.SenderID = ev.Sender.ID
	}
	if ev.Recipient != nil {
		rec.RecipientID = ev.Recipient.ID
	}
	if ev.Message != nil {
		rec.MsgID = ev.Message.MsgID
		rec.Text = ev.Message.Text
		rec.Attachments = ev.Message.Attachments
	}

	if err := d.images.SaveImageMessage(ctx, rec); err != nil {
		d.logger.ErrorContext(ctx, "failed to persist image event",
			slog.String("user_id", ev.UserIDByApp),
			slog.String("error", err.Error()),
		)
	}
}
