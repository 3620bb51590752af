// Package webhook is the ingestion façade: it validates, classifies, and
// logs inbound Zalo deliveries, hands them to the dispatcher in the
// background, and acknowledges the platform immediately.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/truongvinhkhuong/zalo-webhook-go/internal/auth"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/dispatch"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/event"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/eventlog"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/ratelimit"
)

// Rejections surfaced to the transport layer. Everything else is absorbed:
// Zalo retries on non-2xx, and we never want the platform retrying because
// one of our handlers is unhappy.
var (
	ErrRateLimited      = errors.New("webhook: rate limit exceeded")
	ErrUnauthorized     = errors.New("webhook: invalid signature")
	ErrMalformedRequest = errors.New("webhook: body is not valid JSON")
)

// Dispatcher is the downstream consumer of classified events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *event.Event) dispatch.Outcome
}

// Gateway wires the ingestion pipeline together:
// rate limit -> signature -> parse -> classify -> record -> async dispatch.
type Gateway struct {
	limiter    *ratelimit.Limiter
	verifier   *auth.Verifier
	log        *eventlog.Log
	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewGateway creates a Gateway.
func NewGateway(limiter *ratelimit.Limiter, verifier *auth.Verifier, log *eventlog.Log, dispatcher Dispatcher, logger *slog.Logger) *Gateway {
	return &Gateway{
		limiter:    limiter,
		verifier:   verifier,
		log:        log,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Ingest runs the ingestion sequence for one delivery. A nil return means
// the delivery is acknowledged; the three sentinel errors above are the
// only rejections. Acknowledgment does not wait for dispatch: the event is
// handed to a goroutine that outlives the request.
func (g *Gateway) Ingest(ctx context.Context, body []byte, signature, clientKey string) error {
	now := g.now()

	if !g.limiter.Admit(clientKey, now) {
		g.logger.WarnContext(ctx, "rate limit exceeded", slog.String("client", clientKey))
		return ErrRateLimited
	}

	if !g.verifier.Verify(body, signature) {
		return ErrUnauthorized
	}

	var raw event.RawPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	ev, err := event.Classify(raw)
	if err != nil {
		// Unknown or malformed shapes are acknowledged so Zalo does not
		// retry; the miss is only visible here.
		g.logger.WarnContext(ctx, "unclassifiable event acknowledged without dispatch",
			slog.String("error", err.Error()))
		return nil
	}

	g.log.Record(ev, now)
	g.logger.InfoContext(ctx, "event queued for async handling",
		slog.String("event_name", ev.EventName),
		slog.String("user_id", ev.UserIDByApp),
	)

	// Fire and forget. The dispatch context keeps the request's values
	// (request ID) but not its cancellation: a client disconnect must not
	// abort handling. Outcomes are observable only via logs.
	dispatchCtx := context.WithoutCancel(ctx)
	go g.dispatcher.Dispatch(dispatchCtx, ev)

	return nil
}

// RateInfo returns the admission limit and how much of it clientKey has
// left, for response headers.
func (g *Gateway) RateInfo(clientKey string) (limit, remaining int) {
	return g.limiter.Capacity(), g.limiter.Remaining(clientKey, g.now())
}
