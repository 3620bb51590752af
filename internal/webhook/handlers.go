package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/truongvinhkhuong/zalo-webhook-go/internal/auth"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/event"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/eventlog"
	"github.com/truongvinhkhuong/zalo-webhook-go/internal/server"
)

// maxBodyBytes caps webhook bodies at 10MB; Zalo payloads are far smaller.
const maxBodyBytes = 10 << 20

// defaultRecentLimit is how many entries /events returns when no limit is
// given.
const defaultRecentLimit = 10

// Handlers exposes the gateway over HTTP.
type Handlers struct {
	gateway     *Gateway
	log         *eventlog.Log
	verifyToken string
	startedAt   time.Time
	logger      *slog.Logger
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(gateway *Gateway, log *eventlog.Log, verifyToken string, logger *slog.Logger) *Handlers {
	return &Handlers{
		gateway:     gateway,
		log:         log,
		verifyToken: verifyToken,
		startedAt:   time.Now(),
		logger:      logger,
	}
}

// Mount registers all routes on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Get("/webhook", h.VerifyWebhook)
	r.Post("/webhook", h.ReceiveEvent)
	r.Get("/events", h.RecentEvents)
	r.Get("/stats", h.Statistics)
	r.Get("/health", h.Health)
}

// VerifyWebhook answers the platform's URL verification probe: echo the
// challenge when the supplied verify_token matches configuration.
func (h *Handlers) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("challenge")
	token := r.URL.Query().Get("verify_token")

	if h.verifyToken == "" {
		h.logger.Warn("verify token not configured, skipping webhook verification")
		w.Write([]byte(challenge))
		return
	}
	if token == "" {
		h.logger.Error("webhook verification failed: no token provided")
		http.Error(w, "No verification token provided", http.StatusForbidden)
		return
	}
	if token != h.verifyToken {
		h.logger.Error("webhook verification failed", slog.String("token", token))
		http.Error(w, "Verification failed", http.StatusForbidden)
		return
	}

	h.logger.Info("webhook verification successful")
	w.Write([]byte(challenge))
}

// ReceiveEvent is the main ingestion endpoint.
func (h *Handlers) ReceiveEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request too large"})
		return
	}

	clientKey := clientAddr(r)
	err = h.gateway.Ingest(r.Context(), body, auth.ExtractSignature(r), clientKey)

	limit, remaining := h.gateway.RateInfo(clientKey)
	server.SetRateLimits(r.Context(), limit, remaining)

	switch {
	case errors.Is(err, ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
	case errors.Is(err, ErrUnauthorized):
		server.AddError(r.Context(), err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
	case errors.Is(err, ErrMalformedRequest):
		server.AddError(r.Context(), err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}

// eventView is the /events wire shape: an entry plus a human-readable
// rendering of the platform timestamp where it parses.
type eventView struct {
	ReceivedAt        string       `json:"received_at"`
	EventName         string       `json:"event_name"`
	UserID            string       `json:"user_id"`
	AppID             string       `json:"app_id"`
	TimestampReadable string       `json:"timestamp_readable,omitempty"`
	Data              *event.Event `json:"data"`
}

// RecentEvents returns the tail of the in-memory event log, oldest first.
func (h *Handlers) RecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	entries := h.log.Recent(limit)
	views := make([]eventView, 0, len(entries))
	for _, e := range entries {
		v := eventView{
			ReceivedAt: e.ReceivedAt.Format(time.RFC3339),
			EventName:  e.EventName,
			UserID:     e.UserID,
			AppID:      e.AppID,
			Data:       e.Event,
		}
		if ts, err := strconv.ParseInt(e.Event.Timestamp, 10, 64); err == nil && ts > 0 {
			v.TimestampReadable = time.Unix(ts, 0).UTC().Format(time.RFC3339)
		}
		views = append(views, v)
	}

	writeJSON(w, http.StatusOK, views)
}

// Statistics reports per-event-name counters and process uptime.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	type statView struct {
		Count        int    `json:"count"`
		LastReceived string `json:"last_received"`
	}

	stats := h.log.Statistics()
	types := make(map[string]statView, len(stats))
	for name, s := range stats {
		types[name] = statView{
			Count:        s.Count,
			LastReceived: s.LastReceived.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_events": h.log.Len(),
		"event_types":  types,
		"started_at":   h.startedAt.Format(time.RFC3339),
		"uptime":       time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Health is a liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "zalo-webhook-gateway",
	})
}

// clientAddr keys the rate limiter on the caller's host, falling back to
// the raw RemoteAddr when it has no port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
