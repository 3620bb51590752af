package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"
)

// rateLimitContextKey is the context key for rate limit info
type rateLimitContextKey struct{}

// RateLimitInfo carries the admission limit state the webhook handler
// observed, for inclusion in response headers. It is installed into the
// request context by RateLimitHeaderMiddleware and mutated in place by
// SetRateLimits, so values set late in the handler still reach the writer.
type RateLimitInfo struct {
	mu        sync.Mutex
	set       bool
	limit     int
	remaining int
}

// SetRateLimits records the admission state for the current request.
// No-op if the middleware isn't present.
func SetRateLimits(ctx context.Context, limit, remaining int) {
	rl, ok := ctx.Value(rateLimitContextKey{}).(*RateLimitInfo)
	if !ok {
		return
	}
	rl.mu.Lock()
	rl.set = true
	rl.limit = limit
	rl.remaining = remaining
	rl.mu.Unlock()
}

// RateLimitHeaderMiddleware writes X-RateLimit-* headers on responses for
// which the handler recorded admission state.
func RateLimitHeaderMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &RateLimitInfo{}
		ctx := context.WithValue(r.Context(), rateLimitContextKey{}, info)
		wrapped := &rateLimitResponseWriter{ResponseWriter: w, info: info}
		next.ServeHTTP(wrapped, r.WithContext(ctx))
	})
}

// rateLimitResponseWriter wraps ResponseWriter to write rate limit headers.
type rateLimitResponseWriter struct {
	http.ResponseWriter
	info         *RateLimitInfo
	wroteHeaders bool
}

func (rw *rateLimitResponseWriter) WriteHeader(code int) {
	if !rw.wroteHeaders {
		rw.writeRateLimitHeaders()
		rw.wroteHeaders = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *rateLimitResponseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeaders {
		rw.writeRateLimitHeaders()
		rw.wroteHeaders = true
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *rateLimitResponseWriter) writeRateLimitHeaders() {
	rw.info.mu.Lock()
	defer rw.info.mu.Unlock()
	if !rw.info.set {
		return
	}

	h := rw.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(rw.info.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(rw.info.remaining))
}

// Flush forwards Flush to the underlying ResponseWriter if it supports http.Flusher.
func (rw *rateLimitResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
