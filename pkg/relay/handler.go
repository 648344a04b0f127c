// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/metrics"
)

const requestIDHeader = "X-Request-ID"

// Handler receives `{"event": ...}` bodies on one endpoint. Every POST is
// answered 200 with the outcome as plain text so the sender never retries.
type Handler struct {
	relay       *Relay
	directory   string
	maxBodySize int64
	log         zerolog.Logger
}

// NewHandler creates the handler for ep.
func NewHandler(r *Relay, ep Endpoint, maxBodySize int64, log zerolog.Logger) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	dir := ep.Directory
	if dir == "" {
		dir = defaultDirectory
	}
	return &Handler{
		relay:       r,
		directory:   dir,
		maxBodySize: maxBodySize,
		log:         log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	w.Header().Set(requestIDHeader, requestID)

	// Not an event delivery, so the always-200 acknowledgement does not apply.
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log := h.log.With().
		Str("request_id", requestID).
		Str("path", r.URL.Path).
		Str("directory", h.directory).
		Logger()
	// Handling runs to completion even if the sender hangs up.
	ctx := log.WithContext(context.WithoutCancel(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	defer r.Body.Close()

	outcome := h.handle(ctx, r.Body)

	metrics.EventsTotal.WithLabelValues(eventTypeLabel(outcome), outcome.Kind.String()).Inc()
	log.Info().
		Str("event_type", outcome.EventType).
		Stringer("outcome", outcome.Kind).
		Str("reason", outcome.Reason).
		Msg("Handled event")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, outcome.String())
}

func (h *Handler) handle(ctx context.Context, body io.Reader) (outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			zerolog.Ctx(ctx).Error().
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic while handling event")
			outcome = h.relay.fail(ctx, outcome.EventType, "handler", "internal error", err, nil)
		}
	}()

	data, err := io.ReadAll(body)
	if err != nil {
		return h.relay.fail(ctx, "", "read_body", ReasonInvalidPayload, err, nil)
	}
	env, err := DecodeEnvelope(data)
	if err != nil {
		return h.relay.fail(ctx, "", "decode", ReasonInvalidPayload, err, map[string]any{"body_size": len(data)})
	}
	outcome.EventType = env.Type
	return h.relay.Dispatch(ctx, h.directory, env)
}

func eventTypeLabel(o Outcome) string {
	switch {
	case o.EventType == eventMessage, o.EventType == eventFileShared:
		return o.EventType
	case o.EventType == "":
		return "invalid"
	default:
		return "other"
	}
}
