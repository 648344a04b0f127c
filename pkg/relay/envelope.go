// Copyright 2024-2026 Aiku AI

package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/slack-go/slack/slackevents"
	"github.com/tidwall/gjson"
)

// EventKind is the variant held by an Envelope.
type EventKind int

const (
	KindUnhandled EventKind = iota
	KindMessage
	KindFileShared
)

func (k EventKind) String() string {
	switch k {
	case KindMessage:
		return eventMessage
	case KindFileShared:
		return eventFileShared
	default:
		return "unhandled"
	}
}

// Envelope is an inbound event decoded once at the boundary. Exactly one of
// Message or FileShared is set for the matching Kind; neither is set for
// KindUnhandled.
type Envelope struct {
	Kind EventKind
	// Type is the event's own type tag, e.g. "reaction_added".
	Type string
	// Raw is the undecoded event object.
	Raw json.RawMessage

	Message    *slackevents.MessageEvent
	FileShared *slackevents.FileSharedEvent
}

const (
	eventMessage    = "message"
	eventFileShared = "file_shared"
)

var (
	ErrInvalidJSON  = errors.New("body is not valid JSON")
	ErrMissingEvent = errors.New("body has no event object")
	ErrMissingType  = errors.New("event has no type")
)

// DecodeEnvelope decodes a `{"event": {...}}` body.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidJSON
	}
	event := gjson.GetBytes(body, "event")
	if !event.IsObject() {
		return nil, ErrMissingEvent
	}
	eventType := event.Get("type")
	if eventType.Type != gjson.String || eventType.Str == "" {
		return nil, ErrMissingType
	}

	env := &Envelope{
		Type: eventType.Str,
		Raw:  json.RawMessage(event.Raw),
	}
	switch env.Type {
	case eventMessage:
		var msg slackevents.MessageEvent
		if err := json.Unmarshal(env.Raw, &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message event: %w", err)
		}
		env.Kind = KindMessage
		env.Message = &msg
	case eventFileShared:
		var fs slackevents.FileSharedEvent
		if err := json.Unmarshal(env.Raw, &fs); err != nil {
			return nil, fmt.Errorf("failed to decode file_shared event: %w", err)
		}
		env.Kind = KindFileShared
		env.FileShared = &fs
	default:
		env.Kind = KindUnhandled
	}
	return env, nil
}
