// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/slack-go/slack/slackevents"
)

func TestRelayMessageSkips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  slackevents.MessageEvent
		reason string
	}{
		{
			name:   "no user",
			event:  slackevents.MessageEvent{Channel: "C1", Text: "hi"},
			reason: ReasonNoUser,
		},
		{
			name:   "bot message subtype",
			event:  slackevents.MessageEvent{User: "U1", Channel: "C1", Text: "hi", SubType: "bot_message"},
			reason: ReasonAutomated,
		},
		{
			name:   "bot message subtype without text",
			event:  slackevents.MessageEvent{User: "U1", Channel: "C1", SubType: "bot_message"},
			reason: ReasonAutomated,
		},
		{
			name:   "bot id",
			event:  slackevents.MessageEvent{User: "U1", Channel: "C1", Text: "hi", BotID: "B1"},
			reason: ReasonAutomated,
		},
		{
			name:   "empty text",
			event:  slackevents.MessageEvent{User: "U1", Channel: "C1"},
			reason: ReasonEmptyText,
		},
		{
			name:   "unmapped channel",
			event:  slackevents.MessageEvent{User: "U1", Channel: "C404", Text: "hi"},
			reason: ReasonNoDestination,
		},
		{
			name:   "mapping without webhook",
			event:  slackevents.MessageEvent{User: "U1", Channel: "C3", Text: "hi"},
			reason: ReasonNoDestination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := newTestRelay()
			got := tr.RelayMessage(context.Background(), "default", &tt.event)
			if got.Kind != Skipped {
				t.Fatalf("Kind: got %v, want skipped", got.Kind)
			}
			if got.Reason != tt.reason {
				t.Errorf("Reason: got %q, want %q", got.Reason, tt.reason)
			}
			if n := tr.outboundCalls(); n != 0 {
				t.Errorf("expected no outbound calls, got %d", n)
			}
			if n := len(tr.reporter.Reports()); n != 0 {
				t.Errorf("skips must not be reported, got %d reports", n)
			}
		})
	}
}

func TestRelayMessageForwards(t *testing.T) {
	t.Parallel()
	tr := newTestRelay()

	got := tr.RelayMessage(context.Background(), "default", &slackevents.MessageEvent{
		Type: "message", User: "U1", Channel: "C1", Text: "hi",
	})
	if got.Kind != Forwarded {
		t.Fatalf("Kind: got %v (%s)", got.Kind, got)
	}
	if got.String() != "forwarded" {
		t.Errorf("String: got %q", got.String())
	}

	posts := tr.webhook.Posts()
	if len(posts) != 1 {
		t.Fatalf("expected 1 webhook post, got %d", len(posts))
	}
	if posts[0].URL != "https://dest/hook" {
		t.Errorf("URL: got %q", posts[0].URL)
	}
	if posts[0].Text != "*Alice*\nhi" {
		t.Errorf("Text: got %q", posts[0].Text)
	}
}

func TestRelayMessageUsesDirectory(t *testing.T) {
	t.Parallel()
	tr := newTestRelay()

	tr.RelayMessage(context.Background(), "mentor", &slackevents.MessageEvent{User: "U1", Channel: "C1", Text: "hello"})
	posts := tr.webhook.Posts()
	if len(posts) != 1 || posts[0].Text != "*Dr. Alice*\nhello" {
		t.Errorf("posts: %+v", posts)
	}
}

func TestRelayMessageUnknownUserGetsPlaceholder(t *testing.T) {
	t.Parallel()
	tr := newTestRelay()

	tr.RelayMessage(context.Background(), "default", &slackevents.MessageEvent{User: "U9", Channel: "C1", Text: "hi"})
	posts := tr.webhook.Posts()
	if len(posts) != 1 || posts[0].Text != "*New user U9*\nhi" {
		t.Errorf("posts: %+v", posts)
	}
}

func TestRelayMessageWebhookFailure(t *testing.T) {
	t.Parallel()
	tr := newTestRelay()
	tr.webhook.err = errors.New("connection refused")

	got := tr.RelayMessage(context.Background(), "default", &slackevents.MessageEvent{User: "U1", Channel: "C1", Text: "hi"})
	if got.Kind != Failed {
		t.Fatalf("Kind: got %v", got.Kind)
	}
	if got.Phase != "webhook_post" {
		t.Errorf("Phase: got %q", got.Phase)
	}
	if !errors.Is(got.Err, tr.webhook.err) {
		t.Errorf("Err should wrap the webhook error, got %v", got.Err)
	}
	if n := len(tr.reporter.Reports()); n != 1 {
		t.Errorf("expected 1 report, got %d", n)
	}
}

func TestRelayMessageRegistryFailure(t *testing.T) {
	t.Parallel()
	tr := newTestRelay()
	tr.registry.err = errors.New("redis down")

	got := tr.RelayMessage(context.Background(), "default", &slackevents.MessageEvent{User: "U1", Channel: "C1", Text: "hi"})
	if got.Kind != Failed || got.Phase != "registry_lookup" {
		t.Fatalf("got %+v", got)
	}
	if len(tr.webhook.Posts()) != 0 {
		t.Error("no webhook post expected after a failed lookup")
	}
	if n := len(tr.reporter.Reports()); n != 1 {
		t.Errorf("expected 1 report, got %d", n)
	}
}
