// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/slackfmt"
)

// RelayMessage forwards a message event to its channel's webhook as
// "*name*\ntext". The first matching skip rule wins.
func (r *Relay) RelayMessage(ctx context.Context, directory string, ev *slackevents.MessageEvent) Outcome {
	// Posts made through the webhook come back without a user.
	if ev.User == "" {
		return r.skip(ctx, eventMessage, ReasonNoUser)
	}
	if ev.SubType == slack.MsgSubTypeBotMessage || ev.BotID != "" {
		return r.skip(ctx, eventMessage, ReasonAutomated)
	}
	if ev.Text == "" {
		return r.skip(ctx, eventMessage, ReasonEmptyText)
	}

	mapping, found, err := r.deps.Registry.Lookup(ctx, ev.Channel)
	if err != nil {
		return r.fail(ctx, eventMessage, "registry_lookup", "could not look up channel "+ev.Channel, err,
			map[string]any{"channel": ev.Channel})
	}
	if !found || mapping.Webhook == "" {
		return r.skip(ctx, eventMessage, ReasonNoDestination)
	}

	name := r.deps.Identities.Resolve(ctx, directory, ev.User)
	text := slackfmt.Attribute(name, ev.Text)
	if err := r.deps.Webhook.Post(ctx, mapping.Webhook, text); err != nil {
		return r.fail(ctx, eventMessage, "webhook_post", "could not post to destination webhook", err,
			map[string]any{"channel": ev.Channel, "user": ev.User})
	}

	zerolog.Ctx(ctx).Debug().
		Str("channel", ev.Channel).
		Str("user", ev.User).
		Msg("Relayed message")
	return forwarded(eventMessage)
}
