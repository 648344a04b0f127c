// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/directory"
	"github.com/dev-launchers/Slack-Message-Exchange/pkg/telemetry"
	"github.com/dev-launchers/Slack-Message-Exchange/pkg/workspace"
)

// ChannelRegistry maps a source channel to its destination.
type ChannelRegistry interface {
	Lookup(ctx context.Context, channelID string) (directory.ChannelMapping, bool, error)
}

// IdentityResolver maps a source user to a display name. It never fails.
type IdentityResolver interface {
	Resolve(ctx context.Context, directory, userID string) string
}

// SourceWorkspace reads file metadata from the workspace events come from.
type SourceWorkspace interface {
	FileInfo(ctx context.Context, fileID string) (*workspace.FileDescriptor, error)
}

// DestinationWorkspace writes files into the workspace events are relayed to.
type DestinationWorkspace interface {
	Upload(ctx context.Context, u workspace.Upload) (string, error)
	AddRemote(ctx context.Context, f workspace.RemoteFile) (string, error)
	ShareRemote(ctx context.Context, channel, externalID, fileID string) error
}

// WebhookPoster posts text to an incoming webhook.
type WebhookPoster interface {
	Post(ctx context.Context, url, text string) error
}

// Deps are the collaborators a Relay calls out to.
type Deps struct {
	Registry    ChannelRegistry
	Identities  IdentityResolver
	Source      SourceWorkspace
	Destination DestinationWorkspace
	Webhook     WebhookPoster
	Reporter    telemetry.Reporter
}

// Options tune relay decisions.
type Options struct {
	// BotDisplayName is the resolved name of the relay's own account.
	BotDisplayName string
	// FileBaseURL prefixes remote file reference URLs.
	FileBaseURL string
}

// Relay classifies inbound events and forwards them to the destination
// workspace. It holds no per-event state and is safe for concurrent use.
type Relay struct {
	deps Deps
	opts Options
}

// New creates a Relay. A nil Reporter is replaced with a no-op.
func New(deps Deps, opts Options) *Relay {
	if deps.Reporter == nil {
		deps.Reporter = telemetry.Nop{}
	}
	return &Relay{deps: deps, opts: opts}
}

// fail builds a Failed outcome and reports it.
func (r *Relay) fail(ctx context.Context, eventType, phase, reason string, err error, extra map[string]any) Outcome {
	zerolog.Ctx(ctx).Err(err).
		Str("event_type", eventType).
		Str("phase", phase).
		Msg("Relay failed: " + reason)

	report := map[string]any{
		"event_type": eventType,
		"phase":      phase,
	}
	if err != nil {
		report["error"] = err.Error()
	}
	for k, v := range extra {
		report[k] = v
	}
	r.deps.Reporter.Report(ctx, reason, report)

	return Outcome{Kind: Failed, EventType: eventType, Reason: reason, Phase: phase, Err: err}
}

func (r *Relay) skip(ctx context.Context, eventType, reason string) Outcome {
	zerolog.Ctx(ctx).Debug().
		Str("event_type", eventType).
		Str("reason", reason).
		Msg("Skipping event")
	return skipped(eventType, reason)
}
