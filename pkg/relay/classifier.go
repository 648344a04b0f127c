// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"

	"github.com/rs/zerolog"
)

// Dispatch routes env to the message or file path, or acknowledges and
// reports it when its type is not handled.
func (r *Relay) Dispatch(ctx context.Context, directory string, env *Envelope) Outcome {
	switch env.Kind {
	case KindMessage:
		return r.RelayMessage(ctx, directory, env.Message)
	case KindFileShared:
		return r.RelayFile(ctx, directory, env.FileShared)
	default:
		zerolog.Ctx(ctx).Warn().
			Str("event_type", env.Type).
			Msg("Unhandled event type")
		r.deps.Reporter.Report(ctx, env.Type+" not handled yet", map[string]any{
			"event_type": env.Type,
			"directory":  directory,
			"event":      env.Raw,
		})
		return Outcome{Kind: Unhandled, EventType: env.Type}
	}
}
