// Copyright 2024-2026 Aiku AI

// Package directory implements the channel registry and the user display
// name tables the relay consults before every outbound call. Both are
// read-only lookups; a missing entry is a normal answer, not an error.
package directory

import (
	"context"
)

// ChannelMapping is the destination configured for one source channel. Either
// field may be empty: message relay needs Webhook, file relay needs Channel.
type ChannelMapping struct {
	Webhook string `json:"webhook,omitempty" yaml:"webhook"`
	Channel string `json:"channel,omitempty" yaml:"channel"`
}

// IsZero reports whether neither destination is configured.
func (m ChannelMapping) IsZero() bool {
	return m.Webhook == "" && m.Channel == ""
}

// Registry maps a source channel ID to its destination.
type Registry interface {
	Lookup(ctx context.Context, channelID string) (ChannelMapping, bool, error)
}

// UserTable maps a user ID to a display name within a named directory.
type UserTable interface {
	DisplayName(ctx context.Context, directory, userID string) (string, bool, error)
}
