// Copyright 2024-2026 Aiku AI

package directory

import (
	"context"
	"maps"
)

// Static serves channel mappings and user tables held in memory, typically
// loaded from the relay's YAML configuration.
type Static struct {
	channels map[string]ChannelMapping
	users    map[string]map[string]string
}

var (
	_ Registry  = (*Static)(nil)
	_ UserTable = (*Static)(nil)
)

// NewStatic copies the given tables so later mutation by the caller does not
// leak into lookups.
func NewStatic(channels map[string]ChannelMapping, users map[string]map[string]string) *Static {
	s := &Static{
		channels: maps.Clone(channels),
		users:    make(map[string]map[string]string, len(users)),
	}
	if s.channels == nil {
		s.channels = make(map[string]ChannelMapping)
	}
	for dir, table := range users {
		s.users[dir] = maps.Clone(table)
	}
	return s
}

// Lookup implements Registry. Entries with neither a webhook nor a channel
// are treated as absent.
func (s *Static) Lookup(_ context.Context, channelID string) (ChannelMapping, bool, error) {
	m, ok := s.channels[channelID]
	if !ok || m.IsZero() {
		return ChannelMapping{}, false, nil
	}
	return m, true, nil
}

// DisplayName implements UserTable.
func (s *Static) DisplayName(_ context.Context, directory, userID string) (string, bool, error) {
	name, ok := s.users[directory][userID]
	if !ok || name == "" {
		return "", false, nil
	}
	return name, true, nil
}

// ChannelCount returns the number of configured channel mappings.
func (s *Static) ChannelCount() int {
	return len(s.channels)
}
