// Copyright 2024-2026 Aiku AI

package directory

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// PlaceholderFunc renders the display name used for unknown users.
type PlaceholderFunc func(userID string) string

// DefaultPlaceholder is used when no PlaceholderFunc is configured.
func DefaultPlaceholder(userID string) string {
	return "New user " + userID
}

type identityKey struct {
	directory string
	userID    string
}

// Identities resolves user IDs to display names. Resolve always returns a
// name: unknown users, blank stored names and lookup failures fall back to
// the placeholder.
// Answers are kept for the life of the process, so the same user resolves to
// the same name for the whole run.
type Identities struct {
	table       UserTable
	placeholder PlaceholderFunc

	mu    sync.RWMutex
	cache map[identityKey]string
}

// NewIdentities creates a resolver on top of table.
func NewIdentities(table UserTable, placeholder PlaceholderFunc) *Identities {
	if placeholder == nil {
		placeholder = DefaultPlaceholder
	}
	return &Identities{
		table:       table,
		placeholder: placeholder,
		cache:       make(map[identityKey]string),
	}
}

// Resolve returns the display name for userID within directory.
func (i *Identities) Resolve(ctx context.Context, directory, userID string) string {
	key := identityKey{directory: directory, userID: userID}

	i.mu.RLock()
	name, ok := i.cache[key]
	i.mu.RUnlock()
	if ok {
		return name
	}

	name, found, err := i.table.DisplayName(ctx, directory, userID)
	if err != nil {
		// Not cached: a later request may reach the store.
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("directory", directory).
			Str("user_id", userID).
			Msg("Display name lookup failed, using placeholder")
		return i.placeholder(userID)
	}
	if !found || strings.TrimSpace(name) == "" {
		name = i.placeholder(userID)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	// Another request may have won the race; keep its answer.
	if existing, ok := i.cache[key]; ok {
		return existing
	}
	i.cache[key] = name
	return name
}
