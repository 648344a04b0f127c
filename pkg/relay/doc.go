// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package relay forwards Slack events from a source workspace into a paired
// destination workspace.
//
// Events arrive as `{"event": {...}}` POST bodies on one or more endpoints.
// Each endpoint names the user directory that resolves display names for
// the events it receives. Every request is answered 200 with a plain-text
// outcome; failures are reported to telemetry instead of the sender.
//
// # Core Types
//
// [Envelope] is an inbound event decoded once into a message, file_shared
// or unhandled variant.
//
// [Relay] holds the collaborators (channel registry, identity resolver,
// source and destination workspaces, webhook, telemetry) and implements
// the decisions: [Relay.Dispatch], [Relay.RelayMessage], [Relay.RelayFile].
//
// [Outcome] is the single result of one event: forwarded, skipped, failed
// or unhandled.
//
// # Echo Prevention
//
// Messages the relay posts through a webhook come back as events. Several
// layers keep them from looping: events without a user are skipped, bot
// messages (subtype or bot ID) are skipped, and file shares attributed to
// the configured bot display name are skipped. These layers must not be
// simplified or removed.
//
// # File Strategies
//
// Files whose metadata carries inline content are uploaded with the
// destination user credential. All other files are registered as remote
// files and then shared with the destination bot credential; see
// [FileState] for the steps.
package relay
