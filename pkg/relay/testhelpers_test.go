// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/directory"
	"github.com/dev-launchers/Slack-Message-Exchange/pkg/workspace"
)

// fakeRegistry serves channel mappings from a map and counts lookups.
type fakeRegistry struct {
	mu       sync.Mutex
	mappings map[string]directory.ChannelMapping
	err      error
	lookups  int
}

func (f *fakeRegistry) Lookup(_ context.Context, channelID string) (directory.ChannelMapping, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return directory.ChannelMapping{}, false, f.err
	}
	m, ok := f.mappings[channelID]
	return m, ok, nil
}

// fakeIdentities resolves "directory/user" keys, falling back to the
// default placeholder.
type fakeIdentities map[string]string

func (f fakeIdentities) Resolve(_ context.Context, dir, userID string) string {
	if name, ok := f[dir+"/"+userID]; ok {
		return name
	}
	return directory.DefaultPlaceholder(userID)
}

// fakeSource returns canned file descriptors.
type fakeSource struct {
	mu    sync.Mutex
	files map[string]*workspace.FileDescriptor
	err   error
	calls []string
}

func (f *fakeSource) FileInfo(_ context.Context, fileID string) (*workspace.FileDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fileID)
	if f.err != nil {
		return nil, f.err
	}
	fd, ok := f.files[fileID]
	if !ok {
		return nil, errors.New("file_not_found")
	}
	return fd, nil
}

type shareCall struct {
	Channel, ExternalID, FileID string
}

// fakeDestination records writes and can fail each one.
type fakeDestination struct {
	mu      sync.Mutex
	uploads []workspace.Upload
	adds    []workspace.RemoteFile
	shares  []shareCall

	uploadErr error
	addErr    error
	shareErr  error
}

func (f *fakeDestination) Upload(_ context.Context, u workspace.Upload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, u)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "FUP", nil
}

func (f *fakeDestination) AddRemote(_ context.Context, rf workspace.RemoteFile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, rf)
	if f.addErr != nil {
		return "", f.addErr
	}
	return "FREMOTE", nil
}

func (f *fakeDestination) ShareRemote(_ context.Context, channel, externalID, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shares = append(f.shares, shareCall{channel, externalID, fileID})
	return f.shareErr
}

func (f *fakeDestination) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads) + len(f.adds) + len(f.shares)
}

type webhookPost struct {
	URL, Text string
}

type fakeWebhook struct {
	mu    sync.Mutex
	posts []webhookPost
	err   error
}

func (f *fakeWebhook) Post(_ context.Context, url, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, webhookPost{url, text})
	return f.err
}

func (f *fakeWebhook) Posts() []webhookPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]webhookPost, len(f.posts))
	copy(cp, f.posts)
	return cp
}

type report struct {
	Message string
	Extra   any
}

// recordingReporter captures telemetry reports.
type recordingReporter struct {
	mu      sync.Mutex
	reports []report
}

func (r *recordingReporter) Report(_ context.Context, message string, extra any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report{message, extra})
}

func (r *recordingReporter) Reports() []report {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]report, len(r.reports))
	copy(cp, r.reports)
	return cp
}

// testRelay bundles a Relay with its fakes.
type testRelay struct {
	*Relay
	registry    *fakeRegistry
	source      *fakeSource
	destination *fakeDestination
	webhook     *fakeWebhook
	reporter    *recordingReporter
}

func newTestRelay() *testRelay {
	tr := &testRelay{
		registry: &fakeRegistry{mappings: map[string]directory.ChannelMapping{
			"C1": {Webhook: "https://dest/hook"},
			"C2": {Webhook: "https://dest/hook2", Channel: "D2"},
			"C3": {Channel: "D3"},
		}},
		source:      &fakeSource{files: map[string]*workspace.FileDescriptor{}},
		destination: &fakeDestination{},
		webhook:     &fakeWebhook{},
		reporter:    &recordingReporter{},
	}
	tr.Relay = New(Deps{
		Registry: tr.registry,
		Identities: fakeIdentities{
			"default/U1": "Alice",
			"default/U2": "Bob",
			"default/UB": "Relay Bot",
			"mentor/U1":  "Dr. Alice",
		},
		Source:      tr.source,
		Destination: tr.destination,
		Webhook:     tr.webhook,
		Reporter:    tr.reporter,
	}, Options{
		BotDisplayName: "Relay Bot",
		FileBaseURL:    "https://files.example/",
	})
	return tr
}

// outboundCalls counts every call that leaves the relay besides registry
// lookups and telemetry.
func (tr *testRelay) outboundCalls() int {
	tr.source.mu.Lock()
	n := len(tr.source.calls)
	tr.source.mu.Unlock()
	return n + tr.destination.total() + len(tr.webhook.Posts())
}
