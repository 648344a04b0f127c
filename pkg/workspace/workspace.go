// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package workspace wraps the Slack Web API calls the relay makes against
// the source and destination workspaces.
package workspace

import (
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// DefaultAPIURL is the Slack Web API base.
const DefaultAPIURL = slack.APIURL

const defaultTimeout = 30 * time.Second

// Options configures the transport shared by all calls to one workspace.
type Options struct {
	// APIURL overrides the Web API base, e.g. for a test server. A trailing
	// slash is added when missing.
	APIURL     string
	HTTPClient *http.Client
}

func (o Options) apiURL() string {
	if o.APIURL == "" {
		return DefaultAPIURL
	}
	if !strings.HasSuffix(o.APIURL, "/") {
		return o.APIURL + "/"
	}
	return o.APIURL
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (o Options) slackOptions() []slack.Option {
	return []slack.Option{
		slack.OptionAPIURL(o.apiURL()),
		slack.OptionHTTPClient(o.httpClient()),
	}
}

// FileDescriptor is the metadata of a source file. Content holds exactly one
// of InlineContent or RemoteReference.
type FileDescriptor struct {
	ID       string
	Name     string
	Title    string
	Filetype string
	Content  FileContent
}

// FileContent is either *InlineContent or *RemoteReference.
type FileContent interface {
	isFileContent()
}

// InlineContent is file content returned directly by files.info, as for
// snippets and posts.
type InlineContent struct {
	Text string
}

// RemoteReference points at content that must be fetched separately.
type RemoteReference struct {
	URLPrivate string
}

func (*InlineContent) isFileContent()   {}
func (*RemoteReference) isFileContent() {}
