// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package workspacetest provides an in-process fake of the Slack Web API
// and incoming webhooks for tests.
package workspacetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// Call records one request received by the fake.
type Call struct {
	Method string
	Path   string
	Token  string
	Header http.Header
	Form   url.Values
	Body   string
}

// File is a canned files.info entry.
type File struct {
	ID                 string
	Name               string
	Title              string
	Filetype           string
	URLPrivate         string
	URLPrivateDownload string
	// Content is returned as the top-level "content" field when non-empty.
	Content string
}

// FakeSlack wraps an httptest.Server simulating the Slack Web API under
// /api/ and incoming webhooks under /hooks/. It records calls and returns
// canned responses.
type FakeSlack struct {
	Server *httptest.Server

	mu    sync.Mutex
	calls []Call

	// Files maps file ID to files.info responses.
	Files map[string]File
	// FailMethods makes the named API methods or hook paths answer 500.
	FailMethods map[string]bool
	// NotOKMethods makes the named API methods answer {"ok":false}.
	NotOKMethods map[string]string
	// UploadedID and RemoteID are the file IDs returned by upload and
	// remote registration.
	UploadedID string
	RemoteID   string
}

// NewFakeSlack starts a FakeSlack. Close it when done.
func NewFakeSlack() *FakeSlack {
	f := &FakeSlack{
		Files:        make(map[string]File),
		FailMethods:  make(map[string]bool),
		NotOKMethods: make(map[string]string),
		UploadedID:   "FUPLOADED",
		RemoteID:     "FREMOTE",
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handler))
	return f
}

// Close shuts the server down.
func (f *FakeSlack) Close() {
	f.Server.Close()
}

// APIURL is the Web API base to configure clients with.
func (f *FakeSlack) APIURL() string {
	return f.Server.URL + "/api/"
}

// HookURL returns an incoming webhook URL served by the fake.
func (f *FakeSlack) HookURL(name string) string {
	return f.Server.URL + "/hooks/" + name
}

// Calls returns a snapshot of the recorded calls.
func (f *FakeSlack) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]Call, len(f.calls))
	copy(cp, f.calls)
	return cp
}

// CallsTo returns the recorded calls whose path ends with method.
func (f *FakeSlack) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if strings.HasSuffix(c.Path, "/"+method) {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeSlack) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.FormValue("token")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *FakeSlack) handler(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/hooks/") {
		f.handleHook(w, r)
		return
	}

	// Triggers form parsing for urlencoded, multipart and query parameters.
	token := requestToken(r)
	_ = r.ParseMultipartForm(32 << 20)
	f.record(Call{Method: r.Method, Path: r.URL.Path, Token: token, Header: r.Header.Clone(), Form: r.Form})

	method := strings.TrimPrefix(r.URL.Path, "/api/")
	if f.FailMethods[method] {
		http.Error(w, "fake error", http.StatusInternalServerError)
		return
	}
	if code, ok := f.NotOKMethods[method]; ok {
		writeJSON(w, map[string]any{"ok": false, "error": code})
		return
	}

	switch method {
	case "files.info":
		file, ok := f.Files[r.FormValue("file")]
		if !ok {
			writeJSON(w, map[string]any{"ok": false, "error": "file_not_found"})
			return
		}
		resp := map[string]any{
			"ok": true,
			"file": map[string]any{
				"id":                   file.ID,
				"name":                 file.Name,
				"title":                file.Title,
				"filetype":             file.Filetype,
				"url_private":          file.URLPrivate,
				"url_private_download": file.URLPrivateDownload,
			},
		}
		if file.Content != "" {
			resp["content"] = file.Content
		}
		writeJSON(w, resp)
	case "files.upload":
		writeJSON(w, map[string]any{
			"ok":   true,
			"file": map[string]any{"id": f.UploadedID, "title": r.FormValue("title")},
		})
	case "files.remote.add":
		writeJSON(w, map[string]any{
			"ok": true,
			"file": map[string]any{
				"id":           f.RemoteID,
				"external_id":  r.FormValue("external_id"),
				"external_url": r.FormValue("external_url"),
				"title":        r.FormValue("title"),
			},
		})
	case "files.remote.share":
		writeJSON(w, map[string]any{
			"ok":   true,
			"file": map[string]any{"id": r.FormValue("file"), "external_id": r.FormValue("external_id")},
		})
	default:
		writeJSON(w, map[string]any{"ok": false, "error": fmt.Sprintf("unknown_method: %s", method)})
	}
}

func (f *FakeSlack) handleHook(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.record(Call{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: string(body)})
	if f.FailMethods[r.URL.Path] {
		http.Error(w, "no_service", http.StatusInternalServerError)
		return
	}
	_, _ = io.WriteString(w, "ok")
}
