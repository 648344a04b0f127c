// Copyright 2024-2026 Aiku AI

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type storeCall struct {
	Path string
	Auth string
	Body Event
}

type fakeStore struct {
	Server *httptest.Server
	Status int

	mu    sync.Mutex
	calls []storeCall
}

func newFakeStore(status int) *fakeStore {
	f := &fakeStore{Status: status}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var evt Event
		_ = json.Unmarshal(raw, &evt)
		f.mu.Lock()
		f.calls = append(f.calls, storeCall{Path: r.URL.Path, Auth: r.Header.Get("X-Sentry-Auth"), Body: evt})
		f.mu.Unlock()
		w.WriteHeader(f.Status)
	}))
	return f
}

func (f *fakeStore) Calls() []storeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]storeCall, len(f.calls))
	copy(cp, f.calls)
	return cp
}

func TestNewDisabledIsNop(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"disabled", Config{Enabled: false, Endpoint: "http://x", ProjectID: "1"}},
		{"no endpoint", Config{Enabled: true, ProjectID: "1"}},
		{"no project", Config{Enabled: true, Endpoint: "http://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, ok := New(tt.cfg, nil).(Nop); !ok {
				t.Error("expected Nop reporter")
			}
		})
	}
}

func TestStoreReporterSendsEvent(t *testing.T) {
	t.Parallel()
	store := newFakeStore(http.StatusOK)
	defer store.Server.Close()

	rep := New(Config{
		Enabled:   true,
		Endpoint:  store.Server.URL + "/",
		ProjectID: "42",
		Key:       "public-key",
		Logger:    "relay-test",
	}, store.Server.Client()).(*StoreReporter)
	rep.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	rep.Report(context.Background(), "reaction_added not handled yet", map[string]string{"type": "reaction_added"})

	calls := store.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 report, got %d", len(calls))
	}
	call := calls[0]
	if call.Path != "/api/42/store/" {
		t.Errorf("path: got %q", call.Path)
	}
	for _, want := range []string{"sentry_version=7", "sentry_key=public-key", "sentry_timestamp=1767323045"} {
		if !strings.Contains(call.Auth, want) {
			t.Errorf("auth header %q missing %q", call.Auth, want)
		}
	}
	if len(call.Body.EventID) != 32 || strings.Contains(call.Body.EventID, "-") {
		t.Errorf("event_id should be 32 hex chars, got %q", call.Body.EventID)
	}
	if call.Body.Message != "reaction_added not handled yet" {
		t.Errorf("message: got %q", call.Body.Message)
	}
	if call.Body.Timestamp != "2026-01-02T03:04:05" {
		t.Errorf("timestamp: got %q", call.Body.Timestamp)
	}
	if call.Body.Logger != "relay-test" {
		t.Errorf("logger: got %q", call.Body.Logger)
	}
	if call.Body.Platform != "go" {
		t.Errorf("platform should default to go, got %q", call.Body.Platform)
	}
}

func TestStoreReporterUniqueEventIDs(t *testing.T) {
	t.Parallel()
	store := newFakeStore(http.StatusOK)
	defer store.Server.Close()

	rep := New(Config{Enabled: true, Endpoint: store.Server.URL, ProjectID: "1"}, nil)
	rep.Report(context.Background(), "a", nil)
	rep.Report(context.Background(), "b", nil)

	calls := store.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(calls))
	}
	if calls[0].Body.EventID == calls[1].Body.EventID {
		t.Error("event ids should differ between reports")
	}
}

func TestStoreReporterSwallowsFailures(t *testing.T) {
	t.Parallel()
	store := newFakeStore(http.StatusInternalServerError)
	defer store.Server.Close()

	rep := New(Config{Enabled: true, Endpoint: store.Server.URL, ProjectID: "1"}, nil)
	rep.Report(context.Background(), "boom", nil)

	if n := len(store.Calls()); n != 1 {
		t.Errorf("expected exactly one attempt, got %d", n)
	}
}

func TestStoreReporterUnreachable(t *testing.T) {
	t.Parallel()
	store := newFakeStore(http.StatusOK)
	url := store.Server.URL
	store.Server.Close()

	rep := New(Config{Enabled: true, Endpoint: url, ProjectID: "1"}, nil)
	// Must return without panicking.
	rep.Report(context.Background(), "boom", nil)
}

func TestStoreReporterIgnoresCancelledContext(t *testing.T) {
	t.Parallel()
	store := newFakeStore(http.StatusOK)
	defer store.Server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := New(Config{Enabled: true, Endpoint: store.Server.URL, ProjectID: "1"}, nil)
	rep.Report(ctx, "late", nil)

	if n := len(store.Calls()); n != 1 {
		t.Errorf("report should be sent after request cancellation, got %d calls", n)
	}
}
