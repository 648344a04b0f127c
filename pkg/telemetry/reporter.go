// Copyright 2024-2026 Aiku AI

// Package telemetry sends best-effort error reports to a Sentry-compatible
// store endpoint.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/metrics"
)

const (
	sentryVersion = "7"
	clientName    = "slack-relay/1.0"
	sendTimeout   = 10 * time.Second
)

// Reporter records unhandled events and relay failures. Report never fails:
// transport errors are logged and dropped after a single attempt.
type Reporter interface {
	Report(ctx context.Context, message string, extra any)
}

// Config describes the store endpoint and its credentials.
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	ProjectID string `yaml:"project_id"`
	Key       string `yaml:"key"`
	Logger    string `yaml:"logger"`
	Platform  string `yaml:"platform"`
}

// Event is the JSON body posted to the store endpoint.
type Event struct {
	EventID   string `json:"event_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Logger    string `json:"logger"`
	Platform  string `json:"platform"`
	Extra     any    `json:"extra,omitempty"`
}

// StoreReporter posts one Event per report.
type StoreReporter struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

var _ Reporter = (*StoreReporter)(nil)

// New returns a StoreReporter when telemetry is enabled and a no-op reporter
// otherwise.
func New(cfg Config, client *http.Client) Reporter {
	if !cfg.Enabled || cfg.Endpoint == "" || cfg.ProjectID == "" {
		return Nop{}
	}
	if client == nil {
		client = &http.Client{Timeout: sendTimeout}
	}
	if cfg.Logger == "" {
		cfg.Logger = "slack-relay"
	}
	if cfg.Platform == "" {
		cfg.Platform = "go"
	}
	return &StoreReporter{cfg: cfg, client: client, now: time.Now}
}

// storeURL is <endpoint>/api/<project id>/store/.
func (r *StoreReporter) storeURL() string {
	return strings.TrimRight(r.cfg.Endpoint, "/") + "/api/" + r.cfg.ProjectID + "/store/"
}

func (r *StoreReporter) authHeader(ts time.Time) string {
	return fmt.Sprintf("Sentry sentry_version=%s, sentry_client=%s, sentry_timestamp=%d, sentry_key=%s",
		sentryVersion, clientName, ts.Unix(), r.cfg.Key)
}

// Report implements Reporter.
func (r *StoreReporter) Report(ctx context.Context, message string, extra any) {
	log := zerolog.Ctx(ctx)
	// The report outlives a cancelled inbound request.
	ctx = context.WithoutCancel(ctx)

	err := r.send(ctx, message, extra)
	if err != nil {
		metrics.TelemetryReports.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("report_message", message).Msg("Failed to send telemetry report")
		return
	}
	metrics.TelemetryReports.WithLabelValues("ok").Inc()
}

func (r *StoreReporter) send(ctx context.Context, message string, extra any) error {
	ts := r.now().UTC()
	evt := Event{
		EventID:   strings.ReplaceAll(uuid.NewString(), "-", ""),
		Message:   message,
		Timestamp: ts.Format("2006-01-02T15:04:05"),
		Logger:    r.cfg.Logger,
		Platform:  r.cfg.Platform,
		Extra:     extra,
	}
	body, err := json.Marshal(&evt)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.storeURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sentry-Auth", r.authHeader(ts))

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post report: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telemetry endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Nop discards every report.
type Nop struct{}

func (Nop) Report(context.Context, string, any) {}
