// Copyright 2024-2026 Aiku AI

package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/metrics"
)

// Webhook posts text to Slack incoming webhooks.
type Webhook struct {
	client *http.Client
}

// NewWebhook creates a Webhook. Requests made through it always carry JSON
// Accept and Content-Type headers.
func NewWebhook(client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	wrapped := *client
	next := client.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	wrapped.Transport = jsonHeaders{next: next}
	return &Webhook{client: &wrapped}
}

// webhookPayload is the whole body sent to a webhook. It must not grow
// other keys.
type webhookPayload struct {
	Text string `json:"text"`
}

// Post sends text to the webhook at url. Any non-2xx status is an error;
// the destination's reply body is discarded.
func (w *Webhook) Post(ctx context.Context, url, text string) (err error) {
	defer metrics.ObserveUpstream("webhook.post", time.Now(), &err)

	body, err := json.Marshal(webhookPayload{Text: text})
	if err != nil {
		return fmt.Errorf("webhook post: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook post: unexpected status %d", resp.StatusCode)
	}
	return nil
}

type jsonHeaders struct {
	next http.RoundTripper
}

func (t jsonHeaders) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return t.next.RoundTrip(req)
}
