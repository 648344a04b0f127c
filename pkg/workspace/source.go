// Copyright 2024-2026 Aiku AI

package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/metrics"
)

// maxInfoResponseSize bounds a files.info response body (content included).
const maxInfoResponseSize = 16 << 20

// Source queries the workspace events are relayed from, using the relay's
// own bot credential there.
type Source struct {
	token  string
	apiURL string
	client *http.Client
}

// NewSource creates a Source authenticated with token.
func NewSource(token string, opts Options) *Source {
	return &Source{
		token:  token,
		apiURL: opts.apiURL(),
		client: opts.httpClient(),
	}
}

// fileInfoResponse is files.info including the top-level "content" field,
// which slack.Client.GetFileInfo does not expose.
type fileInfoResponse struct {
	slack.SlackResponse
	File    slack.File `json:"file"`
	Content string     `json:"content"`
}

// FileInfo fetches the metadata of fileID.
func (s *Source) FileInfo(ctx context.Context, fileID string) (fd *FileDescriptor, err error) {
	defer metrics.ObserveUpstream("files.info", time.Now(), &err)

	form := url.Values{"file": {fileID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"files.info", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build files.info request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("files.info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, slack.StatusCodeError{Code: resp.StatusCode, Status: resp.Status}
	}

	var info fileInfoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxInfoResponseSize)).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode files.info response: %w", err)
	}
	if !info.Ok {
		if err := info.Err(); err != nil {
			return nil, fmt.Errorf("files.info: %w", err)
		}
		return nil, errors.New("files.info: response not ok")
	}

	return describeFile(&info), nil
}

func describeFile(info *fileInfoResponse) *FileDescriptor {
	fd := &FileDescriptor{
		ID:       info.File.ID,
		Name:     info.File.Name,
		Title:    info.File.Title,
		Filetype: info.File.Filetype,
	}
	if fd.Title == "" {
		fd.Title = fd.Name
	}
	if info.Content != "" {
		fd.Content = &InlineContent{Text: info.Content}
	} else {
		ref := info.File.URLPrivateDownload
		if ref == "" {
			ref = info.File.URLPrivate
		}
		fd.Content = &RemoteReference{URLPrivate: ref}
	}
	return fd
}
