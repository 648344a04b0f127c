// Copyright 2024-2026 Aiku AI

package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slack-go/slack"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/metrics"
)

// Upload describes a file whose bytes are posted directly.
type Upload struct {
	Channel        string
	Content        string
	Filename       string
	Filetype       string
	Title          string
	InitialComment string
}

// RemoteFile describes a remote file registration.
type RemoteFile struct {
	ExternalID  string
	ExternalURL string
	Title       string
	Filetype    string
}

// Destination performs calls against the workspace events are relayed to.
// Uploads use the user credential; remote-file calls use the bot credential.
type Destination struct {
	bot  *slack.Client
	user *slack.Client
}

// NewDestination creates a Destination. userToken may be empty, in which case
// uploads are made with the bot credential.
func NewDestination(botToken, userToken string, opts Options) *Destination {
	d := &Destination{
		bot: slack.New(botToken, opts.slackOptions()...),
	}
	if userToken != "" {
		d.user = slack.New(userToken, opts.slackOptions()...)
	} else {
		d.user = d.bot
	}
	return d
}

// Upload posts the file content to the destination channel and returns the
// new file ID.
func (d *Destination) Upload(ctx context.Context, u Upload) (fileID string, err error) {
	defer metrics.ObserveUpstream("files.upload", time.Now(), &err)

	file, err := d.user.UploadFileContext(ctx, slack.FileUploadParameters{
		Content:        u.Content,
		Filename:       u.Filename,
		Filetype:       u.Filetype,
		Title:          u.Title,
		InitialComment: u.InitialComment,
		Channels:       []string{u.Channel},
	})
	if err != nil {
		return "", fmt.Errorf("files.upload: %w", err)
	}
	if file == nil {
		return "", nil
	}
	return file.ID, nil
}

// AddRemote registers a remote file and returns the destination file ID.
// Any transport failure or "ok": false response is an error.
func (d *Destination) AddRemote(ctx context.Context, f RemoteFile) (fileID string, err error) {
	defer metrics.ObserveUpstream("files.remote.add", time.Now(), &err)

	remote, err := d.bot.AddRemoteFileContext(ctx, slack.RemoteFileParameters{
		ExternalID:  f.ExternalID,
		ExternalURL: f.ExternalURL,
		Title:       f.Title,
		Filetype:    f.Filetype,
	})
	if err != nil {
		return "", fmt.Errorf("files.remote.add: %w", err)
	}
	if remote == nil || remote.ID == "" {
		return "", errors.New("files.remote.add: response carried no file id")
	}
	return remote.ID, nil
}

// ShareRemote publishes a registered remote file into channel.
func (d *Destination) ShareRemote(ctx context.Context, channel, externalID, fileID string) (err error) {
	defer metrics.ObserveUpstream("files.remote.share", time.Now(), &err)

	if _, err := d.bot.ShareRemoteFileContext(ctx, []string{channel}, externalID, fileID); err != nil {
		return fmt.Errorf("files.remote.share: %w", err)
	}
	return nil
}
