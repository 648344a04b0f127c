// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack/slackevents"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/directory"
	"github.com/dev-launchers/Slack-Message-Exchange/pkg/slackfmt"
	"github.com/dev-launchers/Slack-Message-Exchange/pkg/workspace"
)

// FileState is a step of the file relay.
type FileState string

const (
	FileStart            FileState = "start"
	FileMetadataFetched  FileState = "metadata_fetched"
	FileStrategySelected FileState = "strategy_selected"
	FileContentUploaded  FileState = "content_uploaded"
	FileRemoteAdded      FileState = "remote_added"
	FileRemoteShared     FileState = "remote_shared"
	FileForwarded        FileState = "forwarded"
	FileFailed           FileState = "failed"
	FileSkipped          FileState = "skipped"
)

// fileTransitions lists the states reachable from each state. Any state
// before a terminal one may fail.
var fileTransitions = map[FileState][]FileState{
	FileStart:            {FileSkipped, FileMetadataFetched, FileFailed},
	FileMetadataFetched:  {FileStrategySelected, FileFailed},
	FileStrategySelected: {FileContentUploaded, FileRemoteAdded, FileFailed},
	FileContentUploaded:  {FileForwarded},
	FileRemoteAdded:      {FileRemoteShared, FileFailed},
	FileRemoteShared:     {FileForwarded},
}

// Terminal reports whether no state follows s.
func (s FileState) Terminal() bool {
	return len(fileTransitions[s]) == 0
}

// CanTransition reports whether next may follow s.
func (s FileState) CanTransition(next FileState) bool {
	for _, allowed := range fileTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// fileRun tracks one file_shared event through the file relay.
type fileRun struct {
	log   zerolog.Logger
	state FileState
}

func (f *fileRun) advance(next FileState) {
	if !f.state.CanTransition(next) {
		f.log.Error().
			Str("from", string(f.state)).
			Str("to", string(next)).
			Msg("Invalid file relay transition")
	}
	f.log.Trace().
		Str("from", string(f.state)).
		Str("to", string(next)).
		Msg("File relay state")
	f.state = next
}

// RelayFile re-shares a file into its channel's destination channel. Inline
// content is uploaded; anything else is registered as a remote file and then
// shared.
func (r *Relay) RelayFile(ctx context.Context, dir string, ev *slackevents.FileSharedEvent) Outcome {
	log := zerolog.Ctx(ctx).With().
		Str("file_id", ev.FileID).
		Str("channel", ev.ChannelID).
		Logger()
	ctx = log.WithContext(ctx)
	run := &fileRun{log: log, state: FileStart}

	if ev.UserID == "" {
		run.advance(FileSkipped)
		return r.skip(ctx, eventFileShared, ReasonFileNoUser)
	}
	name := r.deps.Identities.Resolve(ctx, dir, ev.UserID)
	if r.opts.BotDisplayName != "" && name == r.opts.BotDisplayName {
		run.advance(FileSkipped)
		return r.skip(ctx, eventFileShared, ReasonBotFile)
	}

	extra := map[string]any{"channel": ev.ChannelID, "file_id": ev.FileID, "user": ev.UserID}

	// Unmapped channels are settled before any workspace call.
	mapping, found, err := r.deps.Registry.Lookup(ctx, ev.ChannelID)
	if err != nil {
		run.advance(FileFailed)
		return r.fail(ctx, eventFileShared, "registry_lookup", "could not look up channel "+ev.ChannelID, err, extra)
	}
	if !found || mapping.Channel == "" {
		run.advance(FileSkipped)
		return r.skip(ctx, eventFileShared, ReasonNoDestination)
	}

	fd, err := r.deps.Source.FileInfo(ctx, ev.FileID)
	if err != nil {
		run.advance(FileFailed)
		return r.fail(ctx, eventFileShared, "files.info", "could not fetch file metadata", err, extra)
	}
	run.advance(FileMetadataFetched)

	run.advance(FileStrategySelected)
	switch content := fd.Content.(type) {
	case *workspace.InlineContent:
		return r.uploadContent(ctx, run, mapping, fd, content, name, extra)
	default:
		return r.shareRemote(ctx, run, mapping, fd, name, extra)
	}
}

func (r *Relay) uploadContent(
	ctx context.Context,
	run *fileRun,
	mapping directory.ChannelMapping,
	fd *workspace.FileDescriptor,
	content *workspace.InlineContent,
	name string,
	extra map[string]any,
) Outcome {
	_, err := r.deps.Destination.Upload(ctx, workspace.Upload{
		Channel:        mapping.Channel,
		Content:        content.Text,
		Filename:       fd.Name,
		Filetype:       fd.Filetype,
		Title:          fd.Title,
		InitialComment: slackfmt.SharedFileComment(name, fd.Name),
	})
	if err != nil {
		run.advance(FileFailed)
		return r.fail(ctx, eventFileShared, "files.upload", "could not upload file content", err, extra)
	}
	run.advance(FileContentUploaded)
	run.advance(FileForwarded)
	return forwarded(eventFileShared)
}

func (r *Relay) shareRemote(
	ctx context.Context,
	run *fileRun,
	mapping directory.ChannelMapping,
	fd *workspace.FileDescriptor,
	name string,
	extra map[string]any,
) Outcome {
	title := fd.Title
	if title == "" {
		title = fd.ID
	}
	externalID := fd.ID
	remoteID, err := r.deps.Destination.AddRemote(ctx, workspace.RemoteFile{
		ExternalID:  externalID,
		ExternalURL: RemoteFileURL(r.opts.FileBaseURL, fd.ID, fd.Name),
		Title:       title,
		Filetype:    fd.Filetype,
	})
	if err != nil {
		run.advance(FileFailed)
		return r.fail(ctx, eventFileShared, "files.remote.add", "could not add remote file", err, extra)
	}
	run.advance(FileRemoteAdded)

	if err := r.deps.Destination.ShareRemote(ctx, mapping.Channel, externalID, remoteID); err != nil {
		run.advance(FileFailed)
		// The remote file stays registered but unshared.
		extra["remote_file_id"] = remoteID
		return r.fail(ctx, eventFileShared, "files.remote.share",
			fmt.Sprintf("could not share remote file %s", remoteID), err, extra)
	}
	run.advance(FileRemoteShared)
	run.advance(FileForwarded)

	zerolog.Ctx(ctx).Debug().
		Str("remote_file_id", remoteID).
		Str("shared_by", name).
		Msg("Relayed remote file")
	return forwarded(eventFileShared)
}

// RemoteFileURL builds the external URL of a remote file reference from the
// file base URL, the source file ID and the file name.
func RemoteFileURL(base, fileID, fileName string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(fileID) + "/" + url.PathEscape(fileName)
}
