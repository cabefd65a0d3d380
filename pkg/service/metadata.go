package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/pkg/constant"
	"github.com/instill-ai/recording-backend/pkg/recordingpath"
	"github.com/instill-ai/recording-backend/pkg/repository/object"
	"github.com/instill-ai/recording-backend/pkg/types"
	"github.com/instill-ai/recording-backend/pkg/zoom"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
	errorsx "github.com/instill-ai/x/errors"
)

// FileClass is the storage classification of a declared file type.
type FileClass struct {
	MIMEType  string
	Extension string
}

var fileClasses = map[string]FileClass{
	"MP4":        {MIMEType: "video/mp4", Extension: "mp4"},
	"M4A":        {MIMEType: "audio/m4a", Extension: "m4a"},
	"TRANSCRIPT": {MIMEType: "text/vtt", Extension: "vtt"},
	"CC":         {MIMEType: "text/vtt", Extension: "vtt"},
	"CHAT":       {MIMEType: "text/plain", Extension: "txt"},
	"TIMELINE":   {MIMEType: "application/json", Extension: "json"},
	"CSV":        {MIMEType: "text/csv", Extension: "csv"},
}

// defaultFileClass is used for unrecognized types. It has no extension.
var defaultFileClass = FileClass{MIMEType: "application/octet-stream"}

// ClassifyFile maps a declared file type to its MIME type and extension.
func ClassifyFile(fileType string) FileClass {
	if class, ok := fileClasses[strings.ToUpper(strings.TrimSpace(fileType))]; ok {
		return class
	}
	return defaultFileClass
}

// FetchRunMetadata reads the recorded session and its parent meeting from the
// platform and turns the event's file list into transfer tasks. Any upstream
// failure aborts the run before a single file is transferred.
func (s *service) FetchRunMetadata(ctx context.Context, recordingID string, event *types.RecordingEvent) (*types.RecordingRun, error) {
	log := s.log.With(zap.String("recording_id", recordingID))
	meeting := event.Payload.Object

	past, err := s.zoom.GetPastMeeting(ctx, meeting.UUID)
	if err != nil {
		log.Error("Failed to retrieve past meeting details", zap.Error(err))
		return nil, upstreamError("past meeting", err)
	}

	parent, err := s.zoom.GetMeeting(ctx, past.ID)
	if err != nil {
		log.Error("Failed to retrieve parent meeting details", zap.Error(err))
		return nil, upstreamError("parent meeting", err)
	}

	organization := recordingpath.ParseOrganization(parent.Topic)
	path, err := recordingpath.DerivePath(organization, parent.Topic, past.StartTime, s.archiveLoc)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving recording path: %w", errdomain.ErrUpstreamMetadata, err)
	}

	if err := s.storeSnapshots(ctx, recordingID, organization, event, past, parent); err != nil {
		log.Error("Failed to store metadata snapshots", zap.Error(err))
		return nil, err
	}

	run := &types.RecordingRun{
		RecordingID:       recordingID,
		RecordingPath:     path,
		MeetingUUID:       meeting.UUID,
		ParentMeetingUUID: parent.UUID,
		Organization:      organization,
		MeetingID:         parent.ID,
		MeetingTopic:      parent.Topic,
		StartTime:         past.StartTime,
		EndTime:           past.EndTime,
		Password:          parent.Password,
		HostID:            parent.HostID,
		Files:             BuildTransferTasks(recordingID, organization, event),
	}

	log.Info("Recording metadata fetched",
		zap.String("organization", organization),
		zap.String("recording_path", path),
		zap.Int("files", len(run.Files)))

	return run, nil
}

// BuildTransferTasks creates one task per declared file, in declaration
// order. The logical key is {recording_id}/{recording_type}; repeated
// recording types in one run are suffixed -2, -3 and so on.
func BuildTransferTasks(recordingID, organization string, event *types.RecordingEvent) []types.FileTransferTask {
	files := event.Payload.Object.RecordingFiles
	tasks := make([]types.FileTransferTask, 0, len(files))
	seen := make(map[string]int, len(files))

	for _, f := range files {
		recordingType := f.RecordingType
		if recordingType == "" {
			recordingType = strings.ToLower(f.FileType)
		}

		seen[recordingType]++
		key := recordingID + "/" + recordingType
		if n := seen[recordingType]; n > 1 {
			key += "-" + strconv.Itoa(n)
		}

		class := ClassifyFile(f.FileType)
		tasks = append(tasks, types.FileTransferTask{
			RecordingID:    recordingID,
			RecordingType:  recordingType,
			FileType:       f.FileType,
			MIMEType:       class.MIMEType,
			Extension:      class.Extension,
			SourceFileID:   f.ID,
			DownloadURL:    f.DownloadURL,
			DownloadToken:  event.DownloadToken,
			DeclaredSize:   f.FileSize,
			Key:            key,
			Organization:   organization,
			RecordingStart: f.RecordingStart,
			RecordingEnd:   f.RecordingEnd,
		})
	}

	return tasks
}

// storeSnapshots keeps the raw inputs of the run next to its files. The
// event is stored without its download credential.
func (s *service) storeSnapshots(ctx context.Context, recordingID, organization string, event *types.RecordingEvent, past *zoom.PastMeeting, parent *zoom.Meeting) error {
	storage := s.repository.ObjectStorage()
	tags := map[string]string{constant.OrganizationTagKey: strings.ToLower(organization)}

	redacted := *event
	redacted.DownloadToken = ""
	if _, err := object.PutJSON(ctx, storage, recordingID+"/"+constant.RecordingEventObject, redacted, tags); err != nil {
		return fmt.Errorf("storing recording event: %w", err)
	}

	snapshots := []struct {
		name  string
		raw   json.RawMessage
		value any
	}{
		{name: constant.PastMeetingObject, raw: past.Raw, value: past},
		{name: constant.MeetingObject, raw: parent.Raw, value: parent},
	}
	for _, snap := range snapshots {
		key := recordingID + "/" + snap.name
		if len(snap.raw) == 0 {
			if _, err := object.PutJSON(ctx, storage, key, snap.value, tags); err != nil {
				return fmt.Errorf("storing %s: %w", snap.name, err)
			}
			continue
		}

		if _, err := storage.PutObject(ctx, key, bytes.NewReader(snap.raw), int64(len(snap.raw)), object.PutOptions{
			ContentType: "application/json",
			Tags:        tags,
		}); err != nil {
			return fmt.Errorf("storing %s: %w", snap.name, err)
		}
	}

	return nil
}

func upstreamError(what string, err error) error {
	msg := zoom.UnknownMessage
	var apiErr *zoom.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}

	err = fmt.Errorf("retrieving %s details: %w", what, err)
	if !errors.Is(err, errdomain.ErrUpstreamMetadata) {
		err = fmt.Errorf("%w: %w", errdomain.ErrUpstreamMetadata, err)
	}

	return errorsx.AddMessage(err, "Retrieve Zoom meeting details failed: "+msg)
}
