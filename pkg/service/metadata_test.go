package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/mock"
	"github.com/instill-ai/recording-backend/pkg/types"
	"github.com/instill-ai/recording-backend/pkg/zoom"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
	errorsx "github.com/instill-ai/x/errors"
)

func TestClassifyFile(t *testing.T) {
	c := qt.New(t)

	testcases := []struct {
		fileType string
		want     FileClass
	}{
		{"MP4", FileClass{MIMEType: "video/mp4", Extension: "mp4"}},
		{"M4A", FileClass{MIMEType: "audio/m4a", Extension: "m4a"}},
		{"TRANSCRIPT", FileClass{MIMEType: "text/vtt", Extension: "vtt"}},
		{"CC", FileClass{MIMEType: "text/vtt", Extension: "vtt"}},
		{"CHAT", FileClass{MIMEType: "text/plain", Extension: "txt"}},
		{"TIMELINE", FileClass{MIMEType: "application/json", Extension: "json"}},
		{"CSV", FileClass{MIMEType: "text/csv", Extension: "csv"}},
		{"mp4", FileClass{MIMEType: "video/mp4", Extension: "mp4"}},
		{"SUMMARY", FileClass{MIMEType: "application/octet-stream"}},
		{"", FileClass{MIMEType: "application/octet-stream"}},
	}

	for _, tc := range testcases {
		c.Check(ClassifyFile(tc.fileType), qt.Equals, tc.want, qt.Commentf("file type %q", tc.fileType))
	}
}

func TestService_FetchRunMetadata(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	s, deps := newTestService(c, config.IngestConfig{})
	event := mock.FolioEvent("https://zoom.example/rec")

	run, err := s.FetchRunMetadata(ctx, mock.FolioRecordingID, event)
	c.Assert(err, qt.IsNil)

	c.Check(run.RecordingID, qt.Equals, mock.FolioRecordingID)
	c.Check(run.RecordingPath, qt.Equals, mock.FolioRecordingPath)
	c.Check(run.Organization, qt.Equals, "FOLIO")
	c.Check(run.MeetingUUID, qt.Equals, mock.FolioMeetingUUID)
	c.Check(run.ParentMeetingUUID, qt.Equals, mock.FolioParentUUID)
	c.Check(run.MeetingTopic, qt.Equals, mock.FolioTopic)
	c.Check(run.StartTime, qt.Equals, mock.FolioStartTime)
	c.Check(run.EndTime, qt.Equals, mock.FolioEndTime)
	c.Check(run.Password, qt.Equals, "s3cret")

	c.Assert(run.Files, qt.HasLen, 2)
	c.Check(run.Files[0], qt.DeepEquals, types.FileTransferTask{
		RecordingID:    mock.FolioRecordingID,
		RecordingType:  "shared_screen_with_speaker_view",
		FileType:       "MP4",
		MIMEType:       "video/mp4",
		Extension:      "mp4",
		SourceFileID:   "file-video",
		DownloadURL:    "https://zoom.example/rec/video",
		DownloadToken:  mock.FolioDownloadToken,
		DeclaredSize:   1024,
		Key:            mock.FolioVideoKey,
		Organization:   "FOLIO",
		RecordingStart: mock.FolioStartTime,
		RecordingEnd:   mock.FolioEndTime,
	})
	c.Check(run.Files[1].Key, qt.Equals, mock.FolioChatKey)
	c.Check(run.Files[1].MIMEType, qt.Equals, "text/plain")

	c.Run("snapshots", func(c *qt.C) {
		c.Check(deps.storage.Keys(), qt.DeepEquals, []string{
			mock.FolioRecordingID + "/meeting.json",
			mock.FolioRecordingID + "/past_meeting.json",
			mock.FolioRecordingID + "/recording.json",
		})

		obj, _ := deps.storage.Object(mock.FolioRecordingID + "/recording.json")
		c.Check(string(obj.Data), qt.Not(qt.Contains), mock.FolioDownloadToken)
		c.Check(obj.Options.Tags, qt.DeepEquals, map[string]string{"organization": "folio"})

		var stored types.RecordingEvent
		c.Assert(json.Unmarshal(obj.Data, &stored), qt.IsNil)
		c.Check(stored.Payload.Object.UUID, qt.Equals, mock.FolioMeetingUUID)
	})

	c.Run("raw responses are kept as received", func(c *qt.C) {
		deps.zoom.PastMeetings[mock.FolioMeetingUUID].Raw = json.RawMessage(`{"uuid":"0vHGoZ0eTw6MVW8/Ck9rEQ==","extra":true}`)
		c.Cleanup(func() { deps.zoom.PastMeetings[mock.FolioMeetingUUID].Raw = nil })

		_, err := s.FetchRunMetadata(ctx, mock.FolioRecordingID, event)
		c.Assert(err, qt.IsNil)

		obj, _ := deps.storage.Object(mock.FolioRecordingID + "/past_meeting.json")
		c.Check(string(obj.Data), qt.Equals, `{"uuid":"0vHGoZ0eTw6MVW8/Ck9rEQ==","extra":true}`)
	})
}

func TestService_FetchRunMetadata_UpstreamFailure(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("past meeting", func(c *qt.C) {
		s, deps := newTestService(c, config.IngestConfig{})
		delete(deps.zoom.PastMeetings, mock.FolioMeetingUUID)

		_, err := s.FetchRunMetadata(ctx, mock.FolioRecordingID, mock.FolioEvent("https://zoom.example/rec"))
		c.Assert(err, qt.ErrorIs, errdomain.ErrUpstreamMetadata)
		c.Check(errorsx.MessageOrErr(err), qt.Equals, "Retrieve Zoom meeting details failed: Meeting does not exist.")
		c.Check(deps.storage.Keys(), qt.HasLen, 0)
	})

	c.Run("parent meeting without message", func(c *qt.C) {
		s, deps := newTestService(c, config.IngestConfig{})
		delete(deps.zoom.Meetings, mock.FolioMeetingID)

		_, err := s.FetchRunMetadata(ctx, mock.FolioRecordingID, mock.FolioEvent("https://zoom.example/rec"))
		c.Assert(err, qt.ErrorIs, errdomain.ErrUpstreamMetadata)
		c.Check(errorsx.MessageOrErr(err), qt.Equals, "Retrieve Zoom meeting details failed: unknown")
	})

	c.Run("unparseable start time", func(c *qt.C) {
		s, deps := newTestService(c, config.IngestConfig{})
		deps.zoom.PastMeetings[mock.FolioMeetingUUID].StartTime = "yesterday"

		_, err := s.FetchRunMetadata(ctx, mock.FolioRecordingID, mock.FolioEvent("https://zoom.example/rec"))
		c.Check(err, qt.ErrorIs, errdomain.ErrUpstreamMetadata)
	})

	c.Run("api error is kept in the chain", func(c *qt.C) {
		s, deps := newTestService(c, config.IngestConfig{})
		deps.zoom.PastMeetings = map[string]*zoom.PastMeeting{}

		_, err := s.FetchRunMetadata(ctx, mock.FolioRecordingID, mock.FolioEvent("https://zoom.example/rec"))
		var apiErr *zoom.APIError
		c.Assert(err, qt.ErrorAs, &apiErr)
		c.Check(apiErr.StatusCode, qt.Equals, http.StatusNotFound)
	})
}

func TestBuildTransferTasks_DuplicateTypes(t *testing.T) {
	c := qt.New(t)

	event := mock.FolioEvent("https://zoom.example/rec")
	files := event.Payload.Object.RecordingFiles
	event.Payload.Object.RecordingFiles = append(files,
		types.RecordingFile{FileType: "MP4", DownloadURL: "https://zoom.example/rec/video2", RecordingType: "shared_screen_with_speaker_view"},
		types.RecordingFile{FileType: "MP4", DownloadURL: "https://zoom.example/rec/video3", RecordingType: "shared_screen_with_speaker_view"},
		types.RecordingFile{FileType: "TIMELINE", DownloadURL: "https://zoom.example/rec/timeline"},
	)

	tasks := BuildTransferTasks(mock.FolioRecordingID, "FOLIO", event)

	keys := make([]string, 0, len(tasks))
	for _, task := range tasks {
		keys = append(keys, task.Key)
	}
	c.Check(keys, qt.DeepEquals, []string{
		mock.FolioVideoKey,
		mock.FolioChatKey,
		mock.FolioVideoKey + "-2",
		mock.FolioVideoKey + "-3",
		mock.FolioRecordingID + "/timeline",
	})
	c.Check(tasks[4].ObjectName(), qt.Equals, mock.FolioRecordingID+"/timeline.json")
}
