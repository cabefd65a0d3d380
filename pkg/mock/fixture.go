package mock

import (
	"github.com/instill-ai/recording-backend/pkg/constant"
	"github.com/instill-ai/recording-backend/pkg/types"
	"github.com/instill-ai/recording-backend/pkg/zoom"
)

// Identifiers of the FOLIO steering fixture.
const (
	FolioMeetingUUID    = "0vHGoZ0eTw6MVW8/Ck9rEQ=="
	FolioRecordingID    = "d2f1c6a1-9d1e-4f0e-8c55-6f3f0a4f6b11"
	FolioParentUUID     = "parent-uuid=="
	FolioMeetingID      = int64(93812345678)
	FolioTopic          = "FOLIO Steering (FOLIO)"
	FolioStartTime      = "2023-06-01T14:01:00Z"
	FolioEndTime        = "2023-06-01T14:46:00Z"
	FolioDownloadToken  = "download-token"
	FolioRecordingPath  = "folio/steering/2023-06-01T14:00"
	FolioVideoKey       = FolioRecordingID + "/shared_screen_with_speaker_view"
	FolioChatKey        = FolioRecordingID + "/chat_file"
	FolioDurationMinute = 45
)

// FolioEvent is a 45 minute recording with one video and one chat file,
// both served under fileBaseURL.
func FolioEvent(fileBaseURL string) *types.RecordingEvent {
	return &types.RecordingEvent{
		Event:   constant.EventRecordingCompleted,
		EventTS: 1685631000000,
		Payload: types.RecordingEventPayload{
			AccountID: "account-1",
			Object: types.MeetingObject{
				UUID:      FolioMeetingUUID,
				ID:        FolioMeetingID,
				HostID:    "host-1",
				Topic:     "FOLIO Steering",
				StartTime: FolioStartTime,
				Duration:  FolioDurationMinute,
				RecordingFiles: []types.RecordingFile{
					{
						ID:             "file-video",
						FileType:       "MP4",
						FileSize:       1024,
						DownloadURL:    fileBaseURL + "/video",
						RecordingType:  "shared_screen_with_speaker_view",
						RecordingStart: FolioStartTime,
						RecordingEnd:   FolioEndTime,
					},
					{
						ID:             "file-chat",
						FileType:       "CHAT",
						FileSize:       64,
						DownloadURL:    fileBaseURL + "/chat",
						RecordingType:  "chat_file",
						RecordingStart: FolioStartTime,
						RecordingEnd:   FolioEndTime,
					},
				},
			},
		},
		DownloadToken: FolioDownloadToken,
	}
}

// NewFolioMetadataSource returns a source that knows the fixture's past and
// parent meeting.
func NewFolioMetadataSource() *MetadataSourceMock {
	m := NewMetadataSourceMock()
	m.PastMeetings[FolioMeetingUUID] = &zoom.PastMeeting{
		UUID:      FolioMeetingUUID,
		ID:        FolioMeetingID,
		HostID:    "host-1",
		Topic:     "FOLIO Steering",
		StartTime: FolioStartTime,
		EndTime:   FolioEndTime,
		Duration:  FolioDurationMinute,
	}
	m.Meetings[FolioMeetingID] = &zoom.Meeting{
		UUID:     FolioParentUUID,
		ID:       FolioMeetingID,
		HostID:   "host-1",
		Topic:    FolioTopic,
		Password: "s3cret",
	}
	return m
}
