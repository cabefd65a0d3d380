package types

// RecordingEvent is the validated form of a recording.completed webhook
// delivery. It only lives during admission and is then handed to the ingest
// workflow as its input.
type RecordingEvent struct {
	Event         string                `json:"event" validate:"required"`
	EventTS       int64                 `json:"event_ts,omitempty"`
	Payload       RecordingEventPayload `json:"payload"`
	DownloadToken string                `json:"download_token,omitempty"`
}

// RecordingEventPayload wraps the meeting object.
type RecordingEventPayload struct {
	AccountID string        `json:"account_id,omitempty"`
	Object    MeetingObject `json:"object"`
}

// MeetingObject is the recorded meeting as reported by the platform.
type MeetingObject struct {
	UUID           string          `json:"uuid" validate:"required"`
	ID             int64           `json:"id"`
	AccountID      string          `json:"account_id,omitempty"`
	HostID         string          `json:"host_id" validate:"required"`
	Topic          string          `json:"topic"`
	Type           int             `json:"type,omitempty"`
	StartTime      string          `json:"start_time,omitempty"`
	EndTime        string          `json:"end_time,omitempty"`
	Timezone       string          `json:"timezone,omitempty"`
	Duration       int             `json:"duration" validate:"min=0"`
	TotalSize      int64           `json:"total_size,omitempty"`
	RecordingCount int             `json:"recording_count,omitempty"`
	ShareURL       string          `json:"share_url,omitempty"`
	RecordingFiles []RecordingFile `json:"recording_files" validate:"dive"`
}

// RecordingFile is one file declared by a recording event.
type RecordingFile struct {
	ID             string `json:"id,omitempty"`
	MeetingID      string `json:"meeting_id,omitempty"`
	RecordingStart string `json:"recording_start,omitempty"`
	RecordingEnd   string `json:"recording_end,omitempty"`
	FileType       string `json:"file_type" validate:"required"`
	FileExtension  string `json:"file_extension,omitempty"`
	FileSize       int64  `json:"file_size,omitempty"`
	DownloadURL    string `json:"download_url" validate:"required,url"`
	Status         string `json:"status,omitempty"`
	RecordingType  string `json:"recording_type"`
}

// RecordingRun is the unit of work for one recording. It is built once the
// platform metadata has been fetched and is read-only afterwards.
type RecordingRun struct {
	RecordingID       string             `json:"recording_id"`
	RecordingPath     string             `json:"recording_path"`
	MeetingUUID       string             `json:"meeting_uuid"`
	ParentMeetingUUID string             `json:"parent_meeting_uuid"`
	Organization      string             `json:"organization"`
	MeetingID         int64              `json:"meeting_id"`
	MeetingTopic      string             `json:"meeting_topic"`
	StartTime         string             `json:"start_time"`
	EndTime           string             `json:"end_time"`
	Password          string             `json:"password,omitempty"`
	HostID            string             `json:"host_id"`
	Files             []FileTransferTask `json:"files"`
}

// FileTransferTask is one file to copy into durable storage.
type FileTransferTask struct {
	RecordingID    string `json:"recording_id"`
	RecordingType  string `json:"recording_type"`
	FileType       string `json:"file_type"`
	MIMEType       string `json:"mime_type"`
	Extension      string `json:"extension,omitempty"`
	SourceFileID   string `json:"source_file_id,omitempty"`
	DownloadURL    string `json:"download_url"`
	DownloadToken  string `json:"download_token,omitempty"`
	DeclaredSize   int64  `json:"declared_size"`
	Key            string `json:"key"`
	Organization   string `json:"organization"`
	RecordingStart string `json:"recording_start,omitempty"`
	RecordingEnd   string `json:"recording_end,omitempty"`
}

// ObjectName is the stored name of the task's payload.
func (t FileTransferTask) ObjectName() string {
	if t.Extension == "" {
		return t.Key
	}
	return t.Key + "." + t.Extension
}

// Redacted returns a copy without the download credential.
func (t FileTransferTask) Redacted() FileTransferTask {
	t.DownloadToken = ""
	return t
}

// FileTransferReceipt is the proof that a task's file was stored.
type FileTransferReceipt struct {
	Key            string `json:"key"`
	RecordingType  string `json:"recording_type"`
	Location       string `json:"location"`
	ETag           string `json:"etag"`
	Size           int64  `json:"size"`
	SourceFileSize int64  `json:"source_file_size"`
	MIMEType       string `json:"mime_type"`
}

// RecordingDocument is the canonical archived description of a run.
type RecordingDocument struct {
	RecordingID       string                `json:"recording_id" validate:"required"`
	RecordingPath     string                `json:"recording_path" validate:"required"`
	MeetingUUID       string                `json:"meeting_uuid"`
	ParentMeetingUUID string                `json:"parent_meeting_uuid"`
	Organization      string                `json:"organization" validate:"required"`
	MeetingID         int64                 `json:"meeting_id"`
	MeetingTopic      string                `json:"meeting_topic" validate:"required"`
	StartTime         string                `json:"start_time" validate:"required"`
	EndTime           string                `json:"end_time"`
	Password          string                `json:"password,omitempty"`
	HostID            string                `json:"host_id"`
	Files             []FileTransferReceipt `json:"files" validate:"required,dive"`
}
