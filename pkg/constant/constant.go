package constant

const (
	_  = iota
	KB = 1 << (10 * iota)
	MB
	GB
	TB
)

// Object names stored under each recording's prefix.
const (
	RecordingDocumentObject = "recording_document.json"
	RecordingEventObject    = "recording.json"
	PastMeetingObject       = "past_meeting.json"
	MeetingObject           = "meeting.json"
	// MetadataObjectSuffix is appended to a file's object key for its
	// auxiliary transfer record.
	MetadataObjectSuffix = ".metadata.json"
)

// OrganizationTagKey is the object tag used by storage lifecycle rules.
const OrganizationTagKey = "organization"

// Zoom webhook event types.
const (
	EventRecordingCompleted    = "recording.completed"
	EventEndpointURLValidation = "endpoint.url_validation"
)

// NotificationTypeRecordingArchived is the envelope type sent downstream.
const NotificationTypeRecordingArchived = "recording.archived"
