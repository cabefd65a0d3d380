package mock

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/instill-ai/recording-backend/pkg/types"
	"github.com/instill-ai/recording-backend/pkg/zoom"
)

// MetadataSourceMock is an in-memory zoom.MetadataSource.
type MetadataSourceMock struct {
	PastMeetings map[string]*zoom.PastMeeting
	Meetings     map[int64]*zoom.Meeting
	Users        []zoom.User
	Recordings   map[string][]types.MeetingObject
	Token        string
	// ListErr is returned by ListUsers and ListRecordings when set.
	ListErr   error
	DeleteErr error

	mu      sync.Mutex
	deleted []string
}

var _ zoom.MetadataSource = (*MetadataSourceMock)(nil)

// NewMetadataSourceMock returns an empty source.
func NewMetadataSourceMock() *MetadataSourceMock {
	return &MetadataSourceMock{
		PastMeetings: map[string]*zoom.PastMeeting{},
		Meetings:     map[int64]*zoom.Meeting{},
		Recordings:   map[string][]types.MeetingObject{},
		Token:        "api-token",
	}
}

// GetPastMeeting implements zoom.MetadataSource.
func (m *MetadataSourceMock) GetPastMeeting(_ context.Context, meetingUUID string) (*zoom.PastMeeting, error) {
	pm, ok := m.PastMeetings[meetingUUID]
	if !ok {
		return nil, &zoom.APIError{
			Method:     http.MethodGet,
			Path:       "/past_meetings/" + meetingUUID,
			StatusCode: http.StatusNotFound,
			Code:       3001,
			Message:    "Meeting does not exist.",
		}
	}
	return pm, nil
}

// GetMeeting implements zoom.MetadataSource.
func (m *MetadataSourceMock) GetMeeting(_ context.Context, meetingID int64) (*zoom.Meeting, error) {
	mt, ok := m.Meetings[meetingID]
	if !ok {
		return nil, &zoom.APIError{
			Method:     http.MethodGet,
			Path:       fmt.Sprintf("/meetings/%d", meetingID),
			StatusCode: http.StatusNotFound,
			Message:    zoom.UnknownMessage,
		}
	}
	return mt, nil
}

// DeleteRecording implements zoom.MetadataSource.
func (m *MetadataSourceMock) DeleteRecording(_ context.Context, meetingUUID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, meetingUUID)
	return nil
}

// ListUsers implements zoom.MetadataSource.
func (m *MetadataSourceMock) ListUsers(context.Context) ([]zoom.User, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Users, nil
}

// ListRecordings implements zoom.MetadataSource.
func (m *MetadataSourceMock) ListRecordings(_ context.Context, userID string, _, _ time.Time) ([]types.MeetingObject, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Recordings[userID], nil
}

// AccessToken implements zoom.MetadataSource.
func (m *MetadataSourceMock) AccessToken(context.Context) (string, error) {
	return m.Token, nil
}

// Deleted lists the meeting UUIDs passed to DeleteRecording.
func (m *MetadataSourceMock) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.deleted...)
}
