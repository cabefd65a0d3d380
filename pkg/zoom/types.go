package zoom

import (
	"encoding/json"

	"github.com/instill-ai/recording-backend/pkg/types"
)

// PastMeeting is a single recorded session of a meeting.
type PastMeeting struct {
	UUID              string `json:"uuid"`
	ID                int64  `json:"id"`
	HostID            string `json:"host_id"`
	Topic             string `json:"topic"`
	Type              int    `json:"type,omitempty"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	Duration          int    `json:"duration"`
	TotalMinutes      int    `json:"total_minutes,omitempty"`
	ParticipantsCount int    `json:"participants_count,omitempty"`
	UserName          string `json:"user_name,omitempty"`
	UserEmail         string `json:"user_email,omitempty"`

	// Raw is the response body as received.
	Raw json.RawMessage `json:"-"`
}

// Meeting is the scheduled, possibly recurring, meeting a session belongs to.
type Meeting struct {
	UUID      string `json:"uuid"`
	ID        int64  `json:"id"`
	HostID    string `json:"host_id"`
	HostEmail string `json:"host_email,omitempty"`
	Topic     string `json:"topic"`
	Type      int    `json:"type,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	Agenda    string `json:"agenda,omitempty"`
	Password  string `json:"password,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// User is an account member.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email,omitempty"`
	Status string `json:"status,omitempty"`
}

type listUsersResponse struct {
	PageSize      int    `json:"page_size"`
	TotalRecords  int    `json:"total_records"`
	NextPageToken string `json:"next_page_token"`
	Users         []User `json:"users"`
}

type listRecordingsResponse struct {
	From          string                `json:"from"`
	To            string                `json:"to"`
	PageSize      int                   `json:"page_size"`
	TotalRecords  int                   `json:"total_records"`
	NextPageToken string                `json:"next_page_token"`
	Meetings      []types.MeetingObject `json:"meetings"`
}
