package service

import (
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/mock"
	"github.com/instill-ai/recording-backend/pkg/types"
	"github.com/instill-ai/recording-backend/pkg/zoom"
)

func TestService_DeleteSourceRecording(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	s, deps := newTestService(c, config.IngestConfig{})
	c.Assert(s.DeleteSourceRecording(ctx, mock.FolioMeetingUUID), qt.IsNil)
	c.Check(deps.zoom.Deleted(), qt.DeepEquals, []string{mock.FolioMeetingUUID})

	deps.zoom.DeleteErr = errors.New("forbidden")
	c.Check(s.DeleteSourceRecording(ctx, mock.FolioMeetingUUID), qt.ErrorMatches, "deleting source recording: forbidden")
}

func TestService_ListRecentRecordings(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	s, deps := newTestService(c, config.IngestConfig{})
	folio := mock.FolioEvent("https://zoom.example/rec").Payload.Object
	other := types.MeetingObject{UUID: "4444AAAiAAAAAiAiAiiAii==", HostID: "u2", Duration: 30}

	deps.zoom.Users = []zoom.User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}
	deps.zoom.Recordings = map[string][]types.MeetingObject{
		"u1": {folio},
		// Co-hosted meetings show up under both users.
		"u2": {other, folio},
	}

	to := time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC)
	events, err := s.ListRecentRecordings(ctx, to.AddDate(0, -1, 0), to)
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 2)

	c.Check(events[0].Payload.Object.UUID, qt.Equals, mock.FolioMeetingUUID)
	c.Check(events[1].Payload.Object.UUID, qt.Equals, other.UUID)
	for _, e := range events {
		c.Check(e.Event, qt.Equals, "recording.completed")
		c.Check(e.DownloadToken, qt.Equals, "api-token")
	}

	c.Run("listing failure", func(c *qt.C) {
		deps.zoom.ListErr = errors.New("rate limited")
		c.Cleanup(func() { deps.zoom.ListErr = nil })

		_, err := s.ListRecentRecordings(ctx, to.AddDate(0, -1, 0), to)
		c.Check(err, qt.ErrorMatches, "listing users: rate limited")
	})
}
