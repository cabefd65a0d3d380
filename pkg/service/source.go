package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/instill-ai/recording-backend/pkg/constant"
	"github.com/instill-ai/recording-backend/pkg/types"
)

const listRecordingsConcurrency = 4

// DeleteSourceRecording moves the session's cloud recording to trash on the
// platform.
func (s *service) DeleteSourceRecording(ctx context.Context, meetingUUID string) error {
	if err := s.zoom.DeleteRecording(ctx, meetingUUID); err != nil {
		return fmt.Errorf("deleting source recording: %w", err)
	}
	return nil
}

// ListRecentRecordings rebuilds recording events for every cloud recording
// of every active user between from and to. The API access token stands in
// for the per-delivery download token.
func (s *service) ListRecentRecordings(ctx context.Context, from, to time.Time) ([]types.RecordingEvent, error) {
	users, err := s.zoom.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	token, err := s.zoom.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	perUser := make([][]types.MeetingObject, len(users))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listRecordingsConcurrency)
	for i, u := range users {
		g.Go(func() error {
			meetings, err := s.zoom.ListRecordings(gctx, u.ID, from, to)
			if err != nil {
				return fmt.Errorf("listing recordings of user %s: %w", u.ID, err)
			}
			mu.Lock()
			perUser[i] = meetings
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var events []types.RecordingEvent
	seen := map[string]bool{}
	for _, meetings := range perUser {
		for _, m := range meetings {
			if seen[m.UUID] {
				continue
			}
			seen[m.UUID] = true
			events = append(events, types.RecordingEvent{
				Event:         constant.EventRecordingCompleted,
				Payload:       types.RecordingEventPayload{AccountID: m.AccountID, Object: m},
				DownloadToken: token,
			})
		}
	}

	s.log.Info("Listed recent recordings",
		zap.Int("users", len(users)),
		zap.Int("recordings", len(events)),
		zap.Time("from", from),
		zap.Time("to", to))

	return events, nil
}
