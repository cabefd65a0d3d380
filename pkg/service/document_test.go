package service

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/mock"
	"github.com/instill-ai/recording-backend/pkg/repository"
	"github.com/instill-ai/recording-backend/pkg/repository/object"
	"github.com/instill-ai/recording-backend/pkg/types"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

func testRun() *types.RecordingRun {
	return &types.RecordingRun{
		RecordingID:       mock.FolioRecordingID,
		RecordingPath:     mock.FolioRecordingPath,
		MeetingUUID:       mock.FolioMeetingUUID,
		ParentMeetingUUID: mock.FolioParentUUID,
		Organization:      "FOLIO",
		MeetingID:         mock.FolioMeetingID,
		MeetingTopic:      mock.FolioTopic,
		StartTime:         mock.FolioStartTime,
		EndTime:           mock.FolioEndTime,
		HostID:            "host-1",
		Files: []types.FileTransferTask{
			{Key: mock.FolioVideoKey, RecordingType: "shared_screen_with_speaker_view"},
			{Key: mock.FolioChatKey, RecordingType: "chat_file"},
		},
	}
}

func receipt(key string) types.FileTransferReceipt {
	return types.FileTransferReceipt{
		Key:      key,
		Location: object.Location("recordings", key),
		ETag:     "etag",
		Size:     10,
	}
}

func TestAssembleDocument(t *testing.T) {
	c := qt.New(t)

	c.Run("receipts follow task order", func(c *qt.C) {
		doc, err := AssembleDocument(testRun(), []types.FileTransferReceipt{
			receipt(mock.FolioChatKey),
			receipt(mock.FolioVideoKey),
		})
		c.Assert(err, qt.IsNil)
		c.Check(doc.RecordingPath, qt.Equals, mock.FolioRecordingPath)
		c.Assert(doc.Files, qt.HasLen, 2)
		c.Check(doc.Files[0].Key, qt.Equals, mock.FolioVideoKey)
		c.Check(doc.Files[1].Key, qt.Equals, mock.FolioChatKey)
	})

	testcases := []struct {
		name     string
		receipts []types.FileTransferReceipt
	}{
		{
			name:     "missing receipt",
			receipts: []types.FileTransferReceipt{receipt(mock.FolioVideoKey)},
		},
		{
			name: "extra receipt",
			receipts: []types.FileTransferReceipt{
				receipt(mock.FolioVideoKey),
				receipt(mock.FolioChatKey),
				receipt(mock.FolioChatKey + "-2"),
			},
		},
		{
			name: "duplicate receipt",
			receipts: []types.FileTransferReceipt{
				receipt(mock.FolioVideoKey),
				receipt(mock.FolioVideoKey),
			},
		},
		{
			name: "unknown key",
			receipts: []types.FileTransferReceipt{
				receipt(mock.FolioVideoKey),
				receipt(mock.FolioRecordingID + "/audio_only"),
			},
		},
		{
			name: "receipt without fingerprint",
			receipts: []types.FileTransferReceipt{
				receipt(mock.FolioVideoKey),
				{Key: mock.FolioChatKey, Location: "s3://recordings/x"},
			},
		},
	}

	for _, tc := range testcases {
		c.Run(tc.name, func(c *qt.C) {
			doc, err := AssembleDocument(testRun(), tc.receipts)
			c.Check(err, qt.ErrorIs, errdomain.ErrAssemblyInvariant)
			c.Check(doc, qt.IsNil)
		})
	}
}

func TestService_PersistDocument_Idempotent(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	s, deps := newTestService(c, config.IngestConfig{})
	doc, err := AssembleDocument(testRun(), []types.FileTransferReceipt{
		receipt(mock.FolioVideoKey),
		receipt(mock.FolioChatKey),
	})
	c.Assert(err, qt.IsNil)

	c.Assert(s.PersistDocument(ctx, doc), qt.IsNil)
	first, _ := deps.storage.Object(repository.RecordingDocumentObjectKey(doc.RecordingID))

	c.Assert(s.PersistDocument(ctx, doc), qt.IsNil)
	second, _ := deps.storage.Object(repository.RecordingDocumentObjectKey(doc.RecordingID))

	c.Check(second.Data, qt.DeepEquals, first.Data)
	c.Check(deps.storage.Keys(), qt.DeepEquals, []string{repository.RecordingDocumentObjectKey(doc.RecordingID)})

	got, err := s.GetDocument(ctx, doc.RecordingID)
	c.Assert(err, qt.IsNil)
	c.Check(got, qt.DeepEquals, doc)

	loaded, err := s.LoadDocument(ctx, doc.RecordingID)
	c.Assert(err, qt.IsNil)
	c.Check(loaded, qt.DeepEquals, doc)
}

func TestService_PersistDocument_BlobFailure(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	s, deps := newTestService(c, config.IngestConfig{})
	doc, err := AssembleDocument(testRun(), []types.FileTransferReceipt{
		receipt(mock.FolioVideoKey),
		receipt(mock.FolioChatKey),
	})
	c.Assert(err, qt.IsNil)

	deps.storage.PutErr[repository.RecordingDocumentObjectKey(doc.RecordingID)] = errors.New("bucket unavailable")

	c.Check(s.PersistDocument(ctx, doc), qt.ErrorMatches, "storing recording document: bucket unavailable")

	_, err = s.GetDocument(ctx, doc.RecordingID)
	c.Check(err, qt.ErrorIs, errdomain.ErrNotFound)
}

func TestService_LoadDocument(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("absent", func(c *qt.C) {
		s, _ := newTestService(c, config.IngestConfig{})
		_, err := s.LoadDocument(ctx, mock.FolioRecordingID)
		c.Check(err, qt.ErrorIs, errdomain.ErrNotFound)
	})

	c.Run("missing required field", func(c *qt.C) {
		s, deps := newTestService(c, config.IngestConfig{})
		doc := &types.RecordingDocument{
			RecordingID:   mock.FolioRecordingID,
			RecordingPath: mock.FolioRecordingPath,
			Organization:  "FOLIO",
			StartTime:     mock.FolioStartTime,
			Files:         []types.FileTransferReceipt{receipt(mock.FolioVideoKey)},
		}
		_, err := object.PutJSON(ctx, deps.storage, repository.RecordingDocumentObjectKey(doc.RecordingID), doc, nil)
		c.Assert(err, qt.IsNil)

		_, err = s.LoadDocument(ctx, doc.RecordingID)
		c.Check(err, qt.ErrorIs, errdomain.ErrMalformedInput)
		c.Check(err, qt.ErrorMatches, ".*MeetingTopic.*")
	})

	c.Run("document of another recording", func(c *qt.C) {
		s, deps := newTestService(c, config.IngestConfig{})
		doc, err := AssembleDocument(testRun(), []types.FileTransferReceipt{
			receipt(mock.FolioVideoKey),
			receipt(mock.FolioChatKey),
		})
		c.Assert(err, qt.IsNil)
		_, err = object.PutJSON(ctx, deps.storage, repository.RecordingDocumentObjectKey("other"), doc, nil)
		c.Assert(err, qt.IsNil)

		_, err = s.LoadDocument(ctx, "other")
		c.Check(err, qt.ErrorIs, errdomain.ErrMalformedInput)
	})
}

func TestService_NotifyDocument(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	s, deps := newTestService(c, config.IngestConfig{})
	doc := &types.RecordingDocument{RecordingID: mock.FolioRecordingID}

	c.Assert(s.NotifyDocument(ctx, doc), qt.IsNil)
	c.Check(deps.dispatcher.Notified(), qt.DeepEquals, []*types.RecordingDocument{doc})

	deps.dispatcher.Err = errdomain.ErrNotification
	c.Check(s.NotifyDocument(ctx, doc), qt.ErrorIs, errdomain.ErrNotification)
	c.Check(deps.dispatcher.Calls(), qt.Equals, 2)
}
