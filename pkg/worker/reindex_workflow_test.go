package worker

import (
	"context"
	"testing"

	"go.temporal.io/sdk/testsuite"

	qt "github.com/frankban/quicktest"

	"github.com/instill-ai/recording-backend/pkg/mock"
	"github.com/instill-ai/recording-backend/pkg/service"
	"github.com/instill-ai/recording-backend/pkg/types"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

func folioDocument() *types.RecordingDocument {
	return &types.RecordingDocument{
		RecordingID:   mock.FolioRecordingID,
		RecordingPath: mock.FolioRecordingPath,
		MeetingUUID:   mock.FolioMeetingUUID,
		Organization:  "FOLIO",
		MeetingID:     mock.FolioMeetingID,
		MeetingTopic:  mock.FolioTopic,
		StartTime:     mock.FolioStartTime,
		EndTime:       mock.FolioEndTime,
		Files: []types.FileTransferReceipt{{
			Key:           mock.FolioVideoKey,
			RecordingType: "shared_screen_with_speaker_view",
			Location:      "s3://recordings/" + mock.FolioVideoKey + ".mp4",
			ETag:          "0f343b0931126a20f133d67c2b018a3b",
			Size:          1024,
			MIMEType:      "video/mp4",
		}},
	}
}

func newReindexEnv(w *Worker) *testsuite.TestWorkflowEnvironment {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	env.RegisterActivity(w.LoadDocumentActivity)
	env.RegisterActivity(w.PersistDocumentActivity)
	env.RegisterActivity(w.NotifyDocumentActivity)
	env.RegisterWorkflow(w.ReindexRecordingWorkflow)

	return env
}

func TestReindexRecordingWorkflow(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	w, deps := newTestWorker(c)

	// Only the blob survived, e.g. after a record store restore.
	doc := folioDocument()
	_, err := deps.service.Repository().SaveRecordingDocumentBlob(ctx, doc)
	c.Assert(err, qt.IsNil)

	env := newReindexEnv(w)
	env.ExecuteWorkflow(w.ReindexRecordingWorkflow, service.ReindexRecordingWorkflowParam{
		RecordingID: mock.FolioRecordingID,
	})

	c.Assert(env.IsWorkflowCompleted(), qt.IsTrue)
	c.Assert(env.GetWorkflowError(), qt.IsNil)

	var result ReindexRecordingWorkflowResult
	c.Assert(env.GetWorkflowResult(&result), qt.IsNil)
	c.Check(result, qt.DeepEquals, ReindexRecordingWorkflowResult{
		RecordingID:   mock.FolioRecordingID,
		RecordingPath: mock.FolioRecordingPath,
		Notified:      true,
	})

	stored, err := deps.service.GetDocument(ctx, mock.FolioRecordingID)
	c.Assert(err, qt.IsNil)
	c.Check(stored, qt.DeepEquals, doc)

	notified := deps.dispatcher.Notified()
	c.Assert(notified, qt.HasLen, 1)
	c.Check(notified[0], qt.DeepEquals, doc)
}

func TestReindexRecordingWorkflow_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		setup   func(*qt.C, *testDeps)
		wantErr string
	}{
		{
			name:    "not archived",
			setup:   func(*qt.C, *testDeps) {},
			wantErr: `(?s).*The recording has not been archived.*`,
		},
		{
			name: "missing required fields",
			setup: func(c *qt.C, deps *testDeps) {
				doc := folioDocument()
				doc.RecordingPath = ""
				_, err := deps.service.Repository().SaveRecordingDocumentBlob(context.Background(), doc)
				c.Assert(err, qt.IsNil)
			},
			wantErr: `(?s).*The stored recording document is invalid.*`,
		},
	}

	c := qt.New(t)
	for _, tc := range testCases {
		c.Run(tc.name, func(c *qt.C) {
			w, deps := newTestWorker(c)
			tc.setup(c, deps)

			env := newReindexEnv(w)
			env.ExecuteWorkflow(w.ReindexRecordingWorkflow, service.ReindexRecordingWorkflowParam{
				RecordingID: mock.FolioRecordingID,
			})

			c.Assert(env.IsWorkflowCompleted(), qt.IsTrue)
			c.Check(env.GetWorkflowError(), qt.ErrorMatches, tc.wantErr)
			c.Check(deps.dispatcher.Calls(), qt.Equals, 0)

			_, err := deps.service.GetDocument(context.Background(), mock.FolioRecordingID)
			c.Check(err, qt.ErrorIs, errdomain.ErrNotFound)
		})
	}
}
