package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	qt "github.com/frankban/quicktest"
)

func TestNewCore_Levels(t *testing.T) {
	c := qt.New(t)

	prod := newCore(false)
	c.Check(prod.Enabled(zapcore.DebugLevel), qt.IsFalse)
	c.Check(prod.Enabled(zapcore.InfoLevel), qt.IsTrue)
	c.Check(prod.Enabled(zapcore.ErrorLevel), qt.IsTrue)

	debug := newCore(true)
	c.Check(debug.Enabled(zapcore.DebugLevel), qt.IsTrue)
}

func TestTemporalLogger(t *testing.T) {
	c := qt.New(t)

	obs, logs := observer.New(zapcore.DebugLevel)
	l := NewTemporalLogger(zap.New(obs))

	l.Info("Starting IngestRecordingWorkflow", "recordingID", "d2f1c6a1", "files", 2)
	l.With("workflowID", "ingest-recording-d2f1c6a1").Warn("Failed to delete source recording")

	entries := logs.AllUntimed()
	c.Assert(entries, qt.HasLen, 2)

	c.Check(entries[0].Level, qt.Equals, zapcore.InfoLevel)
	c.Check(entries[0].ContextMap(), qt.DeepEquals, map[string]any{
		"recordingID": "d2f1c6a1",
		"files":       int64(2),
	})

	c.Check(entries[1].Level, qt.Equals, zapcore.WarnLevel)
	c.Check(entries[1].ContextMap()["workflowID"], qt.Equals, "ingest-recording-d2f1c6a1")
}
