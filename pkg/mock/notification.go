package mock

import (
	"context"
	"sync"

	"github.com/instill-ai/recording-backend/pkg/notification"
	"github.com/instill-ai/recording-backend/pkg/types"
)

// DispatcherMock records notified documents.
type DispatcherMock struct {
	Err error

	mu       sync.Mutex
	notified []*types.RecordingDocument
	calls    int
}

var _ notification.Dispatcher = (*DispatcherMock)(nil)

// Notify implements notification.Dispatcher.
func (d *DispatcherMock) Notify(_ context.Context, doc *types.RecordingDocument) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if d.Err != nil {
		return d.Err
	}
	d.notified = append(d.notified, doc)
	return nil
}

// Notified returns the documents delivered so far.
func (d *DispatcherMock) Notified() []*types.RecordingDocument {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]*types.RecordingDocument(nil), d.notified...)
}

// Calls returns how many times Notify was called.
func (d *DispatcherMock) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.calls
}
