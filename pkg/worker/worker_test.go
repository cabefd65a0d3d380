package worker

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	qt "github.com/frankban/quicktest"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/mock"
	"github.com/instill-ai/recording-backend/pkg/repository"
	"github.com/instill-ai/recording-backend/pkg/service"
	"github.com/instill-ai/recording-backend/pkg/transfer"
)

var fastTransfers = config.TransferConfig{
	MaxAttempts:    4,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     2 * time.Millisecond,
}

type testDeps struct {
	storage    *mock.StorageMock
	zoom       *mock.MetadataSourceMock
	dispatcher *mock.DispatcherMock
	service    service.Service
}

// newTestWorker wires a worker over the real service with in-memory
// collaborators. Files are downloaded from the given servers for real.
func newTestWorker(c *qt.C) (*Worker, *testDeps) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	c.Assert(err, qt.IsNil)
	sqlDB, err := db.DB()
	c.Assert(err, qt.IsNil)
	sqlDB.SetMaxOpenConns(1)
	c.Assert(db.AutoMigrate(&repository.RecordingDocumentModel{}), qt.IsNil)

	deps := &testDeps{
		storage:    mock.NewStorageMock(),
		zoom:       mock.NewFolioMetadataSource(),
		dispatcher: &mock.DispatcherMock{},
	}

	svc, err := service.NewService(
		repository.NewRepository(db, deps.storage),
		deps.zoom,
		transfer.NewWorker(deps.storage, fastTransfers, zap.NewNop()),
		deps.dispatcher,
		config.IngestConfig{MinimumDurationMinutes: 2},
		nil, nil, nil,
		zap.NewNop(),
	)
	c.Assert(err, qt.IsNil)
	deps.service = svc

	w, err := New(Config{Service: svc}, zap.NewNop())
	c.Assert(err, qt.IsNil)

	return w, deps
}

// fileServer serves fixed bodies by path and counts requests. Paths listed
// in broken always answer 502.
type fileServer struct {
	*httptest.Server

	mu     sync.Mutex
	hits   map[string]int
	broken map[string]bool
}

func newFileServer(c *qt.C, bodies map[string]string, broken ...string) *fileServer {
	fs := &fileServer{hits: map[string]int{}, broken: map[string]bool{}}
	for _, p := range broken {
		fs.broken[p] = true
	}

	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.hits[r.URL.Path]++
		isBroken := fs.broken[r.URL.Path]
		fs.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+mock.FolioDownloadToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if isBroken {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		fmt.Fprint(w, body)
	}))
	c.Cleanup(fs.Close)

	return fs
}

func (fs *fileServer) Hits(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[path]
}

func folioBodies() map[string]string {
	return map[string]string{
		"/video": strings.Repeat("v", 1024),
		"/chat":  strings.Repeat("c", 64),
	}
}

func TestNew_SweepLookback(t *testing.T) {
	c := qt.New(t)

	w, err := New(Config{}, nil)
	c.Assert(err, qt.IsNil)
	c.Check(w.sweepLookbackDays, qt.Equals, defaultSweepLookbackDays)

	w, err = New(Config{SweepLookbackDays: 7}, nil)
	c.Assert(err, qt.IsNil)
	c.Check(w.sweepLookbackDays, qt.Equals, 7)
}
