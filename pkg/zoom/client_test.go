package zoom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

func newTestClient(c *qt.C, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	c.Cleanup(srv.Close)

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	return New(srv.URL+"/v2", tokens, 5*time.Second, zap.NewNop())
}

func TestClient_GetPastMeeting(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	var gotPath, gotAuth string
	client := newTestClient(c, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"uuid":"/abc//def==","id":123456789,"host_id":"host-1","topic":"FOLIO Steering (FOLIO)","start_time":"2023-06-01T14:01:00Z","end_time":"2023-06-01T14:46:00Z","duration":45}`)
	})

	m, err := client.GetPastMeeting(ctx, "/abc//def==")
	c.Assert(err, qt.IsNil)
	c.Check(gotAuth, qt.Equals, "Bearer test-token")
	c.Check(gotPath, qt.Equals, "/v2/past_meetings/%252Fabc%252F%252Fdef==")
	c.Check(m.ID, qt.Equals, int64(123456789))
	c.Check(m.EndTime, qt.Equals, "2023-06-01T14:46:00Z")
	c.Check(string(m.Raw), qt.Contains, `"host_id":"host-1"`)
}

func TestClient_GetMeeting_Error(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("message propagated", func(c *qt.C) {
		client := newTestClient(c, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"code":3001,"message":"Meeting does not exist: 42."}`)
		})

		_, err := client.GetMeeting(ctx, 42)
		c.Assert(err, qt.ErrorIs, errdomain.ErrUpstreamMetadata)

		var apiErr *APIError
		c.Assert(errors.As(err, &apiErr), qt.IsTrue)
		c.Check(apiErr.StatusCode, qt.Equals, http.StatusNotFound)
		c.Check(apiErr.Code, qt.Equals, 3001)
		c.Check(apiErr.Message, qt.Equals, "Meeting does not exist: 42.")
	})

	c.Run("unknown when message absent", func(c *qt.C) {
		client := newTestClient(c, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})

		_, err := client.GetMeeting(ctx, 42)
		c.Check(err, qt.ErrorMatches, "zoom api GET /meetings/42: status 400: unknown")
	})
}

func TestClient_ListUsers_Paginates(t *testing.T) {
	c := qt.New(t)

	calls := 0
	client := newTestClient(c, func(w http.ResponseWriter, r *http.Request) {
		calls++
		c.Check(r.URL.Query().Get("status"), qt.Equals, "active")
		c.Check(r.URL.Query().Get("page_size"), qt.Equals, "300")
		if r.URL.Query().Get("next_page_token") == "" {
			fmt.Fprint(w, `{"next_page_token":"p2","users":[{"id":"u1"}]}`)
			return
		}
		fmt.Fprint(w, `{"users":[{"id":"u2"}]}`)
	})

	users, err := client.ListUsers(context.Background())
	c.Assert(err, qt.IsNil)
	c.Check(calls, qt.Equals, 2)
	c.Check(users, qt.DeepEquals, []User{{ID: "u1"}, {ID: "u2"}})
}

func TestClient_ListRecordings(t *testing.T) {
	c := qt.New(t)

	client := newTestClient(c, func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.URL.Path, qt.Equals, "/v2/users/u1/recordings")
		c.Check(r.URL.Query().Get("from"), qt.Equals, "2023-05-01")
		c.Check(r.URL.Query().Get("to"), qt.Equals, "2023-06-01")
		fmt.Fprint(w, `{"meetings":[{"uuid":"4444AAAiAAAAAiAiAiiAii==","host_id":"u1","topic":"FOLIO Steering","duration":45,"recording_files":[{"file_type":"MP4","download_url":"https://zoom.example/f1"}]}]}`)
	})

	from := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	meetings, err := client.ListRecordings(context.Background(), "u1", from, to)
	c.Assert(err, qt.IsNil)
	c.Assert(meetings, qt.HasLen, 1)
	c.Check(meetings[0].Duration, qt.Equals, 45)
	c.Check(meetings[0].RecordingFiles, qt.HasLen, 1)
}

func TestClient_DeleteRecording(t *testing.T) {
	c := qt.New(t)

	var method, action string
	client := newTestClient(c, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		action = r.URL.Query().Get("action")
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.DeleteRecording(context.Background(), "4444AAAiAAAAAiAiAiiAii==")
	c.Assert(err, qt.IsNil)
	c.Check(method, qt.Equals, http.MethodDelete)
	c.Check(action, qt.Equals, "trash")
}
