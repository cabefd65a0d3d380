// Package zoom is a small client for the parts of the Zoom REST API the
// ingestion pipeline reads: past meetings, meetings, users and cloud
// recordings.
package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/types"
)

const (
	defaultTimeout = 30 * time.Second
	listPageSize   = "300"
	dateLayout     = "2006-01-02"
)

// MetadataSource is the read side of the platform API used by the pipeline.
type MetadataSource interface {
	GetPastMeeting(ctx context.Context, meetingUUID string) (*PastMeeting, error)
	GetMeeting(ctx context.Context, meetingID int64) (*Meeting, error)
	DeleteRecording(ctx context.Context, meetingUUID string) error
	ListUsers(ctx context.Context) ([]User, error)
	ListRecordings(ctx context.Context, userID string, from, to time.Time) ([]types.MeetingObject, error)
	AccessToken(ctx context.Context) (string, error)
}

// Client implements MetadataSource over HTTP.
type Client struct {
	client *resty.Client
	tokens oauth2.TokenSource
	log    *zap.Logger
}

// NewClient creates a client that authenticates with the server-to-server
// OAuth account_credentials grant.
func NewClient(cfg config.ZoomConfig, log *zap.Logger) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		EndpointParams: url.Values{
			"grant_type": {"account_credentials"},
			"account_id": {cfg.AccountID},
		},
		AuthStyle: oauth2.AuthStyleInHeader,
	}

	return New(cfg.APIBaseURL, cc.TokenSource(context.Background()), cfg.Timeout, log)
}

// New creates a client against baseURL using the given token source.
func New(baseURL string, tokens oauth2.TokenSource, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	r := resty.New().
		SetLogger(log.Sugar()).
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		client: r,
		tokens: tokens,
		log:    log,
	}
}

// AccessToken returns a valid bearer token for the API. The sweep uses it
// as the download credential of recordings it finds.
func (c *Client) AccessToken(_ context.Context) (string, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("fetching access token: %w", err)
	}
	return tok.AccessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) ([]byte, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, &APIError{Method: method, Path: path, Message: err.Error()}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParamsFromValues(query).
		Execute(method, path)
	if err != nil {
		return nil, &APIError{Method: method, Path: path, Message: err.Error()}
	}

	if resp.IsError() {
		return nil, newAPIError(method, path, resp.StatusCode(), resp.Body())
	}

	body := resp.Body()
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, &APIError{
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode(),
				Message:    fmt.Sprintf("decoding response: %s", err),
			}
		}
	}

	return body, nil
}

// GetPastMeeting fetches the recorded session.
func (c *Client) GetPastMeeting(ctx context.Context, meetingUUID string) (*PastMeeting, error) {
	var m PastMeeting
	raw, err := c.do(ctx, http.MethodGet, "/past_meetings/"+escapeMeetingUUID(meetingUUID), nil, &m)
	if err != nil {
		return nil, err
	}
	m.Raw = raw
	return &m, nil
}

// GetMeeting fetches the scheduled (parent) meeting.
func (c *Client) GetMeeting(ctx context.Context, meetingID int64) (*Meeting, error) {
	var m Meeting
	raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/meetings/%d", meetingID), nil, &m)
	if err != nil {
		return nil, err
	}
	m.Raw = raw
	return &m, nil
}

// DeleteRecording moves every cloud recording file of a session to trash.
func (c *Client) DeleteRecording(ctx context.Context, meetingUUID string) error {
	_, err := c.do(ctx, http.MethodDelete,
		"/meetings/"+escapeMeetingUUID(meetingUUID)+"/recordings",
		url.Values{"action": {"trash"}}, nil)
	return err
}

// ListUsers returns every active user of the account.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	query := url.Values{"status": {"active"}, "page_size": {listPageSize}}

	for {
		var page listUsersResponse
		if _, err := c.do(ctx, http.MethodGet, "/users", query, &page); err != nil {
			return nil, err
		}
		users = append(users, page.Users...)

		if page.NextPageToken == "" {
			return users, nil
		}
		query.Set("next_page_token", page.NextPageToken)
	}
}

// ListRecordings returns the cloud recordings of a user between from and to.
func (c *Client) ListRecordings(ctx context.Context, userID string, from, to time.Time) ([]types.MeetingObject, error) {
	var meetings []types.MeetingObject
	query := url.Values{
		"page_size": {listPageSize},
		"from":      {from.Format(dateLayout)},
		"to":        {to.Format(dateLayout)},
	}
	path := "/users/" + url.PathEscape(userID) + "/recordings"

	for {
		var page listRecordingsResponse
		if _, err := c.do(ctx, http.MethodGet, path, query, &page); err != nil {
			return nil, err
		}
		meetings = append(meetings, page.Meetings...)

		if page.NextPageToken == "" {
			return meetings, nil
		}
		query.Set("next_page_token", page.NextPageToken)
	}
}

// escapeMeetingUUID applies the platform's rule that UUIDs starting with a
// slash or containing a double slash must be URL-encoded twice.
func escapeMeetingUUID(meetingUUID string) string {
	escaped := url.PathEscape(meetingUUID)
	if strings.HasPrefix(meetingUUID, "/") || strings.Contains(meetingUUID, "//") {
		escaped = url.PathEscape(escaped)
	}
	return escaped
}
