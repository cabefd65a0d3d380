package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

const testSecret = "s3cr3t"

const recordingBody = `{
  "event": "recording.completed",
  "event_ts": 1685628060000,
  "download_token": "dl-token",
  "payload": {
    "account_id": "acc",
    "object": {
      "uuid": "4444AAAiAAAAAiAiAiiAii==",
      "id": 123456789,
      "host_id": "host-1",
      "topic": "FOLIO Steering (FOLIO)",
      "start_time": "2023-06-01T14:01:00Z",
      "duration": 45,
      "recording_files": [
        {"id": "f1", "file_type": "MP4", "recording_type": "shared_screen_with_speaker_view", "download_url": "https://zoom.example/rec/download/f1", "file_size": 1024},
        {"id": "f2", "file_type": "CHAT", "recording_type": "chat_file", "download_url": "https://zoom.example/rec/download/f2", "file_size": 12}
      ]
    }
  }
}`

func TestHMACAuthenticator(t *testing.T) {
	c := qt.New(t)

	auth, err := NewAuthenticator("hmac", testSecret)
	c.Assert(err, qt.IsNil)

	body := []byte(recordingBody)
	signed := func(signature string) http.Header {
		h := http.Header{}
		h.Set(HeaderTimestamp, "1685628060")
		if signature != "" {
			h.Set(HeaderSignature, signature)
		}
		return h
	}

	c.Run("ok - valid signature", func(c *qt.C) {
		sig := Sign([]byte(testSecret), "1685628060", body)
		c.Check(auth.Authenticate(signed(sig), body), qt.IsNil)
	})

	c.Run("nok - tampered signature byte", func(c *qt.C) {
		sig := []byte(Sign([]byte(testSecret), "1685628060", body))
		last := len(sig) - 1
		if sig[last] == '0' {
			sig[last] = '1'
		} else {
			sig[last] = '0'
		}
		err := auth.Authenticate(signed(string(sig)), body)
		c.Check(err, qt.ErrorIs, errdomain.ErrAuthentication)
		c.Check(err, qt.ErrorMatches, ".*signature mismatch")
	})

	c.Run("nok - tampered body", func(c *qt.C) {
		sig := Sign([]byte(testSecret), "1685628060", body)
		err := auth.Authenticate(signed(sig), append([]byte(recordingBody), ' '))
		c.Check(err, qt.ErrorIs, errdomain.ErrAuthentication)
	})

	c.Run("nok - missing signature", func(c *qt.C) {
		err := auth.Authenticate(signed(""), body)
		c.Check(err, qt.ErrorMatches, ".*missing x-zm-signature header")
	})

	c.Run("nok - missing timestamp", func(c *qt.C) {
		h := http.Header{}
		h.Set(HeaderSignature, Sign([]byte(testSecret), "1685628060", body))
		err := auth.Authenticate(h, body)
		c.Check(err, qt.ErrorMatches, ".*missing x-zm-request-timestamp header")
	})
}

func TestHMACAuthenticator_TimestampTolerance(t *testing.T) {
	c := qt.New(t)

	body := []byte(recordingBody)
	sent := time.Unix(1685628060, 0)

	testCases := []struct {
		name      string
		now       time.Time
		timestamp string
		wantErr   string
	}{
		{name: "ok - fresh delivery", now: sent.Add(30 * time.Second), timestamp: "1685628060"},
		{name: "ok - at the edge of the window", now: sent.Add(5 * time.Minute), timestamp: "1685628060"},
		{name: "ok - sender clock slightly ahead", now: sent.Add(-time.Minute), timestamp: "1685628060"},
		{
			name:      "nok - replayed delivery",
			now:       sent.Add(time.Hour),
			timestamp: "1685628060",
			wantErr:   "authentication failure: request timestamp is 1h0m0s away from now, the tolerance is 5m0s",
		},
		{
			name:      "nok - timestamp from the future",
			now:       sent.Add(-10 * time.Minute),
			timestamp: "1685628060",
			wantErr:   ".*request timestamp is 10m0s away from now.*",
		},
		{
			name:      "nok - timestamp is not a number",
			now:       sent,
			timestamp: "yesterday",
			wantErr:   `.*invalid x-zm-request-timestamp header "yesterday"`,
		},
	}

	for _, tc := range testCases {
		c.Run(tc.name, func(c *qt.C) {
			auth, err := NewAuthenticator("hmac", testSecret,
				WithTimestampTolerance(5*time.Minute),
				WithClock(func() time.Time { return tc.now }))
			c.Assert(err, qt.IsNil)

			h := http.Header{}
			h.Set(HeaderTimestamp, tc.timestamp)
			h.Set(HeaderSignature, Sign([]byte(testSecret), tc.timestamp, body))

			err = auth.Authenticate(h, body)
			if tc.wantErr == "" {
				c.Check(err, qt.IsNil)
				return
			}
			c.Check(err, qt.ErrorIs, errdomain.ErrAuthentication)
			c.Check(err, qt.ErrorMatches, tc.wantErr)
		})
	}

	c.Run("ok - disabled tolerance accepts old deliveries", func(c *qt.C) {
		auth, err := NewAuthenticator("hmac", testSecret,
			WithClock(func() time.Time { return sent.Add(24 * time.Hour) }))
		c.Assert(err, qt.IsNil)

		h := http.Header{}
		h.Set(HeaderTimestamp, "1685628060")
		h.Set(HeaderSignature, Sign([]byte(testSecret), "1685628060", body))
		c.Check(auth.Authenticate(h, body), qt.IsNil)
	})
}

func TestTokenAuthenticator(t *testing.T) {
	c := qt.New(t)

	auth, err := NewAuthenticator("token", testSecret)
	c.Assert(err, qt.IsNil)

	testCases := []struct {
		name   string
		header string
		wantOK bool
	}{
		{name: "single token", header: testSecret, wantOK: true},
		{name: "token in list", header: "other, " + testSecret + ",third", wantOK: true},
		{name: "wrong token", header: "other,third", wantOK: false},
		{name: "prefix of secret", header: "s3cr", wantOK: false},
		{name: "missing header", header: "", wantOK: false},
	}

	for _, tc := range testCases {
		c.Run(tc.name, func(c *qt.C) {
			h := http.Header{}
			if tc.header != "" {
				h.Set(HeaderAuthorization, tc.header)
			}
			err := auth.Authenticate(h, nil)
			if tc.wantOK {
				c.Check(err, qt.IsNil)
				return
			}
			c.Check(err, qt.ErrorIs, errdomain.ErrAuthentication)
		})
	}
}

func TestNewAuthenticator(t *testing.T) {
	c := qt.New(t)

	_, err := NewAuthenticator("jwt", testSecret)
	c.Check(err, qt.ErrorMatches, `unknown webhook authentication mode "jwt"`)

	_, err = NewAuthenticator("hmac", "")
	c.Check(err, qt.ErrorMatches, "webhook secret is empty")
}

func TestChallenge(t *testing.T) {
	c := qt.New(t)

	env, err := ParseEnvelope([]byte(`{"event":"endpoint.url_validation","payload":{"plainToken":"qgg8vlvZRS6UYooatFL8Aw"}}`))
	c.Assert(err, qt.IsNil)
	c.Assert(env.IsValidationProbe(), qt.IsTrue)

	resp, err := env.Challenge(testSecret)
	c.Assert(err, qt.IsNil)

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte("qgg8vlvZRS6UYooatFL8Aw"))
	c.Check(resp.PlainToken, qt.Equals, "qgg8vlvZRS6UYooatFL8Aw")
	c.Check(resp.EncryptedToken, qt.Equals, hex.EncodeToString(mac.Sum(nil)))

	env, err = ParseEnvelope([]byte(`{"event":"endpoint.url_validation","payload":{}}`))
	c.Assert(err, qt.IsNil)
	_, err = env.Challenge(testSecret)
	c.Check(err, qt.ErrorIs, errdomain.ErrMalformedInput)
}

func TestParseEnvelope(t *testing.T) {
	c := qt.New(t)

	c.Run("ok - plain JSON", func(c *qt.C) {
		env, err := ParseEnvelope([]byte(recordingBody))
		c.Assert(err, qt.IsNil)
		c.Check(env.Event, qt.Equals, "recording.completed")
		c.Check(env.DownloadToken, qt.Equals, "dl-token")
	})

	c.Run("ok - base64 body", func(c *qt.C) {
		encoded := base64.StdEncoding.EncodeToString([]byte(recordingBody))
		env, err := ParseEnvelope([]byte(encoded))
		c.Assert(err, qt.IsNil)
		c.Check(env.Event, qt.Equals, "recording.completed")
	})

	c.Run("nok - garbage", func(c *qt.C) {
		_, err := ParseEnvelope([]byte("not json at all!"))
		c.Check(err, qt.ErrorIs, errdomain.ErrMalformedInput)
	})

	c.Run("nok - empty", func(c *qt.C) {
		_, err := ParseEnvelope(nil)
		c.Check(err, qt.ErrorIs, errdomain.ErrMalformedInput)
	})

	c.Run("nok - no event", func(c *qt.C) {
		_, err := ParseEnvelope([]byte(`{"payload":{}}`))
		c.Check(err, qt.ErrorMatches, ".*missing event field")
	})
}

func TestRecordingEvent(t *testing.T) {
	c := qt.New(t)

	c.Run("ok", func(c *qt.C) {
		env, err := ParseEnvelope([]byte(recordingBody))
		c.Assert(err, qt.IsNil)

		event, err := env.RecordingEvent()
		c.Assert(err, qt.IsNil)
		c.Check(event.Payload.Object.UUID, qt.Equals, "4444AAAiAAAAAiAiAiiAii==")
		c.Check(event.Payload.Object.Duration, qt.Equals, 45)
		c.Check(event.Payload.Object.RecordingFiles, qt.HasLen, 2)
		c.Check(event.DownloadToken, qt.Equals, "dl-token")
	})

	c.Run("nok - wrong event type", func(c *qt.C) {
		env, err := ParseEnvelope([]byte(`{"event":"meeting.started","payload":{"object":{}}}`))
		c.Assert(err, qt.IsNil)

		_, err = env.RecordingEvent()
		c.Check(err, qt.ErrorIs, errdomain.ErrMalformedInput)
		c.Check(err, qt.ErrorMatches, `.*unexpected event type "meeting.started"`)
	})

	c.Run("nok - missing uuid", func(c *qt.C) {
		env, err := ParseEnvelope([]byte(`{"event":"recording.completed","payload":{"object":{"host_id":"h","duration":10}}}`))
		c.Assert(err, qt.IsNil)

		_, err = env.RecordingEvent()
		c.Check(err, qt.ErrorIs, errdomain.ErrMalformedInput)
	})

	c.Run("nok - file without download url", func(c *qt.C) {
		env, err := ParseEnvelope([]byte(`{"event":"recording.completed","payload":{"object":{"uuid":"u","host_id":"h","recording_files":[{"file_type":"MP4"}]}}}`))
		c.Assert(err, qt.IsNil)

		_, err = env.RecordingEvent()
		c.Check(err, qt.ErrorIs, errdomain.ErrMalformedInput)
	})

	c.Run("nok - wrong field type", func(c *qt.C) {
		env, err := ParseEnvelope([]byte(`{"event":"recording.completed","payload":{"object":{"uuid":"u","host_id":"h","duration":"long"}}}`))
		c.Assert(err, qt.IsNil)

		_, err = env.RecordingEvent()
		c.Check(err, qt.ErrorIs, errdomain.ErrMalformedInput)
	})
}
