// Package webhook authenticates and parses inbound meeting platform events.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/instill-ai/recording-backend/config"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

// Headers read by the authenticators.
const (
	HeaderTimestamp     = "x-zm-request-timestamp"
	HeaderSignature     = "x-zm-signature"
	HeaderAuthorization = "authorization"
)

const signatureVersion = "v0"

// Authenticator verifies that a delivery was sent by the platform. An
// authentic request returns nil; any other result wraps
// errdomain.ErrAuthentication and carries the rejection reason.
type Authenticator interface {
	Authenticate(header http.Header, body []byte) error
}

// Option configures an Authenticator.
type Option func(*hmacAuthenticator)

// WithTimestampTolerance rejects HMAC deliveries whose timestamp header is
// further than d from the current time. Zero disables the check.
func WithTimestampTolerance(d time.Duration) Option {
	return func(a *hmacAuthenticator) {
		a.tolerance = d
	}
}

// WithClock overrides the time source used by the timestamp check.
func WithClock(now func() time.Time) Option {
	return func(a *hmacAuthenticator) {
		a.now = now
	}
}

// NewAuthenticator returns the strategy for the configured mode. Options
// only apply to the HMAC mode.
func NewAuthenticator(mode, secret string, opts ...Option) (Authenticator, error) {
	if secret == "" {
		return nil, fmt.Errorf("webhook secret is empty")
	}

	switch mode {
	case config.AuthModeHMAC, "":
		a := &hmacAuthenticator{secret: []byte(secret), now: time.Now}
		for _, opt := range opts {
			opt(a)
		}
		return a, nil
	case config.AuthModeToken:
		return &tokenAuthenticator{secret: []byte(secret)}, nil
	default:
		return nil, fmt.Errorf("unknown webhook authentication mode %q", mode)
	}
}

type hmacAuthenticator struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// Authenticate recomputes HMAC-SHA256(secret, "v0:{timestamp}:{body}") and
// compares it with the v0=<hex> signature header.
func (a *hmacAuthenticator) Authenticate(header http.Header, body []byte) error {
	timestamp := header.Get(HeaderTimestamp)
	if timestamp == "" {
		return fmt.Errorf("%w: missing %s header", errdomain.ErrAuthentication, HeaderTimestamp)
	}

	signature := header.Get(HeaderSignature)
	if signature == "" {
		return fmt.Errorf("%w: missing %s header", errdomain.ErrAuthentication, HeaderSignature)
	}

	want := Sign(a.secret, timestamp, body)
	if !hmac.Equal([]byte(signature), []byte(want)) {
		return fmt.Errorf("%w: signature mismatch", errdomain.ErrAuthentication)
	}

	return a.checkTimestamp(timestamp)
}

// checkTimestamp runs after the signature check so a stale delivery is
// only reported for requests that were otherwise authentic.
func (a *hmacAuthenticator) checkTimestamp(timestamp string) error {
	if a.tolerance <= 0 {
		return nil
	}

	secs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid %s header %q", errdomain.ErrAuthentication, HeaderTimestamp, timestamp)
	}

	skew := a.now().Sub(time.Unix(secs, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > a.tolerance {
		return fmt.Errorf("%w: request timestamp is %s away from now, the tolerance is %s",
			errdomain.ErrAuthentication, skew.Truncate(time.Second), a.tolerance)
	}

	return nil
}

// Sign returns the v0=<hex> signature of a delivery.
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}

type tokenAuthenticator struct {
	secret []byte
}

// Authenticate accepts the request if any comma-separated entry of the
// authorization header equals the secret.
func (a *tokenAuthenticator) Authenticate(header http.Header, _ []byte) error {
	value := header.Get(HeaderAuthorization)
	if value == "" {
		return fmt.Errorf("%w: missing %s header", errdomain.ErrAuthentication, HeaderAuthorization)
	}

	matched := 0
	for _, candidate := range strings.Split(value, ",") {
		matched |= subtle.ConstantTimeCompare([]byte(strings.TrimSpace(candidate)), a.secret)
	}
	if matched != 1 {
		return fmt.Errorf("%w: no matching token", errdomain.ErrAuthentication)
	}

	return nil
}
