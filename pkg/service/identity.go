package service

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofrs/uuid"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

var uuidEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DeriveRunIdentity maps a platform meeting UUID (base64 of the 16 UUID
// bytes) to canonical UUID text. The result is the idempotency key of the
// run and the prefix of all its storage keys.
func DeriveRunIdentity(meetingUUID string) (string, error) {
	s := strings.TrimSpace(meetingUUID)
	if s == "" {
		return "", fmt.Errorf("%w: empty meeting uuid", errdomain.ErrMalformedInput)
	}

	// Deliveries that went through a URL may still carry %2F and friends.
	if strings.Contains(s, "%") {
		unescaped, err := url.PathUnescape(s)
		if err != nil {
			return "", fmt.Errorf("%w: unescaping meeting uuid %q: %w", errdomain.ErrMalformedInput, meetingUUID, err)
		}
		s = unescaped
	}

	if len(s) >= 32 {
		if id, err := uuid.FromString(s); err == nil {
			return id.String(), nil
		}
	}

	for _, enc := range uuidEncodings {
		b, err := enc.DecodeString(s)
		if err != nil || len(b) != uuid.Size {
			continue
		}
		id, err := uuid.FromBytes(b)
		if err != nil {
			continue
		}
		return id.String(), nil
	}

	return "", fmt.Errorf("%w: meeting uuid %q is not a base64 encoded uuid", errdomain.ErrMalformedInput, meetingUUID)
}
