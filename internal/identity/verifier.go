package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Webhook signature headers set by the identity provider.
const (
	HeaderWebhookID        = "webhook-id"
	HeaderWebhookTimestamp = "webhook-timestamp"
	HeaderWebhookSignature = "webhook-signature"
)

// Timestamps outside this window are rejected to blunt replay.
const timestampTolerance = 5 * time.Minute

var (
	ErrMissingHeaders     = errors.New("missing webhook signature headers")
	ErrMalformedTimestamp = errors.New("malformed webhook timestamp")
	ErrStaleTimestamp     = errors.New("webhook timestamp outside tolerance")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)

// WebhookVerifier checks identity-provider webhook signatures. The
// signed content is "id.timestamp.body" and the signature header may
// carry several space-separated "v1,<base64>" entries after key
// rotation; any match passes.
type WebhookVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	// Provider secrets ship prefixed "whsec_" around a base64 key.
	raw := strings.TrimPrefix(secret, "whsec_")
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		key = []byte(raw)
	}
	return &WebhookVerifier{secret: key, now: time.Now}
}

// Verify validates the signature headers against the raw body. A nil
// return means the event is authentic and fresh.
func (v *WebhookVerifier) Verify(headers http.Header, body []byte) error {
	id := headers.Get(HeaderWebhookID)
	ts := headers.Get(HeaderWebhookTimestamp)
	sigs := headers.Get(HeaderWebhookSignature)
	if id == "" || ts == "" || sigs == "" {
		return ErrMissingHeaders
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedTimestamp, ts)
	}
	age := v.now().Sub(time.Unix(unix, 0))
	if age > timestampTolerance || age < -timestampTolerance {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%s.%s.", id, ts)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, entry := range strings.Fields(sigs) {
		version, sig, found := strings.Cut(entry, ",")
		if !found || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}
