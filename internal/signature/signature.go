package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "stagelink/internal/errors"
)

// Header is the name of the provider signature header on inbound webhooks.
const Header = "paymongo-signature"

// DefaultTolerance bounds how old a signed timestamp may be before the
// delivery is treated as a replay.
const DefaultTolerance = 5 * time.Minute

// Verifier checks provider webhook signatures of the form
// "t=<unix_seconds>,te=<hex_hmac>,li=<hex_hmac>". The digest covers
// "<timestamp>.<raw_body>" with HMAC-SHA256 over the exact bytes transmitted.
// Two digest slots are carried so either side of a provider key rotation
// validates.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier builds a verifier for the shared webhook secret. A zero
// tolerance disables the freshness check.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify authenticates body against the signature header. It has no side
// effects; any returned error means the payload must not be processed.
func (v *Verifier) Verify(header string, body []byte) error {
	if header == "" {
		return apperrors.ErrSignatureMissing
	}

	timestamp, digests, err := parseHeader(header)
	if err != nil {
		return err
	}

	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(timestamp, 0))
		if age > v.tolerance || age < -v.tolerance {
			return apperrors.ErrSignatureExpired
		}
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, digest := range digests {
		if hmac.Equal(expected, digest) {
			return nil
		}
	}

	return apperrors.ErrSignatureMismatch
}

// parseHeader splits "t=...,te=...,li=..." into the timestamp and the decoded
// digest slots. Empty slots are tolerated; at least one digest is required.
func parseHeader(header string) (int64, [][]byte, error) {
	var timestamp int64
	var haveTimestamp bool
	var digests [][]byte

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, nil, apperrors.ErrSignatureMalformed
		}

		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, apperrors.ErrSignatureMalformed
			}
			timestamp = ts
			haveTimestamp = true
		case "te", "li":
			if value == "" {
				continue
			}
			digest, err := hex.DecodeString(value)
			if err != nil {
				return 0, nil, apperrors.ErrSignatureMalformed
			}
			digests = append(digests, digest)
		}
	}

	if !haveTimestamp || len(digests) == 0 {
		return 0, nil, apperrors.ErrSignatureMalformed
	}

	return timestamp, digests, nil
}

// Sign produces a header value for body at the given time. Used by tests and
// local tooling to simulate provider deliveries.
func Sign(secret string, at time.Time, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(body)
	digest := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%d,te=%s,li=%s", at.Unix(), digest, digest)
}
