package signature

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "stagelink/internal/errors"
)

const testSecret = "whsk_test_secret"

func fixedVerifier(t *testing.T, at time.Time, tolerance time.Duration) *Verifier {
	t.Helper()
	v := NewVerifier(testSecret, tolerance)
	v.now = func() time.Time { return at }
	return v
}

func TestVerifyAcceptsSignedPayload(t *testing.T) {
	now := time.Unix(1756700000, 0)
	body := []byte(`{"data":{"attributes":{"type":"checkout_session.payment.paid"}}}`)

	header := Sign(testSecret, now, body)
	v := fixedVerifier(t, now, DefaultTolerance)

	assert.NoError(t, v.Verify(header, body))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	now := time.Unix(1756700000, 0)
	body := []byte(`{"amount":10000}`)
	header := Sign(testSecret, now, body)
	v := fixedVerifier(t, now, DefaultTolerance)

	tampered := []byte(`{"amount":10001}`)
	assert.ErrorIs(t, v.Verify(header, tampered), apperrors.ErrSignatureMismatch)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	now := time.Unix(1756700000, 0)
	body := []byte(`{"amount":10000}`)
	header := Sign(testSecret, now, body)
	v := fixedVerifier(t, now, DefaultTolerance)

	// Flip one hex character in both digest slots.
	parts := strings.Split(header, ",")
	for i, part := range parts[1:] {
		key, value, _ := strings.Cut(part, "=")
		parts[i+1] = key + "=" + flipHex(value[0]) + value[1:]
	}
	assert.ErrorIs(t, v.Verify(strings.Join(parts, ","), body), apperrors.ErrSignatureMismatch)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	now := time.Unix(1756700000, 0)
	body := []byte(`{}`)
	header := Sign("some_other_secret", now, body)
	v := fixedVerifier(t, now, DefaultTolerance)

	assert.ErrorIs(t, v.Verify(header, body), apperrors.ErrSignatureMismatch)
}

func TestVerifyAcceptsEitherDigestSlot(t *testing.T) {
	now := time.Unix(1756700000, 0)
	body := []byte(`{"ok":true}`)
	header := Sign(testSecret, now, body)

	// Corrupt the te slot only; the li slot must still validate.
	parts := strings.Split(header, ",")
	parts[1] = "te=deadbeef"
	v := fixedVerifier(t, now, DefaultTolerance)

	assert.NoError(t, v.Verify(strings.Join(parts, ","), body))
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	signedAt := time.Unix(1756700000, 0)
	body := []byte(`{}`)
	header := Sign(testSecret, signedAt, body)

	v := fixedVerifier(t, signedAt.Add(6*time.Minute), DefaultTolerance)
	assert.ErrorIs(t, v.Verify(header, body), apperrors.ErrSignatureExpired)
}

func TestVerifyRejectsFutureTimestamp(t *testing.T) {
	signedAt := time.Unix(1756700000, 0)
	body := []byte(`{}`)
	header := Sign(testSecret, signedAt, body)

	v := fixedVerifier(t, signedAt.Add(-10*time.Minute), DefaultTolerance)
	assert.ErrorIs(t, v.Verify(header, body), apperrors.ErrSignatureExpired)
}

func TestVerifyZeroToleranceDisablesFreshness(t *testing.T) {
	signedAt := time.Unix(1756700000, 0)
	body := []byte(`{}`)
	header := Sign(testSecret, signedAt, body)

	v := fixedVerifier(t, signedAt.Add(24*time.Hour), 0)
	assert.NoError(t, v.Verify(header, body))
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	v := fixedVerifier(t, time.Now(), DefaultTolerance)
	assert.ErrorIs(t, v.Verify("", []byte(`{}`)), apperrors.ErrSignatureMissing)
}

func TestVerifyRejectsMalformedHeader(t *testing.T) {
	v := fixedVerifier(t, time.Now(), DefaultTolerance)

	for _, header := range []string{
		"not-a-signature",
		"t=abc,te=00ff,li=00ff",
		"te=00ff,li=00ff",
		"t=1756700000",
		"t=1756700000,te=zzzz",
	} {
		assert.ErrorIs(t, v.Verify(header, []byte(`{}`)), apperrors.ErrSignatureMalformed, header)
	}
}

func flipHex(c byte) string {
	if c == '0' {
		return "1"
	}
	return "0"
}
