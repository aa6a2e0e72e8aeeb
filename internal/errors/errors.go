package errors

import "errors"

// Signature verification failures. All of these map to HTTP 401 and must not
// cause any state mutation.
var ErrSignatureMissing = errors.New("webhook signature header is missing")
var ErrSignatureMalformed = errors.New("webhook signature header is malformed")
var ErrSignatureMismatch = errors.New("webhook signature does not match payload")
var ErrSignatureExpired = errors.New("webhook signature timestamp is outside the tolerance window")

// Reconciliation failures. The payment row stays in a retryable state so a
// redelivered webhook can re-attempt once the data issue is fixed.
var ErrProfileNotFound = errors.New("referenced profile does not exist")
var ErrShowNotFound = errors.New("referenced show does not exist")
var ErrPaymentNotFound = errors.New("payment record not found for checkout session")

// ErrEventIgnored marks webhook event kinds the service does not process.
// Handlers acknowledge these with 200 so the provider stops redelivering.
var ErrEventIgnored = errors.New("webhook event type is not processed")

// ErrFreeShow is returned when a checkout session is requested for a show
// whose reservation fee computes to zero.
var ErrFreeShow = errors.New("show is free, no payment needed")

var ErrTicketAlreadyClaimed = errors.New("ticket is already claimed by another profile")

// IsAuthentication reports whether err belongs to the signature failure class.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrSignatureMissing) ||
		errors.Is(err, ErrSignatureMalformed) ||
		errors.Is(err, ErrSignatureMismatch) ||
		errors.Is(err, ErrSignatureExpired)
}

// IsRetryableData reports whether err signals a data problem the caller can
// fix and retry, as opposed to a transient storage failure.
func IsRetryableData(err error) bool {
	return errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrShowNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}
