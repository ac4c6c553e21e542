package shopify

import "errors"

// Standard domain errors.
var (
	// ErrMalformedPayload marks an inbound body that cannot be decoded
	// into a webhook event at all.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrInvalidSignature marks a webhook whose HMAC signature failed
	// verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
