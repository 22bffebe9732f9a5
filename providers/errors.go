package providers

import "errors"

var (
	// ErrAuthTokenIsRequired is returned if you are trying to initialize
	// a provider which requires some token to work.
	ErrAuthTokenIsRequired = errors.New("auth token is required")

	// ErrNoAnchorToken is returned if reCAPTCHA anchor page has no
	// token to exchange.
	ErrNoAnchorToken = errors.New("cannot find recaptcha token on anchor page")

	// ErrNoAnswer is returned if reCAPTCHA reload endpoint has not
	// returned an answer.
	ErrNoAnswer = errors.New("cannot find recaptcha answer")

	// ErrVerificationRejected is returned if demo page has not accepted
	// a challenge token.
	ErrVerificationRejected = errors.New("challenge token is rejected")
)
