package sleuthlib

import "sync/atomic"

// ChallengeToken is a single-use proof of passed CAPTCHA. Remote side
// burns it on the first submission, regardless of the result, so the
// value can be read only once.
type ChallengeToken struct {
	value    string
	consumed uint32
}

// Consume returns a token value. Each subsequent call returns
// ErrChallengeTokenConsumed.
func (c *ChallengeToken) Consume() (string, error) {
	if !atomic.CompareAndSwapUint32(&c.consumed, 0, 1) {
		return "", ErrChallengeTokenConsumed
	}

	return c.value, nil
}

// Consumed tells if token was already used.
func (c *ChallengeToken) Consumed() bool {
	return atomic.LoadUint32(&c.consumed) == 1
}

// NewChallengeToken wraps a raw solution. Empty solutions produce nil.
func NewChallengeToken(value string) *ChallengeToken {
	if value == "" {
		return nil
	}

	return &ChallengeToken{
		value: value,
	}
}
