package sleuthlib

import "math/rand"

const (
	sessionIDLength   = 26
	sessionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// SessionID correlates a challenge verification and a following page
// scrape so a remote side treats them as the same visitor. It lives
// exactly one resolution.
type SessionID string

func (s SessionID) String() string {
	return string(s)
}

// NewSessionID generates a new random session identifier. This is not a
// credential so there is no need in crypto/rand here.
func NewSessionID() SessionID {
	buf := make([]byte, sessionIDLength)

	for i := range buf {
		buf[i] = sessionIDAlphabet[rand.Intn(len(sessionIDAlphabet))]
	}

	return SessionID(buf)
}
