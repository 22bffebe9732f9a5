package sleuthlib

import (
	"context"
	"errors"
	"time"
)

var errEmptyChallengeToken = errors.New("solver has returned empty token")

type challenge struct {
	solver   ChallengeSolver
	verifier ChallengeVerifier
	logger   Logger
	backoff  time.Duration
}

// solve makes up to maxAttempts attempts to get a token waiting for
// a backoff between them. It never returns errors, only logs them.
func (c challenge) solve(ctx context.Context, addr string, maxAttempts int) *ChallengeToken {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		token, err := c.solver.Solve(ctx)

		switch {
		case err != nil:
			c.logger.AttemptError(addr, StageChallenge, attempt, err)
		case token == nil:
			c.logger.AttemptError(addr, StageChallenge, attempt, errEmptyChallengeToken)
		default:
			return token
		}

		if attempt < maxAttempts {
			sleepContext(ctx, c.backoff)
		}
	}

	return nil
}

// verify runs up to maxRounds verification rounds. Each round gets its
// own token: remote side burns a token on the first submission so a
// rejected one is useless.
func (c challenge) verify(ctx context.Context, session SessionID, addr string, maxRounds int) bool {
	for round := 1; round <= maxRounds; round++ {
		token := c.solve(ctx, addr, 1)
		if token == nil {
			continue
		}

		err := c.verifier.Verify(ctx, session, addr, token)
		if err == nil {
			return true
		}

		c.logger.AttemptError(addr, StageChallenge, round, err)

		if round < maxRounds {
			sleepContext(ctx, c.backoff)
		}
	}

	return false
}

func sleepContext(ctx context.Context, duration time.Duration) {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
