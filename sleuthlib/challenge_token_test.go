package sleuthlib_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/stretchr/testify/assert"
)

func TestChallengeTokenEmpty(t *testing.T) {
	assert.Nil(t, sleuthlib.NewChallengeToken(""))
}

func TestChallengeTokenConsume(t *testing.T) {
	token := sleuthlib.NewChallengeToken("03AGdBq2")

	assert.False(t, token.Consumed())

	value, err := token.Consume()

	assert.NoError(t, err)
	assert.Equal(t, "03AGdBq2", value)
	assert.True(t, token.Consumed())

	value, err = token.Consume()

	assert.ErrorIs(t, err, sleuthlib.ErrChallengeTokenConsumed)
	assert.Empty(t, value)
}

func TestChallengeTokenConsumeConcurrently(t *testing.T) {
	token := sleuthlib.NewChallengeToken("03AGdBq2")
	wg := &sync.WaitGroup{}
	successes := int32(0)

	for i := 0; i < 32; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := token.Consume(); err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}

	wg.Wait()

	assert.EqualValues(t, 1, successes)
}
