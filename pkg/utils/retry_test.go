package utils_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvshop/marketplace-service/pkg/utils"
)

func fastRetry(attempts int) utils.RetryConfig {
	return utils.RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Microsecond,
		Multiplier:   2,
	}
}

func TestRetry_SucceedsAfterFailure(t *testing.T) {
	calls := 0
	err := utils.Retry(fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("still broken")
	calls := 0

	err := utils.Retry(fastRetry(4), func() error {
		calls++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 4, calls)
}

func TestRetry_PermanentErrorNotRetried(t *testing.T) {
	permanent := errors.New("not found")
	calls := 0

	err := utils.Retry(fastRetry(5), func() error {
		calls++
		return permanent
	}, permanent)

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetry_WrappedPermanentError(t *testing.T) {
	permanent := errors.New("not found")
	calls := 0

	err := utils.Retry(fastRetry(5), func() error {
		calls++
		return errors.Join(errors.New("context"), permanent)
	}, permanent)

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}
