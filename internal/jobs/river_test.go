package jobs

import (
	"testing"
	"time"

	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyExponentialBackoff(t *testing.T) {
	policy := NewRetryPolicy()
	attemptedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Second},
		{2, 20 * time.Second},
		{3, 40 * time.Second},
		{4, 80 * time.Second},
		{5, 160 * time.Second},
	}

	for _, tt := range tests {
		job := &rivertype.JobRow{
			Kind:        JobKindRevisionPoll,
			Attempt:     tt.attempt,
			AttemptedAt: &attemptedAt,
		}
		next := policy.NextRetry(job)
		assert.Equal(t, attemptedAt.Add(tt.want), next, "attempt %d", tt.attempt)
	}
}

func TestRetryPolicyCapsAtMaxDelay(t *testing.T) {
	policy := NewRetryPolicy()
	attemptedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	job := &rivertype.JobRow{
		Kind:        JobKindRevisionPoll,
		Attempt:     9,
		AttemptedAt: &attemptedAt,
	}
	next := policy.NextRetry(job)
	assert.Equal(t, attemptedAt.Add(5*time.Minute), next)
}

func TestRetryPolicyUnknownKindUsesDefault(t *testing.T) {
	policy := NewRetryPolicy()
	attemptedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	job := &rivertype.JobRow{
		Kind:        "some_other_job",
		Attempt:     1,
		AttemptedAt: &attemptedAt,
	}
	next := policy.NextRetry(job)
	assert.Equal(t, attemptedAt.Add(10*time.Second), next)
}

func TestRetryPolicyZeroAttempt(t *testing.T) {
	policy := NewRetryPolicy()

	job := &rivertype.JobRow{Kind: JobKindRevisionPoll, Attempt: 0}
	next := policy.NextRetry(job)

	// Without an attempt timestamp the delay is relative to now.
	assert.WithinDuration(t, time.Now().Add(10*time.Second), next, 2*time.Second)
}

func TestNewClientConfig(t *testing.T) {
	workers := NewWorkers(nil, nil, nil, 0, zerolog.Nop())

	config := NewClientConfig(workers, nil, nil)
	require.NotNil(t, config)

	assert.Equal(t, RevisionPollMaxAttempts, config.MaxAttempts)
	assert.NotNil(t, config.RetryPolicy)
	assert.Equal(t, 10, config.Queues["default"].MaxWorkers)
	assert.Nil(t, config.ErrorHandler, "error handler requires a logger")
}
