package search

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, 30*time.Second)
	cb.now = func() time.Time { return now }
	boom := errors.New("connection refused")

	assert.True(t, cb.CanProceed())
	cb.RecordFailure(boom)
	assert.True(t, cb.CanProceed(), "one failure stays closed")

	cb.RecordFailure(boom)
	open, failures := cb.GetStatus()
	assert.True(t, open)
	assert.Equal(t, 2, failures)
	assert.False(t, cb.CanProceed())

	now = now.Add(31 * time.Second)
	assert.True(t, cb.CanProceed(), "half-open trial")
	assert.False(t, cb.CanProceed(), "only one trial at a time")

	cb.RecordSuccess()
	open, failures = cb.GetStatus()
	assert.False(t, open)
	assert.Zero(t, failures)
	assert.True(t, cb.CanProceed())
}

func TestCircuitBreaker_SuccessResetsStreak(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)
	boom := errors.New("timeout")

	cb.RecordFailure(boom)
	cb.RecordSuccess()
	cb.RecordFailure(boom)

	open, _ := cb.GetStatus()
	assert.False(t, open)
}
