package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestBreaker_InitialState(t *testing.T) {
	b := New("kafka")
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
	assert.Equal(t, "kafka", b.Name())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("kafka", WithThreshold(3))

	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.True(t, b.RecordFailure(), "third failure opens")
	assert.True(t, b.IsOpen())
	assert.False(t, b.Allow())

	assert.False(t, b.RecordFailure(), "already open")
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("kafka", WithThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	b := New("kafka", WithThreshold(2), WithCooldown(time.Minute), WithClock(clock.now))

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Allow())

	clock.t = clock.t.Add(59 * time.Second)
	assert.False(t, b.Allow(), "still cooling down")

	clock.t = clock.t.Add(2 * time.Second)
	assert.True(t, b.Allow(), "trial call after cooldown")

	t.Run("failed trial reopens", func(t *testing.T) {
		assert.True(t, b.RecordFailure())
		assert.False(t, b.Allow())
	})

	t.Run("successful trial closes", func(t *testing.T) {
		clock.t = clock.t.Add(2 * time.Minute)
		assert.True(t, b.Allow())
		b.RecordSuccess()
		assert.False(t, b.IsOpen())
		assert.False(t, b.RecordFailure(), "count starts over after close")
	})
}

func TestBreaker_Reset(t *testing.T) {
	b := New("kafka", WithThreshold(1))
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}
