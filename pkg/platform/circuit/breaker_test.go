package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBreaker_InitialState(t *testing.T) {
	b := New("audit-store")
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
	assert.Equal(t, "audit-store", b.Name())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("test", WithThreshold(3))

	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.True(t, b.RecordFailure())
	assert.True(t, b.IsOpen())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("test", WithThreshold(3))
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("test", WithThreshold(2), WithCooldown(time.Minute), WithClock(clock.Now))

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Allow())

	clock.Advance(time.Minute + time.Second)
	assert.True(t, b.Allow(), "probe allowed after cooldown")

	assert.True(t, b.RecordFailure(), "failed probe re-opens")
	assert.False(t, b.Allow())

	clock.Advance(2 * time.Minute)
	assert.True(t, b.Allow())
	b.RecordSuccess()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}
