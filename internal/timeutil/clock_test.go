package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	start := c.Now()
	assert.GreaterOrEqual(t, c.Since(start), time.Duration(0))
}

func TestMockClock_Steps(t *testing.T) {
	t0 := time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(t0, time.Millisecond)

	assert.Equal(t, t0, c.Now())
	assert.Equal(t, t0.Add(time.Millisecond), c.Now())

	start := c.Now()
	assert.Equal(t, time.Millisecond, c.Since(start))
}

func TestMockClock_Advance(t *testing.T) {
	t0 := time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(t0, 0)

	c.Advance(90 * time.Second)
	assert.Equal(t, t0.Add(90*time.Second), c.Now())
	assert.Equal(t, 30*time.Second, c.Since(t0.Add(time.Minute)))
}
