package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMachine_OpenedResetsFailures(t *testing.T) {
	m := newMachine(3, 5, time.Second, 15*time.Second)
	assert.Equal(t, StateConnecting, m.State())

	m.Errored()
	m.Errored()
	assert.Equal(t, 2, m.Failures())

	m.Opened()
	assert.Equal(t, StateLive, m.State())
	assert.Equal(t, 0, m.Failures())
}

func TestMachine_BackoffGrowsAndCaps(t *testing.T) {
	m := newMachine(10, 5, time.Second, 3*time.Second)

	next, delay := m.Errored()
	assert.Equal(t, StateReconnecting, next)
	assert.Equal(t, time.Second, delay)

	_, delay = m.Errored()
	assert.Equal(t, 2*time.Second, delay)

	_, delay = m.Errored()
	assert.Equal(t, 3*time.Second, delay)

	// Capped from here on.
	_, delay = m.Errored()
	assert.Equal(t, 3*time.Second, delay)
}

func TestMachine_DemotesToPollingAtThreshold(t *testing.T) {
	m := newMachine(3, 5, time.Second, 15*time.Second)

	m.Errored()
	m.Errored()
	next, delay := m.Errored()
	assert.Equal(t, StatePolling, next)
	assert.Equal(t, time.Duration(0), delay)
	assert.Equal(t, StatePolling, m.State())
}

func TestMachine_PromotesEveryNthTick(t *testing.T) {
	m := newMachine(1, 5, time.Second, 15*time.Second)
	m.Errored() // straight to polling
	assert.Equal(t, StatePolling, m.State())

	for i := 1; i <= 4; i++ {
		assert.False(t, m.Tick(), "tick %d", i)
		assert.Equal(t, StatePolling, m.State())
	}
	assert.True(t, m.Tick())
	assert.Equal(t, StateConnecting, m.State())
	assert.Equal(t, 0, m.Failures())
}

func TestMachine_TickOutsidePollingIsNoop(t *testing.T) {
	m := newMachine(3, 5, time.Second, 15*time.Second)
	m.Opened()
	assert.False(t, m.Tick())
	assert.Equal(t, StateLive, m.State())
}

func TestMachine_RepeatedDemotePromoteCycle(t *testing.T) {
	m := newMachine(2, 2, time.Second, 15*time.Second)

	// Demote.
	m.Errored()
	m.Errored()
	assert.Equal(t, StatePolling, m.State())

	// Promote after two ticks.
	m.Tick()
	assert.True(t, m.Tick())
	assert.Equal(t, StateConnecting, m.State())

	// Fails again: counter restarted from zero, so demotion takes the
	// full threshold again.
	next, _ := m.Errored()
	assert.Equal(t, StateReconnecting, next)
	next, _ = m.Errored()
	assert.Equal(t, StatePolling, next)
}
