package stream

import "time"

// State names the connection lifecycle phases of the feed client.
type State string

const (
	// StateConnecting is the initial stream-open attempt.
	StateConnecting State = "connecting"
	// StateLive means an open stream is delivering events.
	StateLive State = "live"
	// StateReconnecting means the stream dropped and a retry is pending.
	StateReconnecting State = "reconnecting"
	// StatePolling means the stream was abandoned after repeated
	// failures and the client refetches on a timer instead.
	StatePolling State = "polling"
)

const (
	// DefaultFailureThreshold is how many consecutive open failures
	// demote the client to polling.
	DefaultFailureThreshold = 3
	// DefaultPromoteEvery is how many polling ticks pass between
	// attempts to return to live streaming.
	DefaultPromoteEvery = 5
	// DefaultBackoffBase scales linearly with the failure count.
	DefaultBackoffBase = time.Second
	// DefaultBackoffCap bounds the reconnect delay.
	DefaultBackoffCap = 15 * time.Second
)

// machine is the connection state machine, kept free of any I/O so the
// transition rules can be tested without a network. It is driven by
// four events: opened, errored, tick, and (implicitly) promote.
//
// Transitions:
//
//	connecting   --opened-->  live
//	live         --errored--> reconnecting (failures < threshold)
//	live         --errored--> polling      (failures >= threshold)
//	reconnecting --opened-->  live
//	polling      --tick(N)--> connecting   (promotion attempt)
type machine struct {
	state            State
	failures         int
	pollTicks        int
	failureThreshold int
	promoteEvery     int
	backoffBase      time.Duration
	backoffCap       time.Duration
}

func newMachine(failureThreshold, promoteEvery int, backoffBase, backoffCap time.Duration) *machine {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if promoteEvery <= 0 {
		promoteEvery = DefaultPromoteEvery
	}
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	if backoffCap <= 0 {
		backoffCap = DefaultBackoffCap
	}
	return &machine{
		state:            StateConnecting,
		failureThreshold: failureThreshold,
		promoteEvery:     promoteEvery,
		backoffBase:      backoffBase,
		backoffCap:       backoffCap,
	}
}

// State returns the current phase.
func (m *machine) State() State {
	return m.state
}

// Failures returns the consecutive stream-open failure count.
func (m *machine) Failures() int {
	return m.failures
}

// Opened records a successful stream open: the failure counter resets
// and the client is live.
func (m *machine) Opened() {
	m.failures = 0
	m.state = StateLive
}

// Errored records a stream failure. When the consecutive failure count
// reaches the threshold the client demotes to polling (zero delay);
// otherwise it schedules a reconnect after a delay proportional to the
// failure count, capped.
func (m *machine) Errored() (next State, delay time.Duration) {
	m.failures++
	if m.failures >= m.failureThreshold {
		m.state = StatePolling
		m.pollTicks = 0
		return m.state, 0
	}
	m.state = StateReconnecting
	delay = time.Duration(m.failures) * m.backoffBase
	if delay > m.backoffCap {
		delay = m.backoffCap
	}
	return m.state, delay
}

// Tick records one polling cycle. Every promoteEvery-th tick the
// machine resets its failure state and moves back to connecting so the
// client can attempt to re-establish the stream.
func (m *machine) Tick() (promote bool) {
	if m.state != StatePolling {
		return false
	}
	m.pollTicks++
	if m.pollTicks%m.promoteEvery != 0 {
		return false
	}
	m.failures = 0
	m.pollTicks = 0
	m.state = StateConnecting
	return true
}
