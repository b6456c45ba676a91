package config

// StreamConfig controls the server-side notification feed mirror.
// When enabled, the dashboard keeps a live copy of the upstream
// notification feed via SSE and serves it over plain REST, so the
// console stays current even for clients that cannot hold a stream.
type StreamConfig struct {
	// MirrorEnabled turns the server-side mirror on.
	MirrorEnabled bool `env:"UA_STREAM_MIRROR" envDefault:"false"`

	// FeedPath is the upstream SSE feed path, relative to the gateway
	// base URL.
	FeedPath string `env:"UA_STREAM_FEED_PATH" envDefault:"api/v1/ops/notifications/stream"`

	// ListPath is the REST listing path used in polling mode.
	ListPath string `env:"UA_STREAM_LIST_PATH" envDefault:"api/v1/ops/notifications"`

	// CountersPath is the aggregate counters path refreshed after bursts.
	CountersPath string `env:"UA_STREAM_COUNTERS_PATH" envDefault:"api/v1/ops/notifications/counters"`

	// Limit is the page-size hint sent on stream open and poll fetches.
	Limit int `env:"UA_STREAM_LIMIT" envDefault:"100"`

	// HeartbeatSeconds is the heartbeat interval hint sent on stream open.
	HeartbeatSeconds int `env:"UA_STREAM_HEARTBEAT" envDefault:"25"`

	// PollIntervalSeconds is the refetch cadence in polling mode.
	PollIntervalSeconds int `env:"UA_STREAM_POLL_INTERVAL" envDefault:"15"`
}

// Sanitize applies guardrails to stream configuration values.
func (s *StreamConfig) Sanitize() {
	if s.Limit <= 0 {
		s.Limit = 100
	}
	if s.HeartbeatSeconds <= 0 {
		s.HeartbeatSeconds = 25
	}
	if s.PollIntervalSeconds <= 0 {
		s.PollIntervalSeconds = 15
	}
}
