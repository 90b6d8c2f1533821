package topic

// Topic levels published by the simetry agent. Changing them breaks existing subscribers.
const (
	// SuffixTelemetry carries one JSON snapshot per poll: {root}/telemetry/{session}.
	SuffixTelemetry = "telemetry"

	// SuffixSession carries the retained status of an agent: {root}/session/{agent}.
	SuffixSession = "session"

	// Wildcard is the MQTT single-level wildcard.
	Wildcard = "+"
)
