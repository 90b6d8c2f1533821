package topic

import (
	"fmt"
	"strings"
)

// Builder constructs the topic strings used by the agent.
type Builder struct {
	// root is the base namespace for all topics (e.g., "simetry/v1").
	root string
}

// NewBuilder creates a Builder under the given root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.TrimSuffix(root, "/")}
}

// Telemetry returns the topic snapshots of the given session are published on.
func (b *Builder) Telemetry(session string) string {
	return b.build(SuffixTelemetry, Segment(session))
}

// TelemetryWildcard matches the telemetry of every session.
func (b *Builder) TelemetryWildcard() string {
	return b.build(SuffixTelemetry, Wildcard)
}

// Session returns the retained status topic of one agent.
func (b *Builder) Session(clientID string) string {
	return b.build(SuffixSession, Segment(clientID))
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{suffix}/{identifier}
func (b *Builder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}

var segmentReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_", "\x00", "")

// Segment makes s usable as a single topic level. Session names come from the
// simulation and may contain separators or wildcards.
func Segment(s string) string {
	s = segmentReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return "_"
	}
	return s
}
