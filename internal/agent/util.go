package agent

import (
	"os"
	"strings"

	"github.com/autopeer-io/simetry/pkg/log"
)

// DiscoverAgentID returns the identity the agent announces itself with:
// SIMETRY_AGENT_ID if set, otherwise the hostname.
func DiscoverAgentID() string {
	if envID := strings.TrimSpace(os.Getenv("SIMETRY_AGENT_ID")); envID != "" {
		log.Debug("Agent ID detected from env", "id", envID)
		return envID
	}

	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}

	return "simetry-agent"
}
