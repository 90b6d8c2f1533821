package agent

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/autopeer-io/simetry/pkg/generichttp"
	"github.com/autopeer-io/simetry/pkg/log"
	"github.com/autopeer-io/simetry/pkg/mqtt"
	"github.com/autopeer-io/simetry/pkg/mqtt/topic"
)

var (
	_ Sink            = (*MQTTSink)(nil)
	_ SessionObserver = (*MQTTSink)(nil)
)

// Status reasons carried by AgentStatus.
const (
	ReasonSessionStarted       = "SessionStarted"
	ReasonSessionEnded         = "SessionEnded"
	ReasonIdle                 = "Idle"
	ReasonShutdown             = "Shutdown"
	ReasonUnexpectedDisconnect = "UnexpectedDisconnect"
)

// AgentStatus is the retained message describing what an agent is doing.
type AgentStatus struct {
	Agent     string `json:"agent"`
	Online    bool   `json:"online"`
	Connected bool   `json:"connected"`
	Session   string `json:"session,omitempty"`
	Reason    string `json:"reason"`
}

// MQTTSink forwards snapshots to a broker and keeps the agent's status topic current.
type MQTTSink struct {
	publisher mqtt.Publisher
	topics    *topic.Builder
	agentID   string
	qos       int
	log       log.Logger

	// statusMu orders retained status publishes and guards inSession.
	statusMu  sync.Mutex
	inSession bool
}

func NewMQTTSink(publisher mqtt.Publisher, topics *topic.Builder, agentID string, qos int, logger log.Logger) *MQTTSink {
	return &MQTTSink{
		publisher: publisher,
		topics:    topics,
		agentID:   agentID,
		qos:       qos,
		log:       logger,
	}
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Forward(ctx context.Context, session string, state *generichttp.SimState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, s.topics.Telemetry(session), s.qos, false, payload)
}

func (s *MQTTSink) SessionStarted(ctx context.Context, session, _ string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.inSession = true
	s.publishStatus(ctx, AgentStatus{Online: true, Connected: true, Session: session, Reason: ReasonSessionStarted})
}

func (s *MQTTSink) SessionEnded(ctx context.Context, session string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.inSession = false
	s.publishStatus(ctx, AgentStatus{Online: true, Session: session, Reason: ReasonSessionEnded})
}

// PublishIdle publishes the idle status unless a session has already been
// announced. It never overwrites a SessionStarted status.
func (s *MQTTSink) PublishIdle(ctx context.Context) bool {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.inSession {
		return false
	}
	s.publishStatus(ctx, AgentStatus{Online: true, Reason: ReasonIdle})
	return true
}

// PublishStatus publishes a retained status for this agent. Failures are logged.
func (s *MQTTSink) PublishStatus(ctx context.Context, status AgentStatus) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.publishStatus(ctx, status)
}

func (s *MQTTSink) publishStatus(ctx context.Context, status AgentStatus) {
	status.Agent = s.agentID
	payload, err := json.Marshal(status)
	if err != nil {
		s.log.Error(err, "Failed to marshal agent status")
		return
	}
	if err := s.publisher.Publish(ctx, s.topics.Session(s.agentID), 1, true, payload); err != nil {
		s.log.Warn("Failed to publish agent status", "reason", status.Reason, "error", err.Error())
	}
}

// WillPayload is the status the broker publishes if the agent disappears.
func WillPayload(agentID string) []byte {
	// Receivers rely on the broker's delivery time, so the payload carries no timestamp.
	payload, _ := json.Marshal(AgentStatus{Agent: agentID, Reason: ReasonUnexpectedDisconnect})
	return payload
}
