package agent

import (
	"fmt"
	"io"
	"os"

	"github.com/autopeer-io/simetry/internal/pkg/server"
	"github.com/autopeer-io/simetry/pkg/log"
	"github.com/autopeer-io/simetry/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/simetry/pkg/mqtt/topic"
	"github.com/autopeer-io/simetry/pkg/options"
)

// Config is the runtime configuration of the agent.
type Config struct {
	SourceOptions *options.SourceOptions
	HttpOptions   *options.HttpOptions
	MqttOptions   *options.MqttOptions
	OutputOptions *options.OutputOptions

	// Stdout receives table output. Nil means os.Stdout.
	Stdout io.Writer
}

// NewAgent builds the agent, its sinks and its probe server from the configuration.
func (cfg *Config) NewAgent() (*Agent, error) {
	id := DiscoverAgentID()
	a := NewAgent(id, cfg.SourceOptions)

	if cfg.OutputOptions != nil {
		switch cfg.OutputOptions.Format {
		case options.OutputLog:
			a.sinks = append(a.sinks, NewLogSink(log.WithName("frames")))
		case options.OutputTable:
			out := cfg.Stdout
			if out == nil {
				out = os.Stdout
			}
			a.sinks = append(a.sinks, NewTableSink(out))
		}
	}

	if cfg.MqttOptions.Enabled() {
		client, topics, err := cfg.initMqttClientAndTopicBuilder(id)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		a.mqttClient = client
		a.mqttSink = NewMQTTSink(client, topics, id, cfg.MqttOptions.QoS, log.WithName("mqtt"))
		a.sinks = append(a.sinks, a.mqttSink)
	}

	if cfg.HttpOptions != nil {
		a.probe = server.NewHTTPServer(cfg.HttpOptions, a.Connected)
	}

	return a, nil
}

func (cfg *Config) initMqttClientAndTopicBuilder(id string) (mqtt.Client, *mqtttopic.Builder, error) {
	topicBuilder := mqtttopic.NewBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = fmt.Sprintf("simetry-agent-%s", mqtttopic.Segment(id))
	}

	mqttConfig.WillTopic = topicBuilder.Session(id)
	mqttConfig.WillPayload = WillPayload(id)
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	mqttClient, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, nil, err
	}

	return mqttClient, topicBuilder, nil
}
