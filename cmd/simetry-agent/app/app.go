package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/simetry/cmd/simetry-agent/app/options"
	"github.com/autopeer-io/simetry/pkg/app"
	"github.com/autopeer-io/simetry/pkg/log"
)

const (
	commandName = "simetry-agent"
	commandDesc = `The simetry agent follows the sessions of a generic HTTP telemetry
endpoint, renders every snapshot locally and optionally forwards them to an
MQTT broker.`
)

func NewApp() *app.App {
	opts := options.NewAgentOptions()
	application := app.NewApp(
		commandName,
		"Launch a simetry telemetry agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithWatchConfig(app.ReloadLogLevel(log.SetLevel)),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.AgentOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		agent, err := cfg.NewAgent()
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		return agent.Run(ctx)
	}
}
