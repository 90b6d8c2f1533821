package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/simetry/cmd/simetry-server/app/options"
	"github.com/autopeer-io/simetry/pkg/app"
	"github.com/autopeer-io/simetry/pkg/log"
)

const (
	commandName = "simetry-server"
	commandDesc = `The simetry server publishes a simulation state on a generic HTTP
telemetry endpoint. The state is pushed with PUT / or replayed from a
YAML scenario file.`
)

func NewApp() *app.App {
	opts := options.NewServerOptions()
	application := app.NewApp(
		commandName,
		"Launch a generic HTTP telemetry endpoint",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithWatchConfig(app.ReloadLogLevel(log.SetLevel)),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		srv, err := cfg.New()
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return srv.Run(ctx)
	}
}
