package simserver

import (
	"context"

	"github.com/autopeer-io/simetry/internal/pkg/server"
	"github.com/autopeer-io/simetry/pkg/log"
	"github.com/autopeer-io/simetry/pkg/options"
)

// Config is the runtime configuration of the state endpoint.
type Config struct {
	HttpOptions     *options.HttpOptions
	ScenarioOptions *options.ScenarioOptions
}

// Server serves a simulation state over HTTP and optionally replays a scenario into it.
type Server struct {
	store   *Store
	http    *server.HTTPServer
	player  *Player
	manager *server.Manager
}

// New builds the state endpoint from the configuration.
func (c *Config) New() (*Server, error) {
	logger := log.WithName("simserver")
	store := NewStore()

	httpSrv := server.NewHTTPServer(c.HttpOptions, nil)
	RegisterRoutes(httpSrv.Router(), store, logger)

	s := &Server{
		store:   store,
		http:    httpSrv,
		manager: server.NewManager(httpSrv),
	}

	if so := c.ScenarioOptions; so != nil && so.File != "" {
		sc, err := LoadScenario(so.File)
		if err != nil {
			return nil, err
		}
		if so.Interval > 0 {
			sc.Interval = so.Interval
		}
		if so.Loop {
			sc.Loop = true
		}
		s.player = NewPlayer(sc, store, nil, logger.WithName("scenario"))
		s.manager.Add(s.player)
	}

	return s, nil
}

// Store returns the state store.
func (s *Server) Store() *Store {
	return s.store
}

// Run serves until ctx is done. A finished scenario does not stop the server.
func (s *Server) Run(ctx context.Context) error {
	return s.manager.Start(ctx)
}
