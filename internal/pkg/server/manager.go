package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/simetry/pkg/log"
)

// Server is anything the Manager runs until ctx is done.
type Server interface {
	Start(ctx context.Context) error
}

// ServerFunc adapts a plain function to Server.
type ServerFunc func(ctx context.Context) error

func (f ServerFunc) Start(ctx context.Context) error { return f(ctx) }

// Manager runs a set of servers together: the first one to fail stops the others.
type Manager struct {
	servers []Server
}

// NewManager creates a Manager for the given servers.
func NewManager(servers ...Server) *Manager {
	return &Manager{servers: servers}
}

// Add appends a server. It must be called before Start.
func (m *Manager) Add(s Server) {
	m.servers = append(m.servers, s)
}

// Start launches all servers in parallel and waits for termination.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		srv := srv
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
