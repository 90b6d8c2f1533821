package mqtt

import (
	"context"
	"errors"
)

var (
	// ErrNotStarted is returned by calls made before Start.
	ErrNotStarted = errors.New("mqtt: client not started")

	// ErrNotConnected is returned by Publish while the broker is unreachable.
	ErrNotConnected = errors.New("mqtt: not connected")
)

// Publisher is the publishing half of Client.
type Publisher interface {
	// Publish sends payload to topic. Retained payloads are remembered and
	// published again after every reconnect.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error
}

// Client is a publishing MQTT client that reconnects on its own.
type Client interface {
	Publisher

	// Start initiates the connection to the broker.
	// It is non-blocking and returns immediately. Use AwaitConnection to wait.
	Start(ctx context.Context) error

	// Disconnect cleanly closes the connection. The will is not published.
	Disconnect(ctx context.Context)

	// AwaitConnection blocks until the client is connected to the broker.
	AwaitConnection(ctx context.Context) error

	// IsConnected returns true if the client is currently connected.
	IsConnected() bool
}
