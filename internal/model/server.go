package model

import (
	"context"
	"net"
)

// SecurityLayer opens the listener a Server accepts connections on.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a network server with a managed lifecycle. Both the public HTTP
// API and the internal gRPC API implement it.
type Server interface {
	// Start blocks until the server stops.
	Start(securityLayer SecurityLayer) error
	// Stop drains in-flight requests until ctx is done.
	Stop(ctx context.Context) error
	Address() string
}
