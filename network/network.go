package network

import (
	"fmt"
	"net"
)

// MaxDatagramSize is the largest payload read from the socket in one call.
const MaxDatagramSize = 64 * 1024

// Datagram is one raw inbound packet with its sender.
type Datagram struct {
	Payload []byte
	From    *net.UDPAddr
}

// Message decodes the datagram payload.
func (d Datagram) Message() Message { return Decode(d.Payload) }

// BindError reports that the listening port could not be acquired.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, fmt.Sprintf("%d", port))
}
