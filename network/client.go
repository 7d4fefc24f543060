package network

import (
	"errors"
	"fmt"
	"net"
)

// Send writes payload to host:port from the bound socket. Delivery is
// best effort; the peer does not acknowledge at this layer.
func (c *UDPChannel) Send(host string, port int, payload []byte) error {
	if c == nil || c.conn == nil {
		return errors.New("channel not open")
	}
	if host == "" || port <= 0 {
		return errors.New("invalid host or port")
	}
	raddr, err := net.ResolveUDPAddr("udp", joinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("resolve peer: %w", err)
	}
	if _, err := c.conn.WriteToUDP(payload, raddr); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// SendText dials host:port from an ephemeral socket and writes a single
// datagram. Used by the CLI to inject messages into a running agent.
func SendText(host string, port int, text string) error {
	if host == "" || port <= 0 {
		return errors.New("invalid host or port")
	}
	conn, err := net.Dial("udp", joinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(text)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
