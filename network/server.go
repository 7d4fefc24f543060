package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// UDPChannel wraps a bound UDP socket. It is the only owner of the
// listening port for the lifetime of the process.
type UDPChannel struct {
	conn *net.UDPConn
	port int

	closeOnce sync.Once
}

// ListenUDP binds host:port. Port 0 picks a free port (used by tests).
func ListenUDP(host string, port int) (*UDPChannel, error) {
	if port < 0 || port > 65535 {
		return nil, &BindError{Addr: joinHostPort(host, port), Err: errors.New("invalid port")}
	}
	addr := joinHostPort(host, port)
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	return &UDPChannel{conn: conn, port: conn.LocalAddr().(*net.UDPAddr).Port}, nil
}

// Port returns the bound local port.
func (c *UDPChannel) Port() int { return c.port }

// LocalAddr returns the bound local address.
func (c *UDPChannel) LocalAddr() *net.UDPAddr { return c.conn.LocalAddr().(*net.UDPAddr) }

// Receive blocks for the next datagram or until ctx is done.
func (c *UDPChannel) Receive(ctx context.Context) (Datagram, error) {
	if c == nil || c.conn == nil {
		return Datagram{}, errors.New("channel not open")
	}
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return Datagram{}, fmt.Errorf("recv: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		// unblocks ReadFromUDP
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, MaxDatagramSize)
	n, from, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Datagram{}, ctxErr
		}
		return Datagram{}, fmt.Errorf("recv: %w", err)
	}
	return Datagram{Payload: buf[:n], From: from}, nil
}

// Close releases the socket. Safe to call more than once.
func (c *UDPChannel) Close() error {
	if c == nil || c.conn == nil {
		return errors.New("channel not open")
	}
	var err error
	c.closeOnce.Do(func() { err = c.conn.Close() })
	return err
}
