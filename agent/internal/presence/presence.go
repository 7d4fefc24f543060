// Package presence answers whether the companion service is installed on
// this host.
package presence

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// Static returns fixed answers, typically taken from configuration.
type Static struct {
	Pro     bool
	Service bool
}

func (s Static) ProInstalled() bool     { return s.Pro }
func (s Static) ServiceInstalled() bool { return s.Service }

// DBus treats a companion variant as installed when its well-known name
// is either owned on the bus or activatable.
type DBus struct {
	conn        *dbus.Conn
	proName     string
	serviceName string

	mu sync.Mutex
}

// NewDBus connects to the "session" or "system" bus.
func NewDBus(bus, proName, serviceName string) (*DBus, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	switch bus {
	case "system":
		conn, err = dbus.SystemBus()
	case "session", "":
		conn, err = dbus.SessionBus()
	default:
		return nil, fmt.Errorf("unknown bus %q", bus)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s bus: %w", bus, err)
	}
	return &DBus{conn: conn, proName: proName, serviceName: serviceName}, nil
}

func (d *DBus) Close() error { return d.conn.Close() }

func (d *DBus) ProInstalled() bool     { return d.installed(d.proName) }
func (d *DBus) ServiceInstalled() bool { return d.installed(d.serviceName) }

func (d *DBus) installed(name string) bool {
	if name == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, method := range []string{"org.freedesktop.DBus.ListNames", "org.freedesktop.DBus.ListActivatableNames"} {
		var names []string
		if err := d.conn.BusObject().Call(method, 0).Store(&names); err != nil {
			continue
		}
		if containsName(names, name) {
			return true
		}
	}
	return false
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
