package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"talk2cam/agent/internal/action"
	"talk2cam/agent/internal/logger"
)

// Request actions understood by the companion service.
const (
	ActionAuthorize    = "authorize"
	ActionCreateAction = "create_action"
	ActionNotify       = "notify"
)

// Sender writes one datagram to a peer. *network.UDPChannel satisfies it.
type Sender interface {
	Send(host string, port int, payload []byte) error
}

// Presence reports which companion variants are installed.
type Presence interface {
	ProInstalled() bool
	ServiceInstalled() bool
}

// AuthRequest identifies this application to the companion and tells it
// how to reach us.
type AuthRequest struct {
	AppName     string `json:"app_name"`
	Version     string `json:"version"`
	AppKey      string `json:"app_key"`
	Transport   string `json:"transport"`
	Port        string `json:"port"`
	Description string `json:"description"`
}

type createActionData struct {
	Title       string `json:"title"`
	Command     string `json:"command"`
	Description string `json:"description"`
}

type notifyData struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Client talks to the companion service over the shared datagram channel.
// Every request is one JSON envelope in one datagram; replies arrive as
// plain literals on the agent's listening port.
type Client struct {
	sender   Sender
	host     string
	port     int
	presence Presence

	ready     chan struct{}
	readyOnce sync.Once
}

func New(sender Sender, host string, port int, presence Presence) *Client {
	return &Client{
		sender:   sender,
		host:     host,
		port:     port,
		presence: presence,
		ready:    make(chan struct{}),
	}
}

// Start marks the transmission path as ready. The channel returned by
// Ready is closed exactly once.
func (c *Client) Start() {
	c.readyOnce.Do(func() {
		logger.Infof("Companion transmission ready, peer %s:%d", c.host, c.port)
		close(c.ready)
	})
}

// Ready is closed once the client can exchange authorization messages.
func (c *Client) Ready() <-chan struct{} { return c.ready }

func (c *Client) IsProInstalled() bool     { return c.presence != nil && c.presence.ProInstalled() }
func (c *Client) IsServiceInstalled() bool { return c.presence != nil && c.presence.ServiceInstalled() }

func (c *Client) SendAuthorizationRequest(ctx context.Context, req AuthRequest) error {
	return c.send(ctx, ActionAuthorize, req)
}

func (c *Client) RegisterAction(ctx context.Context, d action.Descriptor) error {
	return c.send(ctx, ActionCreateAction, createActionData{
		Title:       d.Title,
		Command:     d.Command,
		Description: d.Description,
	})
}

func (c *Client) SendNotification(ctx context.Context, title, body string) error {
	return c.send(ctx, ActionNotify, notifyData{Title: title, Body: body})
}

func (c *Client) send(ctx context.Context, act string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := Encode(act, data)
	if err != nil {
		return err
	}
	if err := c.sender.Send(c.host, c.port, b); err != nil {
		return fmt.Errorf("send %s: %w", act, err)
	}
	logger.Debugf("Companion request sent: %s", act)
	return nil
}

// Envelope is the wire form of a request to the companion.
type Envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Encode builds the datagram payload for act.
func Encode(act string, data interface{}) ([]byte, error) {
	payload := struct {
		Action string      `json:"action"`
		Data   interface{} `json:"data,omitempty"`
	}{
		Action: act,
		Data:   data,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}
