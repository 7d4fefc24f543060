// Package events publishes session milestones for external observers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Type string

const (
	TypeStateChanged Type = "state_changed"
	TypeTrigger      Type = "trigger"
)

type Event struct {
	SessionID string    `json:"session_id"`
	Type      Type      `json:"type"`
	State     string    `json:"state,omitempty"`
	Command   string    `json:"command,omitempty"`
	Handled   bool      `json:"handled,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Redis publishes events as JSON on a pub/sub channel.
type Redis struct {
	client  *redis.Client
	channel string
}

// publishTimeout bounds how long a publish may hold up the caller, which
// is the session event loop.
const publishTimeout = 500 * time.Millisecond

func NewRedis(addr, channel string) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:        addr,
			DialTimeout: publishTimeout,
			MaxRetries:  -1,
		}),
		channel: channel,
	}
}

func (r *Redis) Publish(ctx context.Context, e Event) error {
	b, err := Encode(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, b).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }

func Encode(e Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return b, nil
}
