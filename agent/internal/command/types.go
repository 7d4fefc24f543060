package command

import "context"

// Handler reacts to one trigger command sent back by the companion.
type Handler interface {
	HandleTrigger(ctx context.Context) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context) error

func (f HandlerFunc) HandleTrigger(ctx context.Context) error { return f(ctx) }

// Camera is the subset of camera control used by trigger handlers.
type Camera interface {
	IsViewfinderVisible() bool
	Open() error
	StopViewfinder() error
	StartViewfinder() error
	SetVisible(bool) error
	CapturePhoto() error
}

// Notifier delivers a user-visible message through the companion device.
type Notifier interface {
	SendNotification(ctx context.Context, title, body string) error
}
