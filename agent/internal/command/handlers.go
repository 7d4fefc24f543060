package command

import (
	"context"
	"fmt"
)

// Notification texts shown on the companion device.
const (
	SavedTitle    = "Picture saved"
	SavedBody     = "You look nice!"
	StartingTitle = "Starting the camera..."
	StartingBody  = "Please fire the script again to take the picture"
)

// TakePicture arms the camera on the first trigger and captures on the
// next one. A single trigger never both opens and captures.
type TakePicture struct {
	Camera   Camera
	Notifier Notifier
}

func (h TakePicture) HandleTrigger(ctx context.Context) error {
	if h.Camera.IsViewfinderVisible() {
		if err := h.Camera.CapturePhoto(); err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		return h.notify(ctx, SavedTitle, SavedBody)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"stop viewfinder", h.Camera.StopViewfinder},
		{"open", h.Camera.Open},
		{"start viewfinder", h.Camera.StartViewfinder},
		{"show viewfinder", func() error { return h.Camera.SetVisible(true) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return h.notify(ctx, StartingTitle, StartingBody)
}

func (h TakePicture) notify(ctx context.Context, title, body string) error {
	if err := h.Notifier.SendNotification(ctx, title, body); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
