// Package camera tracks viewfinder state and records captures. Pixel
// acquisition belongs to the platform and is not modelled here.
package camera

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"talk2cam/agent/internal/db"
	"talk2cam/agent/internal/logger"
)

var ErrNotOpen = errors.New("camera not open")

// Camera is a single logical camera device.
type Camera struct {
	db        *gorm.DB
	photoDir  string
	sessionID string
	now       func() time.Time

	mu         sync.Mutex
	open       bool
	viewfinder bool
	visible    bool
	last       *db.Photo
}

func New(gdb *gorm.DB, photoDir, sessionID string) *Camera {
	return &Camera{db: gdb, photoDir: photoDir, sessionID: sessionID, now: time.Now}
}

func (c *Camera) IsViewfinderVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

func (c *Camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	logger.Info("Camera opened")
	return nil
}

// StopViewfinder is a no-op when the viewfinder is not running.
func (c *Camera) StopViewfinder() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewfinder = false
	return nil
}

func (c *Camera) StartViewfinder() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return ErrNotOpen
	}
	c.viewfinder = true
	return nil
}

func (c *Camera) SetVisible(v bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = v
	return nil
}

// CapturePhoto records a new photo for the current session.
func (c *Camera) CapturePhoto() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open || !c.viewfinder {
		return ErrNotOpen
	}
	id := uuid.NewString()
	p := db.Photo{
		ID:         id,
		SessionID:  c.sessionID,
		FileName:   filepath.Join(c.photoDir, id+".jpg"),
		CapturedAt: c.now(),
	}
	if c.db != nil {
		if err := c.db.Create(&p).Error; err != nil {
			return fmt.Errorf("record photo: %w", err)
		}
	}
	c.last = &p
	logger.Infof("Photo captured id=%s file=%s", p.ID, p.FileName)
	return nil
}

// LastPhoto returns the most recent capture of this process, if any.
func (c *Camera) LastPhoto() (db.Photo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return db.Photo{}, false
	}
	return *c.last, true
}
