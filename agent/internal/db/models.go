package db

import "time"

// Setting is one persisted key/value pair of application identity.
type Setting struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"size:1024"`
	UpdatedAt time.Time
}

// Photo records a capture triggered from the companion device.
type Photo struct {
	ID         string `gorm:"primaryKey;size:36"`
	SessionID  string `gorm:"index;size:36"`
	FileName   string `gorm:"size:512"`
	CapturedAt time.Time
}
