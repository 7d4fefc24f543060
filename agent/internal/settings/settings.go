// Package settings persists the application identity sent to the
// companion during authorization.
package settings

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"talk2cam/agent/internal/db"
)

const (
	keyAppName = "appName"
	keyVersion = "version"
	keyAppKey  = "appKey"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("settings not found")

type Values struct {
	AppName string
	Version string
	AppKey  string
}

type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store { return &Store{db: gdb} }

// Save writes all three values, replacing earlier ones.
func (s *Store) Save(ctx context.Context, v Values) error {
	rows := []db.Setting{
		{Key: keyAppName, Value: v.AppName},
		{Key: keyVersion, Value: v.Version},
		{Key: keyAppKey, Value: v.AppKey},
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (Values, error) {
	var rows []db.Setting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return Values{}, fmt.Errorf("load settings: %w", err)
	}
	if len(rows) == 0 {
		return Values{}, ErrNotFound
	}
	var v Values
	for _, r := range rows {
		switch r.Key {
		case keyAppName:
			v.AppName = r.Value
		case keyVersion:
			v.Version = r.Value
		case keyAppKey:
			v.AppKey = r.Value
		}
	}
	return v, nil
}

// Seed stores v at startup and returns what was stored. Values are
// written on every start so that a new version is picked up.
func (s *Store) Seed(ctx context.Context, v Values) (Values, error) {
	if err := s.Save(ctx, v); err != nil {
		return Values{}, err
	}
	return s.Load(ctx)
}
