package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionRecord is the row persisted by the sqlite and postgres drivers.
type SessionRecord struct {
	SessionKey string         `gorm:"primaryKey;column:session_key;size:128"`
	Token      string         `gorm:"type:text;not null"`
	Subject    string         `gorm:"size:255"`
	Roles      datatypes.JSON `gorm:"not null"`
	UpdatedAt  time.Time
}

func (SessionRecord) TableName() string {
	return "console_sessions"
}

type sqlStore struct {
	db  *gorm.DB
	key string
}

// NewSQL builds a gorm-backed store and migrates its table.
func NewSQL(db *gorm.DB, cfg Config) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sql store requires database handle")
	}
	if err := db.AutoMigrate(&SessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate console_sessions: %w", err)
	}
	return &sqlStore{db: db, key: cfg.key()}, nil
}

func (s *sqlStore) Load(ctx context.Context) (Record, error) {
	var row SessionRecord
	err := s.db.WithContext(ctx).Where("session_key = ?", s.key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	var roles []string
	if len(row.Roles) > 0 {
		if err := json.Unmarshal(row.Roles, &roles); err != nil {
			return Record{}, fmt.Errorf("decode roles: %w", err)
		}
	}
	return Record{
		Token:   row.Token,
		Subject: row.Subject,
		Roles:   roles,
		SavedAt: row.UpdatedAt,
	}, nil
}

func (s *sqlStore) Save(ctx context.Context, rec Record) error {
	roles := rec.Roles
	if roles == nil {
		roles = []string{}
	}
	raw, err := json.Marshal(roles)
	if err != nil {
		return err
	}
	row := SessionRecord{
		SessionKey: s.key,
		Token:      rec.Token,
		Subject:    rec.Subject,
		Roles:      datatypes.JSON(raw),
		UpdatedAt:  rec.SavedAt,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_key = ?", s.key).Delete(&SessionRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
}

func (s *sqlStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("session_key = ?", s.key).Delete(&SessionRecord{}).Error
}

// Close leaves the shared database handle to its owner.
func (s *sqlStore) Close() error { return nil }
