// Package tokenstore persists the console session between process runs so a
// restart does not require signing in again.
package tokenstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when nothing has been saved.
var ErrNotFound = errors.New("no persisted session")

// Record is what survives a restart. Subject and Roles mirror the identity
// decoded at save time; loaders re-derive the identity from Token.
type Record struct {
	Token   string    `json:"token" yaml:"token"`
	Subject string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Roles   []string  `json:"roles,omitempty" yaml:"roles,omitempty"`
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`
}

// Store defines the behaviour required by the session store.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
	Close() error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	// Key namespaces the record in shared backends (sql, redis).
	Key   string
	Path  string
	Redis *RedisConfig
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

func (c Config) key() string {
	if c.Key == "" {
		return "default"
	}
	return c.Key
}
