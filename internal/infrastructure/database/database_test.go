package database_test

import (
	"path/filepath"
	"testing"

	"github.com/nookcoder/clinic-console/config"
	"github.com/nookcoder/clinic-console/internal/infrastructure/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionDB_SQLite(t *testing.T) {
	var cfg config.Config
	cfg.Session.Driver = "sqlite"
	cfg.Session.DSN = filepath.Join(t.TempDir(), "session.db")

	db, err := database.NewSessionDB(cfg)

	require.NoError(t, err)
	require.NotNil(t, db)
	assert.NoError(t, db.Exec("SELECT 1").Error)
	assert.NoError(t, database.Close(db))
}

func TestNewSessionDB_NotNeeded(t *testing.T) {
	var cfg config.Config
	cfg.Session.Driver = "file"

	db, err := database.NewSessionDB(cfg)

	assert.NoError(t, err)
	assert.Nil(t, db)
	assert.NoError(t, database.Close(db))
}

func TestNewPostgresDB_RequiresDSN(t *testing.T) {
	_, err := database.NewPostgresDB("")
	assert.Error(t, err)
}
