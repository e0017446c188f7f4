package database

import (
	"fmt"
	"log"

	"github.com/nookcoder/clinic-console/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSessionDB opens the database backing the sqlite/postgres session drivers.
// It returns nil, nil for drivers that do not need one.
func NewSessionDB(cfg config.Config) (*gorm.DB, error) {
	switch cfg.Session.Driver {
	case "sqlite":
		return NewSQLiteDB(cfg.Session.DSN)
	case "postgres":
		return NewPostgresDB(cfg.Session.DSN)
	default:
		return nil, nil
	}
}

// NewPostgresDB initializes a connection to PostgreSQL using GORM
func NewPostgresDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres session driver requires session.dsn")
	}
	// DSN Format: host=localhost user=clinic password=clinic dbname=clinic port=5432 sslmode=disable TimeZone=UTC
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Connected to PostgreSQL successfully")

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// One operator session: a handful of connections is plenty.
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)

	return db, nil
}

// NewSQLiteDB opens (creating if needed) a SQLite database file.
func NewSQLiteDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "clinic-console.db"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers anyway.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
