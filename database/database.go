package database

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Installation is the persisted random installation identifier backing the
// fallback fingerprint. Written once, reused forever.
type Installation struct {
	gorm.Model
	Value string
}

// Identity is the locally persisted student credential and profile, bound to
// the fingerprint presented at registration.
type Identity struct {
	gorm.Model
	Token       string
	StudentID   string
	Name        string
	RollNumber  string `gorm:"index"`
	Email       string
	Department  string
	Year        int
	Section     string
	Fingerprint string
}

// DB owns the two local stores: a gorm connection for durable client state
// and a plain database/sql connection for the attendance history cache.
type DB struct {
	state      *gorm.DB
	stateMutex sync.Mutex

	history      *sql.DB
	historyMutex sync.Mutex
}

// Open connects both stores under dir and migrates the state schema.
func Open(dir string) (*DB, error) {
	state, err := gorm.Open(sqlite.Open(filepath.Join(dir, "state.db")), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := state.AutoMigrate(&Installation{}, &Identity{}); err != nil {
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	history, err := sql.Open("sqlite3", filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := history.Exec(`CREATE TABLE IF NOT EXISTS attendance_history (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		teacher TEXT,
		marked_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL
	)`); err != nil {
		history.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}

	return &DB{state: state, history: history}, nil
}

func (d *DB) Close() error {
	var firstErr error
	if sqlDB, err := d.state.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			firstErr = err
		}
	}
	if err := d.history.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
