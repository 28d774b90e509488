// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping for MySQL
// (production) and pure-Go SQLite (development/tests), schema migrations,
// and the sentinel errors shared by all repository helpers.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-blog-backend/internal/config"
	"github.com/tbourn/go-blog-backend/internal/domain"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate indicates a unique-constraint violation, e.g. a second like
// for the same (article, user, type) or a second vote for (article, user).
var ErrDuplicate = errors.New("duplicate")

// Open connects to the relational store selected by cfg and configures the
// connection pool. The handle is built once at startup, shared across
// requests, and closed on shutdown via Close.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	switch cfg.Driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	case "sqlite":
		// Fail early if the parent directory does not exist instead of a
		// confusing sqlite "out of memory (14)".
		if dir := filepath.Dir(cfg.DSN); dir != "." && !strings.HasPrefix(cfg.DSN, "file:") {
			if _, statErr := os.Stat(dir); statErr != nil {
				return nil, statErr
			}
		}
		db, err = gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
		if err == nil {
			db.Exec("PRAGMA journal_mode=WAL;")
			db.Exec("PRAGMA synchronous=NORMAL;")
			db.Exec("PRAGMA foreign_keys=ON;")
			db.Exec("PRAGMA busy_timeout=5000;")
		}
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	// Trace queries through the global tracer provider; a no-op when
	// tracing is disabled.
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates the schema for all domain models, including
// the unique indexes that back the data-layer idempotence guarantees.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Category{},
		&domain.Article{},
		&domain.ArticleReaction{},
		&domain.ArticleVote{},
		&domain.BrowsingStat{},
	)
}

// isDuplicateErr detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// MySQL: "Duplicate entry ... for key ..."
	// SQLite: "UNIQUE constraint failed" / "constraint failed: UNIQUE"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique") ||
		strings.Contains(msg, "duplicate entry")
}
