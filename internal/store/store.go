// Package store persists collected network metrics, derived profitability
// analyses and run snapshots in an embedded SQLite database.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed width down to milliseconds so the stored strings sort
// chronologically under plain lexicographic comparison.
const timeLayout = "2006-01-02 15:04:05.000"

// Metrics records metrics for store operations.
type Metrics interface {
	Observe(operation string, err error, started time.Time)
}

// Store owns the database file. Connections are opened per operation; SQLite
// serializes writers through the busy timeout.
type Store struct {
	path    string
	logger  *zap.Logger
	metrics Metrics
}

// New creates the database file and its parent directory if needed and applies
// pending migrations.
func New(path string, logger *zap.Logger, metrics Metrics) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if metrics == nil {
		return nil, errors.New("store metrics is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	s := &Store{
		path:    path,
		logger:  logger.Named("store"),
		metrics: metrics,
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	s.logger.Info("database ready", zap.String("path", path))
	return s, nil
}

func (s *Store) migrate() error {
	db, err := s.open()
	if err != nil {
		return err
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("init migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("init migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+s.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
