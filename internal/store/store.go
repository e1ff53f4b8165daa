// Package store persists interview state, credentials and events in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	_ "modernc.org/sqlite"
)

// pragmas are applied by the driver to every pooled connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// Store is an open database. Repositories obtained from it share its
// connection pool.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
}

// Open opens the SQLite database at path, creating it and its tables when
// missing.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Store{db: db, drv: drv}, nil
}

func dsn(path string) string {
	q := url.Values{"_pragma": pragmas}
	return path + "?" + q.Encode()
}

// DB exposes the pool for ad-hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.drv.Close() }

func (s *Store) ProgressRepo() ProgressRepo     { return &progressRepo{drv: s.drv} }
func (s *Store) RecordingRepo() RecordingRepo   { return &recordingRepo{drv: s.drv} }
func (s *Store) SessionRepo() SessionRepo       { return &sessionRepo{drv: s.drv} }
func (s *Store) CredentialRepo() CredentialRepo { return &credentialRepo{drv: s.drv} }
func (s *Store) EventRepo() EventRepo           { return &eventRepo{drv: s.drv} }

// DataHome is $XDG_DATA_HOME/mockt, falling back to ~/.local/share/mockt.
func DataHome() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "mockt"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "mockt"), nil
}

// EnsureDir creates the directory that will hold path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
