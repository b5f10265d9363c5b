// Package store persists saved connection profiles in SQLite. Passwords
// never touch the database; they live in the system keychain.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cblog "github.com/charmbracelet/log"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = "2006-01-02 15:04:05"

// Profile is a saved set of login details
type Profile struct {
	ID         int64
	Name       string
	Host       string
	Port       int
	Username   string
	Databases  []string
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Connection converts the profile into login details for the gateway
func (p Profile) Connection() model.Connection {
	return model.Connection{
		Name:      p.Name,
		Host:      p.Host,
		Port:      p.Port,
		Username:  p.Username,
		Databases: p.Databases,
	}
}

// Validate checks the fields the gateway needs to log in
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperrors.ValidationError("PROFILE_NAME_REQUIRED", "Profile name is required")
	}
	if strings.TrimSpace(p.Host) == "" {
		return apperrors.ValidationError("HOST_REQUIRED", "Host is required")
	}
	if p.Port < 1 || p.Port > 65535 {
		return apperrors.ValidationError("INVALID_PORT", fmt.Sprintf("Port must be between 1 and 65535, got %d", p.Port))
	}
	return nil
}

// Store manages profile persistence
type Store struct {
	db     *sql.DB
	logger *cblog.Logger
}

// Open opens (and creates if needed) the profile database at path
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrorStorage, "STORE_DIR", "Failed to create profile directory").
				WithContext("path", path)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorStorage, "STORE_OPEN", "Failed to open profile database").
			WithContext("path", path)
	}
	// one connection keeps ":memory:" databases alive between calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrorStorage, "STORE_SCHEMA", "Failed to initialise profile database")
	}

	return &Store{db: db, logger: cblog.With("component", "store")}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns profiles, most recently used first
func (s *Store) List(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, host, port, username, databases, created_at, COALESCE(last_used_at, '')
		FROM profiles
		ORDER BY last_used_at IS NULL, last_used_at DESC, name`)
	if err != nil {
		return nil, storageError(err, "Failed to load profiles")
	}
	defer func() { _ = rows.Close() }()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, storageError(err, "Failed to read profile")
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "Failed to load profiles")
	}
	return profiles, nil
}

// Get returns the profile called name
func (s *Store) Get(ctx context.Context, name string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, host, port, username, databases, created_at, COALESCE(last_used_at, '')
		FROM profiles WHERE name = ?`, name)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, notFound(name)
	}
	if err != nil {
		return Profile{}, storageError(err, "Failed to read profile")
	}
	return p, nil
}

// Create saves a new profile. Names are unique.
func (s *Store) Create(ctx context.Context, p Profile) (Profile, error) {
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Host = strings.TrimSpace(p.Host)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (name, host, port, username, databases)
		VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Host, p.Port, p.Username, strings.Join(p.Databases, ","))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return Profile{}, apperrors.ConflictError("PROFILE_EXISTS",
				fmt.Sprintf("Profile %s already exists", p.Name))
		}
		return Profile{}, storageError(err, "Failed to save profile")
	}

	p.ID, _ = res.LastInsertId()
	s.logger.Info("Profile saved", "name", p.Name, "host", p.Host)
	return s.Get(ctx, p.Name)
}

// Delete removes the profile called name
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return storageError(err, "Failed to delete profile")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(name)
	}
	s.logger.Info("Profile deleted", "name", name)
	return nil
}

// Touch records that the profile was just used to connect
func (s *Store) Touch(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET last_used_at = ? WHERE name = ?`,
		time.Now().UTC().Format(timeLayout), name)
	if err != nil {
		return storageError(err, "Failed to update profile")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (Profile, error) {
	var (
		p                   Profile
		databases           string
		createdAt, lastUsed string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Host, &p.Port, &p.Username, &databases, &createdAt, &lastUsed); err != nil {
		return Profile{}, err
	}
	if databases != "" {
		p.Databases = strings.Split(databases, ",")
	}
	p.CreatedAt = parseTime(createdAt)
	p.LastUsedAt = parseTime(lastUsed)
	return p, nil
}

// parseTime accepts both the layout we write and the RFC3339 form the
// driver returns for DATETIME columns
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{timeLayout, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func notFound(name string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrorValidation, "PROFILE_NOT_FOUND",
		fmt.Sprintf("Profile %s not found", name)).WithContext("profile", name)
}

func storageError(err error, message string) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.ErrorStorage, "STORE_ERROR", message)
}
