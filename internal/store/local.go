// Package store provides the SQLite-backed local state file: the
// authenticated flag used for route gating and the persisted provider sign-in.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/finlens/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Local is the on-disk client state.
type Local struct {
	db *sql.DB
}

// Open opens or creates the state database at the given path.
func Open(dbPath string) (*Local, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Local{db: db}, nil
}

// Close closes the state database.
func (l *Local) Close() error {
	return l.db.Close()
}

// SetFlag sets or clears a named boolean flag. Clearing removes the row.
func (l *Local) SetFlag(name string, on bool) error {
	if !on {
		_, err := l.db.Exec("DELETE FROM local_flags WHERE name = ?", name)
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := l.db.Exec(`INSERT INTO local_flags (name, value, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, now)
	return err
}

// Flag reports whether the named flag is set. A missing row reads as false.
func (l *Local) Flag(name string) (bool, error) {
	var v int
	err := l.db.QueryRow("SELECT value FROM local_flags WHERE name = ?", name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// SaveAuthSession replaces the persisted sign-in.
func (l *Local) SaveAuthSession(s model.AuthSession) error {
	if s.UID == "" {
		return errors.New("store: auth session without uid")
	}
	signedIn := s.SignedInAt
	if signedIn.IsZero() {
		signedIn = time.Now()
	}

	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM auth_session"); err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO auth_session (id, uid, email, id_token, refresh_token, signed_in_at)
		VALUES (1, ?, ?, ?, ?, ?)`,
		s.UID, s.Email, s.IDToken, s.RefreshToken, signedIn.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// LoadAuthSession returns the persisted sign-in, or nil when there is none.
func (l *Local) LoadAuthSession() (*model.AuthSession, error) {
	var (
		s                     model.AuthSession
		email, idTok, refresh sql.NullString
		signedIn              string
	)
	err := l.db.QueryRow(`SELECT uid, email, id_token, refresh_token, signed_in_at
		FROM auth_session WHERE id = 1`).Scan(&s.UID, &email, &idTok, &refresh, &signedIn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Email = email.String
	s.IDToken = idTok.String
	s.RefreshToken = refresh.String
	if t, err := time.Parse(time.RFC3339, signedIn); err == nil {
		s.SignedInAt = t
	}
	return &s, nil
}

// ClearAuthSession removes the persisted sign-in.
func (l *Local) ClearAuthSession() error {
	_, err := l.db.Exec("DELETE FROM auth_session")
	return err
}
