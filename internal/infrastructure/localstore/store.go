// Package localstore persists patient accounts the way the browser fallback
// did: two named JSON documents, one holding every registered record and one
// holding the single current-user slot. Every mutation rewrites the whole
// document, so concurrent writers from separate processes are
// last-writer-wins. A process-local mutex serializes writers in this process.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ghanahealth/patient-portal/internal/domain/entity"
	"github.com/ghanahealth/patient-portal/internal/domain/repository"
)

const (
	usersFile       = "ghanahealth_users.json"
	currentUserFile = "ghanahealth_current_user.json"
)

// Store implements repository.CredentialStore over two JSON files.
type Store struct {
	mu      sync.Mutex
	dir     string
	users   []*entity.UserRecord
	current *entity.UserRecord
}

// New loads (or initializes) the store under dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: create dir: %w", err)
	}
	s := &Store{dir: dir}
	if err := readJSON(filepath.Join(dir, usersFile), &s.users); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, currentUserFile), &s.current); err != nil {
		return nil, err
	}
	return s, nil
}

func readJSON(path string, dest any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("localstore: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("localstore: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON rewrites the whole document, mirroring localStorage setItem.
func (s *Store) writeJSON(name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), b, 0o600); err != nil {
		return fmt.Errorf("localstore: write %s: %w", name, err)
	}
	return nil
}

// NewLocalID generates a locally-scoped record id. The user_ prefix is kept
// for compatibility with data written by earlier revisions; nothing routes
// on it anymore.
func NewLocalID(now time.Time) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("user_%d_%s", now.UnixMilli(), suffix)
}

// FindByEmail scans the users collection for an exact, case-sensitive match.
func (s *Store) FindByEmail(email string) (*entity.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

// FindByID returns the record with the given id.
func (s *Store) FindByID(id string) (*entity.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

// Append persists a new record, assigning a local id and timestamps. Fails
// with repository.ErrDuplicateEmail when the email is already registered.
func (s *Store) Append(u *entity.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	u.ID = NewLocalID(now)
	u.Origin = entity.OriginLocal
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users = append(s.users, u.Clone())
	return s.writeJSON(usersFile, s.users)
}

// Update merges the patch into the record with the given id, rewrites the
// users collection, and refreshes the current-user slot when it points at
// the same record.
func (s *Store) Update(id string, patch entity.ProfilePatch) (*entity.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var target *entity.UserRecord
	for _, u := range s.users {
		if u.ID == id {
			target = u
			break
		}
	}
	if target == nil {
		return nil, repository.ErrNotFound
	}
	patch.Apply(target)
	if err := s.writeJSON(usersFile, s.users); err != nil {
		return nil, err
	}
	if s.current != nil && s.current.ID == id {
		s.current = target.Clone()
		if err := s.writeJSON(currentUserFile, s.current); err != nil {
			return nil, err
		}
	}
	return target.Clone(), nil
}

// UpdatePassword replaces the stored secret for a local record.
func (s *Store) UpdatePassword(id, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.PasswordSecret = secret
			u.UpdatedAt = time.Now().UTC()
			return s.writeJSON(usersFile, s.users)
		}
	}
	return repository.ErrNotFound
}

// GetCurrentUser returns the record in the session slot, or ErrNotFound
// when no session is persisted.
func (s *Store) GetCurrentUser() (*entity.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, repository.ErrNotFound
	}
	return s.current.Clone(), nil
}

// SetCurrentUser replaces the session slot; nil clears it. Remote-origin
// records are persisted here too so the rest of the app never needs to know
// which provider authenticated the session.
func (s *Store) SetCurrentUser(u *entity.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.current = nil
		err := os.Remove(filepath.Join(s.dir, currentUserFile))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("localstore: clear %s: %w", currentUserFile, err)
		}
		return nil
	}
	s.current = u.Clone()
	return s.writeJSON(currentUserFile, s.current)
}

var _ repository.CredentialStore = (*Store)(nil)
