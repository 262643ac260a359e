package localstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ghanahealth/patient-portal/internal/domain/entity"
	"github.com/ghanahealth/patient-portal/internal/domain/repository"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	return s, dir
}

func strptr(s string) *string { return &s }

func TestAppendAssignsIdentityAndPersists(t *testing.T) {
	s, dir := newTestStore(t)

	u := &entity.UserRecord{Email: "ama@example.com", PasswordSecret: "pw-1234567890", FullName: "Ama"}
	require.NoError(t, s.Append(u))

	require.NotEmpty(t, u.ID)
	require.Equal(t, entity.OriginLocal, u.Origin)
	require.False(t, u.CreatedAt.IsZero())
	require.Equal(t, u.CreatedAt, u.UpdatedAt)

	// collection written to disk
	_, err := os.Stat(filepath.Join(dir, usersFile))
	require.NoError(t, err)

	// visible to a fresh store loading the same directory
	reopened, err := New(dir)
	require.NoError(t, err)
	got, err := reopened.FindByEmail("ama@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "pw-1234567890", got.PasswordSecret)
}

func TestAppendRejectsDuplicateEmail(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Append(&entity.UserRecord{Email: "kofi@example.com", PasswordSecret: "x"}))
	err := s.Append(&entity.UserRecord{Email: "kofi@example.com", PasswordSecret: "y"})
	require.ErrorIs(t, err, repository.ErrDuplicateEmail)

	// the losing record must not have been stored
	got, err := s.FindByEmail("kofi@example.com")
	require.NoError(t, err)
	require.Equal(t, "x", got.PasswordSecret)
}

func TestFindByEmailIsExactMatch(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Append(&entity.UserRecord{Email: "Adwoa@example.com"}))

	_, err := s.FindByEmail("adwoa@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Append(&entity.UserRecord{Email: "esi@example.com", FullName: "Esi"}))

	got, err := s.FindByEmail("esi@example.com")
	require.NoError(t, err)
	got.FullName = "mutated"

	again, err := s.FindByEmail("esi@example.com")
	require.NoError(t, err)
	require.Equal(t, "Esi", again.FullName)
}

func TestUpdateMergesPatchAndRefreshesCurrentSlot(t *testing.T) {
	s, _ := newTestStore(t)
	u := &entity.UserRecord{Email: "yaw@example.com", FullName: "Yaw"}
	require.NoError(t, s.Append(u))
	require.NoError(t, s.SetCurrentUser(u))

	updated, err := s.Update(u.ID, entity.ProfilePatch{Location: strptr("Kumasi")})
	require.NoError(t, err)
	require.Equal(t, "Kumasi", updated.Location)
	require.Equal(t, "Yaw", updated.FullName) // untouched field survives
	require.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	// the session slot follows the record it points at
	cur, err := s.GetCurrentUser()
	require.NoError(t, err)
	require.Equal(t, "Kumasi", cur.Location)
}

func TestUpdateUnknownID(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Update("user_0_missing", entity.ProfilePatch{Location: strptr("Accra")})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	s, _ := newTestStore(t)
	u := &entity.UserRecord{Email: "akos@example.com", PasswordSecret: "old-password-1"}
	require.NoError(t, s.Append(u))

	require.NoError(t, s.UpdatePassword(u.ID, "new-password-22"))
	got, err := s.FindByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-password-22", got.PasswordSecret)

	require.ErrorIs(t, s.UpdatePassword("user_0_missing", "x"), repository.ErrNotFound)
}

func TestCurrentUserSlot(t *testing.T) {
	s, dir := newTestStore(t)

	_, err := s.GetCurrentUser()
	require.ErrorIs(t, err, repository.ErrNotFound)

	u := &entity.UserRecord{Email: "abena@example.com"}
	require.NoError(t, s.Append(u))
	require.NoError(t, s.SetCurrentUser(u))

	cur, err := s.GetCurrentUser()
	require.NoError(t, err)
	require.Equal(t, u.ID, cur.ID)

	// the slot survives a restart
	reopened, err := New(dir)
	require.NoError(t, err)
	cur, err = reopened.GetCurrentUser()
	require.NoError(t, err)
	require.Equal(t, u.ID, cur.ID)

	// clearing removes the file; clearing twice is fine
	require.NoError(t, reopened.SetCurrentUser(nil))
	require.NoError(t, reopened.SetCurrentUser(nil))
	_, err = os.Stat(filepath.Join(dir, currentUserFile))
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = reopened.GetCurrentUser()
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetCurrentUserAcceptsRemoteRecords(t *testing.T) {
	s, _ := newTestStore(t)
	remote := &entity.UserRecord{ID: "b3f9d2e0", Email: "remote@example.com", Origin: entity.OriginRemote}
	require.NoError(t, s.SetCurrentUser(remote))

	cur, err := s.GetCurrentUser()
	require.NoError(t, err)
	require.Equal(t, entity.OriginRemote, cur.Origin)

	// the slot does not leak into the registered users collection
	_, err = s.FindByEmail("remote@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNewLocalIDShape(t *testing.T) {
	id := NewLocalID(time.Now())
	require.Regexp(t, `^user_\d+_[0-9a-f]{8}$`, id)
}
