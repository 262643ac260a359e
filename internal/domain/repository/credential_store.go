package repository

import (
	"context"
	"errors"

	"github.com/ghanahealth/patient-portal/internal/domain/entity"
)

var (
	// ErrDuplicateEmail is returned by CredentialStore.Append when a record
	// with the same email already exists.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("not found")
	// ErrProviderUnavailable is returned by RemoteProvider operations when
	// the hosted provider is unreachable or was never configured. Callers
	// treat it identically to "provider declined" for fallback purposes.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderDeclined is returned when the hosted provider rejected the
	// operation (bad credentials, duplicate account, and so on).
	ErrProviderDeclined = errors.New("provider declined")
)

// CredentialStore is the browser-scoped persistence layer: the users
// collection plus the single current-user slot. All operations are
// synchronous; concurrent writers from separate processes are
// last-writer-wins without external locking.
type CredentialStore interface {
	FindByEmail(email string) (*entity.UserRecord, error)
	FindByID(id string) (*entity.UserRecord, error)
	Append(u *entity.UserRecord) error
	Update(id string, patch entity.ProfilePatch) (*entity.UserRecord, error)
	UpdatePassword(id, secret string) error
	GetCurrentUser() (*entity.UserRecord, error)
	SetCurrentUser(u *entity.UserRecord) error
}

// RemoteProvider adapts the hosted identity+database service. Every call is
// a fresh round-trip; there is no caching. Implementations must degrade to
// ErrProviderUnavailable instead of hanging or panicking when the provider
// cannot be reached.
type RemoteProvider interface {
	SignUp(ctx context.Context, email, password string, seed map[string]any) (*entity.UserRecord, error)
	SignInWithPassword(ctx context.Context, email, password string) (*entity.UserRecord, error)
	GetUser(ctx context.Context) (*entity.UserRecord, error)
	SignOut(ctx context.Context) error

	ProfileSelect(ctx context.Context, id string) (*entity.UserRecord, error)
	ProfileInsert(ctx context.Context, u *entity.UserRecord) error
	ProfileUpdate(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.UserRecord, error)
}
