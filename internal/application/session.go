// Package application holds the session manager: the single component that
// decides which credential store services a call, keeps one canonical
// current-user notion, and merges profile updates back into the store of
// origin. Precedence is fixed everywhere: local first, remote fallback, no
// reconciliation after a successful local match.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ghanahealth/patient-portal/internal/domain/entity"
	repo "github.com/ghanahealth/patient-portal/internal/domain/repository"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Session is the denormalized view of the active identity handed to the
// HTTP layer; display fields avoid a store lookup per render.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
}

// ProfileSeed carries the fields collected at registration time.
type ProfileSeed struct {
	FullName string
}

// SessionManager is the auth facade. Construct one per process and inject
// it; there is no package-level instance.
type SessionManager struct {
	Store  repo.CredentialStore
	Remote repo.RemoteProvider
	Redis  *redis.Client
	Logger *logrus.Logger

	ES              *elasticsearch.Client
	ESProfilesIndex string
}

// NewSessionManager wires the facade to its collaborators. Redis and ES are
// optional best-effort mirrors; pass nil to skip them.
func NewSessionManager(store repo.CredentialStore, remote repo.RemoteProvider, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esProfilesIndex string) *SessionManager {
	return &SessionManager{
		Store:           store,
		Remote:          remote,
		Redis:           rdb,
		Logger:          logger,
		ES:              es,
		ESProfilesIndex: esProfilesIndex,
	}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// sanitize strips the stored secret before a record leaves the facade.
func sanitize(u *entity.UserRecord) *entity.UserRecord {
	if u == nil {
		return nil
	}
	c := u.Clone()
	c.PasswordSecret = ""
	return c
}

// SignUp registers a patient account. Local creation is attempted first; a
// local duplicate fails with ErrAccountExists without consulting the remote
// provider, since a duplicate locally means the account is already usable.
func (m *SessionManager) SignUp(ctx context.Context, email, password string, seed ProfileSeed) (*entity.UserRecord, error) {
	email = strings.TrimSpace(email)
	if !emailRe.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	rec := &entity.UserRecord{
		Email:          email,
		PasswordSecret: password,
		FullName:       strings.TrimSpace(seed.FullName),
		UserType:       entity.UserTypePatient,
		Active:         true,
	}
	err := m.Store.Append(rec)
	switch {
	case err == nil:
		if err := m.Store.SetCurrentUser(rec); err != nil {
			return nil, err
		}
		m.mirrorSession(ctx, rec)
		return sanitize(rec), nil
	case errors.Is(err, repo.ErrDuplicateEmail):
		return nil, ErrAccountExists
	}

	// Local store is broken; fall back to the hosted provider.
	if m.Logger != nil {
		m.Logger.WithError(err).Warn("local signup failed, trying remote provider")
	}
	remoteRec, rerr := m.Remote.SignUp(ctx, email, password, map[string]any{"full_name": seed.FullName})
	if rerr != nil {
		if errors.Is(rerr, repo.ErrProviderUnavailable) {
			return nil, ErrProviderUnavailable
		}
		return nil, fmt.Errorf("%w: registration rejected", ErrValidation)
	}
	remoteRec.FullName = strings.TrimSpace(seed.FullName)
	remoteRec.UserType = entity.UserTypePatient
	remoteRec.Active = true
	// The auth account exists; a failed profile mirror is logged, not fatal.
	if perr := m.Remote.ProfileInsert(ctx, remoteRec); perr != nil && m.Logger != nil {
		m.Logger.WithError(perr).WithField("user_id", remoteRec.ID).Warn("remote profile mirror failed")
	}
	if err := m.Store.SetCurrentUser(remoteRec); err != nil {
		return nil, err
	}
	m.mirrorSession(ctx, remoteRec)
	return sanitize(remoteRec), nil
}

// SignIn authenticates against the local store first, then the remote
// provider. Neither store is named in the failure: both rejection paths
// collapse to ErrInvalidCredentials. A prior session survives any failure.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (*entity.UserRecord, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	resolved, err := m.Store.FindByEmail(email)
	if err == nil && resolved.PasswordSecret == password {
		// local match
	} else {
		resolved, err = m.remoteSignIn(ctx, email, password)
		if err != nil {
			return nil, err
		}
	}

	if !resolved.IsPatient() {
		return nil, ErrWrongAccountType
	}

	// Persist through the local slot regardless of which provider
	// authenticated; downstream code stays provider-agnostic.
	if err := m.Store.SetCurrentUser(resolved); err != nil {
		return nil, err
	}
	m.mirrorSession(ctx, resolved)
	return sanitize(resolved), nil
}

func (m *SessionManager) remoteSignIn(ctx context.Context, email, password string) (*entity.UserRecord, error) {
	rec, err := m.Remote.SignInWithPassword(ctx, email, password)
	if err != nil {
		// Unavailable and declined read the same to the caller.
		return nil, ErrInvalidCredentials
	}
	if rec.Origin == entity.OriginRemote {
		profile, perr := m.Remote.ProfileSelect(ctx, rec.ID)
		if perr != nil {
			// Degraded session: auth identity only, optional fields empty.
			if m.Logger != nil {
				m.Logger.WithError(perr).WithField("user_id", rec.ID).Warn("remote profile fetch failed, continuing with auth identity")
			}
			return rec, nil
		}
		profile.CreatedAt = rec.CreatedAt
		if profile.Email == "" {
			profile.Email = rec.Email
		}
		return profile, nil
	}
	return rec, nil
}

// GetCurrentUser returns the persisted session, or adopts the remote
// provider's live session without persisting it, or returns nil.
func (m *SessionManager) GetCurrentUser(ctx context.Context) *entity.UserRecord {
	if rec, err := m.Store.GetCurrentUser(); err == nil {
		return sanitize(rec)
	}
	rec, err := m.Remote.GetUser(ctx)
	if err != nil {
		return nil
	}
	return sanitize(rec)
}

// CurrentSession returns the denormalized session view, or nil when signed out.
func (m *SessionManager) CurrentSession(ctx context.Context) *Session {
	rec := m.GetCurrentUser(ctx)
	if rec == nil {
		return nil
	}
	return &Session{UserID: rec.ID, Email: rec.Email, DisplayName: rec.DisplayName()}
}

// SignOut clears the local slot unconditionally and asks the remote
// provider to sign out as a courtesy; remote failure is swallowed. Calling
// it twice is a no-op the second time.
func (m *SessionManager) SignOut(ctx context.Context) error {
	prev, _ := m.Store.GetCurrentUser()
	if err := m.Store.SetCurrentUser(nil); err != nil {
		return err
	}
	if err := m.Remote.SignOut(ctx); err != nil && m.Logger != nil {
		m.Logger.WithError(err).Debug("remote sign-out failed")
	}
	if prev != nil && m.Redis != nil {
		if err := m.Redis.Del(ctx, sessionKey(prev.ID)).Err(); err != nil && m.Logger != nil {
			m.Logger.WithError(err).Warn("redis session delete failed")
		}
	}
	return nil
}

// UpdateProfile routes the patch to the store that owns the current record
// and refreshes the persisted session view.
func (m *SessionManager) UpdateProfile(ctx context.Context, patch entity.ProfilePatch) (*entity.UserRecord, error) {
	current := m.GetCurrentUser(ctx)
	if current == nil {
		return nil, ErrNotAuthenticated
	}
	if patch.IsZero() {
		return sanitize(current), nil
	}

	var (
		updated *entity.UserRecord
		err     error
	)
	switch current.Origin {
	case entity.OriginRemote:
		updated, err = m.Remote.ProfileUpdate(ctx, current.ID, patch)
		if err != nil {
			return nil, ErrProviderUnavailable
		}
		updated.CreatedAt = current.CreatedAt
		if err := m.Store.SetCurrentUser(updated); err != nil {
			return nil, err
		}
	default:
		updated, err = m.Store.Update(current.ID, patch)
		if err != nil {
			return nil, err
		}
	}

	m.mirrorProfile(ctx, updated)
	return sanitize(updated), nil
}

// mirrorSession records session metadata in Redis, mirroring what the
// dashboard reads on every page load. Best-effort.
func (m *SessionManager) mirrorSession(ctx context.Context, u *entity.UserRecord) {
	if m.Redis == nil {
		return
	}
	key := sessionKey(u.ID)
	pipe := m.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    u.ID,
		"email":      u.Email,
		"name":       u.DisplayName(),
		"avatar_url": u.AvatarRef,
		"origin":     string(u.Origin),
		"sid":        uuid.NewString(),
		"logged_in":  true,
		"created_at": nowRFC3339(),
	})
	pipe.Expire(ctx, key, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil && m.Logger != nil {
		m.Logger.WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

func (m *SessionManager) mirrorProfile(ctx context.Context, u *entity.UserRecord) {
	if m.Redis != nil {
		key := sessionKey(u.ID)
		pipe := m.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"name":       u.DisplayName(),
			"avatar_url": u.AvatarRef,
			"updated_at": nowRFC3339(),
		})
		if ttl, err := m.Redis.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil && m.Logger != nil {
			m.Logger.WithError(err).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	m.indexProfile(ctx, u)
}

// indexProfile pushes the latest profile into Elasticsearch. Best-effort.
func (m *SessionManager) indexProfile(ctx context.Context, u *entity.UserRecord) {
	if m.ES == nil || m.ESProfilesIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"full_name":  u.FullName,
		"location":   u.Location,
		"origin":     string(u.Origin),
		"updated_at": nowRFC3339(),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: m.ESProfilesIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, m.ES)
	if err != nil {
		if m.Logger != nil {
			m.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && m.Logger != nil {
		m.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}
