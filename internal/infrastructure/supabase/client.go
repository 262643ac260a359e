// Package supabase adapts the hosted identity+database provider: GoTrue
// endpoints for auth and the PostgREST profiles table for patient profiles.
// A client built without credentials still constructs, but every call fails
// fast with repository.ErrProviderUnavailable, matching the front-end stub
// that replaced the SDK when initialization failed.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ghanahealth/patient-portal/internal/domain/entity"
	"github.com/ghanahealth/patient-portal/internal/domain/repository"
)

// Client implements repository.RemoteProvider over the provider's REST API.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	logger  *logrus.Logger

	mu          sync.Mutex
	accessToken string // provider-issued bearer for the live session
}

// New builds a client. Empty baseURL or anonKey yields an uninitialized
// client whose operations all return ErrProviderUnavailable.
func New(baseURL, anonKey string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) configured() bool {
	return c.baseURL != "" && c.anonKey != ""
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" {
		return c.accessToken
	}
	return c.anonKey
}

func (c *Client) setToken(tok string) {
	c.mu.Lock()
	c.accessToken = tok
	c.mu.Unlock()
}

// do issues one request and decodes the body into dest (when non-nil).
// Transport failures and 5xx map to ErrProviderUnavailable; 4xx map to
// ErrProviderDeclined with the provider's message attached.
func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, dest any) error {
	if !c.configured() {
		return repository.ErrProviderUnavailable
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("supabase: encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("path", path).Warn("remote provider unreachable")
		}
		return fmt.Errorf("%w: %v", repository.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", repository.ErrProviderUnavailable, err)
	}
	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", repository.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s", repository.ErrProviderDeclined, providerMessage(raw, resp.StatusCode))
	}
	if dest != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("supabase: decode response: %w", err)
		}
	}
	return nil
}

func providerMessage(raw []byte, status int) string {
	var body struct {
		Msg       string `json:"msg"`
		Message   string `json:"message"`
		ErrorDesc string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, m := range []string{body.Msg, body.Message, body.ErrorDesc} {
			if m != "" {
				return m
			}
		}
	}
	return fmt.Sprintf("status %d", status)
}

// ---- auth endpoints ----

type remoteUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type authSession struct {
	AccessToken string      `json:"access_token"`
	User        *remoteUser `json:"user"`
	// signup without auto-confirm returns the bare user object instead
	remoteUser
}

func (s *authSession) user() *remoteUser {
	if s.User != nil {
		return s.User
	}
	if s.ID != "" {
		return &s.remoteUser
	}
	return nil
}

func (u *remoteUser) toRecord() *entity.UserRecord {
	rec := &entity.UserRecord{
		ID:        u.ID,
		Email:     u.Email,
		Origin:    entity.OriginRemote,
		Active:    true,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if name, ok := u.UserMetadata["full_name"].(string); ok {
		rec.FullName = name
	}
	return rec
}

// SignUp creates an auth account; seed lands in user_metadata.
func (c *Client) SignUp(ctx context.Context, email, password string, seed map[string]any) (*entity.UserRecord, error) {
	var sess authSession
	payload := map[string]any{"email": email, "password": password}
	if len(seed) > 0 {
		payload["data"] = seed
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", payload, nil, &sess); err != nil {
		return nil, err
	}
	u := sess.user()
	if u == nil {
		return nil, fmt.Errorf("%w: signup returned no user", repository.ErrProviderDeclined)
	}
	if sess.AccessToken != "" {
		c.setToken(sess.AccessToken)
	}
	return u.toRecord(), nil
}

// SignInWithPassword exchanges credentials for a session token.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*entity.UserRecord, error) {
	var sess authSession
	payload := map[string]any{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", payload, nil, &sess)
	if err != nil {
		return nil, err
	}
	u := sess.user()
	if u == nil || sess.AccessToken == "" {
		return nil, fmt.Errorf("%w: token grant returned no session", repository.ErrProviderDeclined)
	}
	c.setToken(sess.AccessToken)
	return u.toRecord(), nil
}

// GetUser returns the provider's view of the live session, or ErrNotFound
// when no token is held.
func (c *Client) GetUser(ctx context.Context) (*entity.UserRecord, error) {
	c.mu.Lock()
	tok := c.accessToken
	c.mu.Unlock()
	if tok == "" {
		return nil, repository.ErrNotFound
	}
	var u remoteUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, repository.ErrNotFound
	}
	return u.toRecord(), nil
}

// SignOut revokes the provider session and drops the held token either way.
func (c *Client) SignOut(ctx context.Context) error {
	defer c.setToken("")
	c.mu.Lock()
	tok := c.accessToken
	c.mu.Unlock()
	if tok == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
}

// ---- profiles table ----

type profileRow struct {
	ID            string `json:"id"`
	Email         string `json:"email,omitempty"`
	FullName      string `json:"full_name,omitempty"`
	UserType      string `json:"user_type,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Age           int    `json:"age,omitempty"`
	Location      string `json:"location,omitempty"`
	Gender        string `json:"gender,omitempty"`
	BloodType     string `json:"blood_type,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Notifications bool   `json:"notifications,omitempty"`
	Active        bool   `json:"active,omitempty"`
}

func (r *profileRow) mergeInto(rec *entity.UserRecord) {
	rec.FullName = r.FullName
	rec.UserType = r.UserType
	rec.Phone = r.Phone
	rec.Age = r.Age
	rec.Location = r.Location
	rec.Gender = r.Gender
	rec.BloodType = r.BloodType
	rec.AvatarRef = r.AvatarURL
	rec.Notifications = r.Notifications
	rec.Active = r.Active
}

// ProfileSelect fetches the profile row for a remote user id.
func (c *Client) ProfileSelect(ctx context.Context, id string) (*entity.UserRecord, error) {
	var rows []profileRow
	path := "/rest/v1/profiles?select=*&id=eq." + url.QueryEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	rec := &entity.UserRecord{ID: rows[0].ID, Email: rows[0].Email, Origin: entity.OriginRemote}
	rows[0].mergeInto(rec)
	return rec, nil
}

// ProfileInsert mirrors a freshly registered account into the profiles table.
func (c *Client) ProfileInsert(ctx context.Context, u *entity.UserRecord) error {
	row := profileRow{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		UserType:      u.UserType,
		Phone:         u.Phone,
		Age:           u.Age,
		Location:      u.Location,
		Gender:        u.Gender,
		BloodType:     u.BloodType,
		AvatarURL:     u.AvatarRef,
		Notifications: u.Notifications,
		Active:        u.Active,
	}
	headers := map[string]string{"Prefer": "return=minimal"}
	return c.do(ctx, http.MethodPost, "/rest/v1/profiles", row, headers, nil)
}

// ProfileUpdate patches the profile row and returns the provider's updated view.
func (c *Client) ProfileUpdate(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.UserRecord, error) {
	body := map[string]any{}
	if patch.FullName != nil {
		body["full_name"] = *patch.FullName
	}
	if patch.Phone != nil {
		body["phone"] = *patch.Phone
	}
	if patch.Age != nil {
		body["age"] = *patch.Age
	}
	if patch.Location != nil {
		body["location"] = *patch.Location
	}
	if patch.Gender != nil {
		body["gender"] = *patch.Gender
	}
	if patch.BloodType != nil {
		body["blood_type"] = *patch.BloodType
	}
	if patch.AvatarRef != nil {
		body["avatar_url"] = *patch.AvatarRef
	}
	if patch.Notifications != nil {
		body["notifications"] = *patch.Notifications
	}
	var rows []profileRow
	path := "/rest/v1/profiles?id=eq." + url.QueryEscape(id)
	headers := map[string]string{"Prefer": "return=representation"}
	if err := c.do(ctx, http.MethodPatch, path, body, headers, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	rec := &entity.UserRecord{ID: rows[0].ID, Email: rows[0].Email, Origin: entity.OriginRemote}
	rows[0].mergeInto(rec)
	return rec, nil
}

var _ repository.RemoteProvider = (*Client)(nil)
