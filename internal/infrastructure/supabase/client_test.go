package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ghanahealth/patient-portal/internal/domain/entity"
	"github.com/ghanahealth/patient-portal/internal/domain/repository"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-anon-key", 2*time.Second, nil)
}

func TestUnconfiguredClientFailsFast(t *testing.T) {
	c := New("", "", time.Second, nil)

	_, err := c.SignInWithPassword(context.Background(), "a@b.co", "pw")
	require.ErrorIs(t, err, repository.ErrProviderUnavailable)

	_, err = c.SignUp(context.Background(), "a@b.co", "pw", nil)
	require.ErrorIs(t, err, repository.ErrProviderUnavailable)

	err = c.ProfileInsert(context.Background(), &entity.UserRecord{ID: "x"})
	require.ErrorIs(t, err, repository.ErrProviderUnavailable)
}

func TestSignInSuccessStoresToken(t *testing.T) {
	var gotAPIKey, gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			require.Equal(t, "password", r.URL.Query().Get("grant_type"))
			gotAPIKey = r.Header.Get("apikey")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "session-token",
				"user": map[string]any{
					"id":    "b3f9d2e0",
					"email": "bob@example.com",
					"user_metadata": map[string]any{
						"full_name": "Bob Owusu",
					},
				},
			})
		case "/auth/v1/user":
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "b3f9d2e0", "email": "bob@example.com"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	u, err := c.SignInWithPassword(context.Background(), "bob@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "b3f9d2e0", u.ID)
	require.Equal(t, entity.OriginRemote, u.Origin)
	require.Equal(t, "Bob Owusu", u.FullName)
	require.Equal(t, "test-anon-key", gotAPIKey)

	// the issued token replaces the anon key on subsequent calls
	_, err = c.GetUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer session-token", gotAuth)
}

func TestSignInBadCredentials(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error_description": "Invalid login credentials"})
	}))

	_, err := c.SignInWithPassword(context.Background(), "bob@example.com", "wrong")
	require.ErrorIs(t, err, repository.ErrProviderDeclined)
	require.Contains(t, err.Error(), "Invalid login credentials")
}

func TestServerErrorsMapToUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.SignInWithPassword(context.Background(), "bob@example.com", "pw")
	require.ErrorIs(t, err, repository.ErrProviderUnavailable)
}

func TestSignUpWithoutAutoConfirmReturnsBareUser(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/signup", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "new@example.com", payload["email"])
		require.Contains(t, payload, "data")
		// no access_token: email confirmation pending
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "c4a1", "email": "new@example.com"})
	}))

	u, err := c.SignUp(context.Background(), "new@example.com", "pw", map[string]any{"full_name": "New User"})
	require.NoError(t, err)
	require.Equal(t, "c4a1", u.ID)
}

func TestGetUserWithoutTokenIsNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without a held token")
	}))
	_, err := c.GetUser(context.Background())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSignOutDropsTokenEvenOnFailure(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok",
				"user":         map[string]any{"id": "x1", "email": "x@example.com"},
			})
		case "/auth/v1/logout":
			calls++
			w.WriteHeader(http.StatusBadGateway)
		}
	}))

	_, err := c.SignInWithPassword(context.Background(), "x@example.com", "pw")
	require.NoError(t, err)

	require.Error(t, c.SignOut(context.Background()))
	require.Equal(t, 1, calls)

	// token is gone, so the second sign-out is a local no-op
	require.NoError(t, c.SignOut(context.Background()))
	require.Equal(t, 1, calls)
}

func TestProfileSelect(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/profiles", r.URL.Path)
		require.Equal(t, "eq.b3f9d2e0", r.URL.Query().Get("id"))
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"id":         "b3f9d2e0",
			"email":      "bob@example.com",
			"full_name":  "Bob Owusu",
			"user_type":  "patient",
			"blood_type": "O+",
			"active":     true,
		}})
	}))

	rec, err := c.ProfileSelect(context.Background(), "b3f9d2e0")
	require.NoError(t, err)
	require.Equal(t, "Bob Owusu", rec.FullName)
	require.Equal(t, "O+", rec.BloodType)
	require.True(t, rec.IsPatient())
}

func TestProfileSelectEmptyResult(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	_, err := c.ProfileSelect(context.Background(), "nobody")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProfileUpdateSendsOnlySetFields(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "return=representation", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"id": "b3f9d2e0", "email": "bob@example.com", "location": "Kumasi",
		}})
	}))

	loc := "Kumasi"
	rec, err := c.ProfileUpdate(context.Background(), "b3f9d2e0", entity.ProfilePatch{Location: &loc})
	require.NoError(t, err)
	require.Equal(t, "Kumasi", rec.Location)
	require.Equal(t, map[string]any{"location": "Kumasi"}, body)
}
