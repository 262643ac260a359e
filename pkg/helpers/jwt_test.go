package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)

	tok, exp, err := m.GenerateAccessToken("user_1", "sid_1")
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	claims, err := m.ParseAccessToken(tok)
	require.NoError(t, err)
	require.Equal(t, "user_1", claims.UserID)
	require.Equal(t, "sid_1", claims.SessionID)
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)

	access, _, err := m.GenerateAccessToken("user_1", "sid_1")
	require.NoError(t, err)
	_, err = m.ParseRefreshToken(access)
	require.Error(t, err)

	refresh, _, err := m.GenerateRefreshToken("user_1", "sid_1")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(refresh)
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", -time.Minute, 24*time.Hour)

	tok, _, err := m.GenerateAccessToken("user_1", "sid_1")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(tok)
	require.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	_, err := m.ParseAccessToken("not-a-token")
	require.Error(t, err)
}
