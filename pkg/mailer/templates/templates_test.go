package templates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderForgotPassword(t *testing.T) {
	subject, text, html, err := Render(ForgotPassword, map[string]any{
		"Name":      "Ama Serwaa",
		"Email":     "ama@example.com",
		"ResetURL":  "https://portal.example/reset-password?token=abc",
		"ExpiresIn": "30 minutes",
	})
	require.NoError(t, err)
	require.NotEmpty(t, subject)
	require.Contains(t, text, "https://portal.example/reset-password?token=abc")
	require.Contains(t, html, "https://portal.example/reset-password?token=abc")
}

func TestRenderProfileUpdated(t *testing.T) {
	subject, text, html, err := Render(ProfileUpdated, map[string]any{
		"Name":  "Ama Serwaa",
		"Email": "ama@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, subject)
	require.Contains(t, text, "Ama Serwaa")
	require.NotEmpty(t, html)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("no_such_template", nil)
	require.Error(t, err)
}
