package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/ghanahealth/patient-portal/config"
	"github.com/ghanahealth/patient-portal/internal/application"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/localstore"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/supabase"
	"github.com/ghanahealth/patient-portal/internal/interface/middleware"
	"github.com/ghanahealth/patient-portal/pkg/helpers"
	"github.com/ghanahealth/patient-portal/pkg/validation"
)

func newProfileRouter(t *testing.T) *gin.Engine {
	t.Helper()
	testInit.Do(func() {
		gin.SetMode(gin.TestMode)
		validation.Init()
	})

	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	remote := supabase.New("", "", time.Second, nil)
	logger := logrus.New()
	sessions := application.NewSessionManager(store, remote, nil, logger, nil, "")
	jwtManager := helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	cookies := helpers.NewCookie("", false)
	cfg := &config.Config{}

	ah := NewAuthHandler(sessions, jwtManager, cookies, logger, cfg, nil)
	ph := NewProfileHandler(sessions, nil, cfg, logger, nil, nil)

	r := gin.New()
	r.POST("/api/auth/register", ah.Register)
	auth := r.Group("/", middleware.Auth(sessions, jwtManager))
	auth.GET("/api/profile", ph.GetProfile)
	auth.PUT("/api/profile", ph.UpdateProfile)
	auth.POST("/api/profile/avatar", ph.UploadAvatar)
	return r
}

func registerSession(t *testing.T, r *gin.Engine, email string) []*http.Cookie {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"email": email, "password": "long-password-1", "full_name": "Test Patient",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	return w.Result().Cookies()
}

func TestGetProfileRequiresAuth(t *testing.T) {
	r := newProfileRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/profile", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfileMergesFields(t *testing.T) {
	r := newProfileRouter(t)
	session := registerSession(t, r, "ama@example.com")

	w := doJSON(t, r, http.MethodPut, "/api/profile", gin.H{
		"location": "Kumasi", "age": 29, "blood_type": "O+",
	}, session)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	require.Equal(t, "Kumasi", data["location"])
	require.Equal(t, float64(29), data["age"])
	require.Equal(t, "O+", data["blood_type"])
	require.Equal(t, "Test Patient", data["full_name"], "unpatched fields survive")

	// the merged profile is what a later read returns
	w = doJSON(t, r, http.MethodGet, "/api/profile", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeBody(t, w)["data"].(map[string]any)
	require.Equal(t, "Kumasi", data["location"])
}

func TestUpdateProfileValidatesEnums(t *testing.T) {
	r := newProfileRouter(t)
	session := registerSession(t, r, "esi@example.com")

	w := doJSON(t, r, http.MethodPut, "/api/profile", gin.H{"blood_type": "Z-"}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/profile", gin.H{"age": 200}, session)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAvatarWithoutStorageConfigured(t *testing.T) {
	r := newProfileRouter(t)
	session := registerSession(t, r, "yaw@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/profile/avatar", nil, session)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
