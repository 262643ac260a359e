package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ghanahealth/patient-portal/config"
	"github.com/ghanahealth/patient-portal/internal/application"
	"github.com/ghanahealth/patient-portal/internal/domain/entity"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/auditlog"
	"github.com/ghanahealth/patient-portal/pkg/helpers"
	"github.com/ghanahealth/patient-portal/pkg/response"
	"github.com/ghanahealth/patient-portal/pkg/validation"
)

type AuthHandler struct {
	Sessions *application.SessionManager
	JWT      *helpers.JWTManager
	Cookies  *helpers.CookieManager
	Logger   *logrus.Logger
	Cfg      *config.Config
	Audit    *auditlog.Store
}

func NewAuthHandler(sessions *application.SessionManager, jwt *helpers.JWTManager, cookies *helpers.CookieManager, logger *logrus.Logger, cfg *config.Config, audit *auditlog.Store) *AuthHandler {
	return &AuthHandler{Sessions: sessions, JWT: jwt, Cookies: cookies, Logger: logger, Cfg: cfg, Audit: audit}
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

// audit appends an auth event to the sqlite trail. Best-effort.
func audit(c *gin.Context, store *auditlog.Store, userID, email, action string, metadata map[string]any) {
	if store == nil {
		return
	}
	_ = store.Insert(c.Request.Context(), auditlog.Event{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Metadata:  metadata,
	})
}

// userView is the record shape returned to the front-end. The stored secret
// never appears here.
func userView(u *entity.UserRecord) gin.H {
	return gin.H{
		"id":            u.ID,
		"email":         u.Email,
		"origin":        u.Origin,
		"full_name":     u.FullName,
		"name":          u.DisplayName(),
		"phone":         u.Phone,
		"age":           u.Age,
		"location":      u.Location,
		"gender":        u.Gender,
		"blood_type":    u.BloodType,
		"avatar_url":    u.AvatarRef,
		"notifications": u.Notifications,
		"user_type":     u.UserType,
		"created_at":    u.CreatedAt,
		"updated_at":    u.UpdatedAt,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	FullName string `json:"full_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Sessions.SignUp(c.Request.Context(), req.Email, req.Password, application.ProfileSeed{FullName: req.FullName})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrAccountExists):
			audit(c, h.Audit, "", req.Email, "register_duplicate", nil)
			response.Error[any](c, http.StatusConflict, "an account with this email already exists", nil)
		case errors.Is(err, application.ErrProviderUnavailable):
			response.Error[any](c, http.StatusServiceUnavailable, "registration is temporarily unavailable", nil)
		case errors.Is(err, application.ErrValidation):
			response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		default:
			h.Logger.WithError(err).Error("register failed")
			response.Error[any](c, http.StatusInternalServerError, "registration failed", nil)
		}
		return
	}

	h.issueCookies(c, u.ID)
	audit(c, h.Audit, u.ID, u.Email, "register", map[string]any{"origin": u.Origin})
	response.Success(c, http.StatusCreated, userView(u), "account created", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrInvalidCredentials):
			audit(c, h.Audit, "", req.Email, "login_denied", nil)
			response.Error[any](c, http.StatusUnauthorized, "invalid email or password", nil)
		case errors.Is(err, application.ErrWrongAccountType):
			audit(c, h.Audit, "", req.Email, "login_wrong_type", nil)
			response.Error[any](c, http.StatusForbidden, "this portal is for patient accounts only", nil)
		case errors.Is(err, application.ErrValidation):
			response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		default:
			h.Logger.WithError(err).Error("login failed")
			response.Error[any](c, http.StatusInternalServerError, "login failed", nil)
		}
		return
	}

	h.issueCookies(c, u.ID)
	if req.Remember {
		h.Cookies.SetRememberedEmail(c, u.Email)
	} else {
		h.Cookies.ClearRememberedEmail(c)
	}
	audit(c, h.Audit, u.ID, u.Email, "login", map[string]any{"origin": u.Origin, "remember": req.Remember})
	response.Success(c, http.StatusOK, userView(u), "login successful", nil)
}

// Me GET /api/auth/me (auth required)
func (h *AuthHandler) Me(c *gin.Context) {
	u := h.Sessions.GetCurrentUser(c.Request.Context())
	if u == nil {
		response.Error[any](c, http.StatusUnauthorized, "not signed in", nil)
		return
	}
	response.Success(c, http.StatusOK, userView(u), "current user", nil)
}

// Logout POST /api/auth/logout. Safe to call when already signed out.
func (h *AuthHandler) Logout(c *gin.Context) {
	prev := h.Sessions.GetCurrentUser(c.Request.Context())
	if err := h.Sessions.SignOut(c.Request.Context()); err != nil {
		h.Logger.WithError(err).Error("logout failed")
		response.Error[any](c, http.StatusInternalServerError, "logout failed", nil)
		return
	}
	h.Cookies.Clear(c)
	if prev != nil {
		audit(c, h.Audit, prev.ID, prev.Email, "logout", nil)
	}
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	claims, err := h.JWT.ParseRefreshToken(refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	u := h.Sessions.GetCurrentUser(c.Request.Context())
	if u == nil || u.ID != claims.UserID {
		response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
		return
	}
	h.issueCookies(c, u.ID)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", nil)
}

func (h *AuthHandler) issueCookies(c *gin.Context, userID string) {
	sid := uuid.NewString()
	access, aexp, err := h.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		h.Logger.WithError(err).Error("access token generation failed")
		return
	}
	refresh, rexp, err := h.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		h.Logger.WithError(err).Error("refresh token generation failed")
		return
	}
	h.Cookies.SetPair(c, access, aexp, refresh, rexp)
}
