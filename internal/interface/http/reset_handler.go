package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ghanahealth/patient-portal/config"
	"github.com/ghanahealth/patient-portal/internal/domain/entity"
	"github.com/ghanahealth/patient-portal/internal/domain/repository"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/auditlog"
	"github.com/ghanahealth/patient-portal/pkg/helpers"
	"github.com/ghanahealth/patient-portal/pkg/mailer"
	"github.com/ghanahealth/patient-portal/pkg/response"
	"github.com/ghanahealth/patient-portal/pkg/validation"
)

// ResetHandler implements the forgot-password flow for local-origin
// accounts. Remote accounts reset through the hosted provider's own email
// flow, so they are skipped here on purpose.
type ResetHandler struct {
	Store  repository.CredentialStore
	RDB    *redis.Client
	Cfg    *config.Config
	Pub    *helpers.RabbitPublisher
	Logger *logrus.Logger
	Audit  *auditlog.Store
}

func NewResetHandler(store repository.CredentialStore, rdb *redis.Client, cfg *config.Config, pub *helpers.RabbitPublisher, logger *logrus.Logger, audit *auditlog.Store) *ResetHandler {
	return &ResetHandler{Store: store, RDB: rdb, Cfg: cfg, Pub: pub, Logger: logger, Audit: audit}
}

func keyResetToken(t string) string { return "pwd:reset:token:" + t }

// resetClaim is what a live token resolves to.
type resetClaim struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func genToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ResetInit POST /api/auth/reset/init {email}
// Always returns OK to avoid account enumeration.
func (h *ResetHandler) ResetInit(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, _ := h.Store.FindByEmail(req.Email)
	if u != nil && u.Origin == entity.OriginLocal && h.RDB != nil {
		tok, err := genToken(32)
		if err != nil {
			response.Error[any](c, http.StatusInternalServerError, "token generation failed", nil)
			return
		}
		claim := resetClaim{UserID: u.ID, Email: u.Email}
		if err := helpers.RedisSetJSON(c.Request.Context(), h.RDB, keyResetToken(tok), claim, 30*time.Minute); err != nil {
			if h.Logger != nil {
				h.Logger.WithError(err).Warn("reset token store failed")
			}
			response.Success[any](c, http.StatusOK, map[string]any{"sent": true}, "if the account exists, a reset email is on its way", nil)
			return
		}
		link := h.Cfg.ResetPasswordURL + "?token=" + tok
		h.enqueueResetEmail(c, u, link)
		audit(c, h.Audit, u.ID, u.Email, "reset_init_issue", nil)
	} else {
		audit(c, h.Audit, "", req.Email, "reset_init_unknown", nil)
	}

	response.Success[any](c, http.StatusOK, map[string]any{"sent": true}, "if the account exists, a reset email is on its way", nil)
}

// ResetConfirm POST /api/auth/reset/confirm {token, new_password}
func (h *ResetHandler) ResetConfirm(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,pwd"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if h.RDB == nil {
		response.Error[any](c, http.StatusInternalServerError, "reset unavailable", nil)
		return
	}

	var claim resetClaim
	found, err := helpers.RedisGetJSON(c.Request.Context(), h.RDB, keyResetToken(req.Token), &claim)
	if err != nil || !found || claim.UserID == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid or expired token", nil)
		return
	}
	if err := h.Store.UpdatePassword(claim.UserID, req.NewPassword); err != nil {
		response.Error[any](c, http.StatusInternalServerError, "password update failed", nil)
		return
	}
	h.RDB.Del(c.Request.Context(), keyResetToken(req.Token))
	audit(c, h.Audit, claim.UserID, claim.Email, "reset_confirm", nil)
	response.Success[any](c, http.StatusOK, map[string]any{"reset": true}, "password updated", nil)
}

func (h *ResetHandler) enqueueResetEmail(c *gin.Context, u *entity.UserRecord, link string) {
	if h.Pub == nil || h.Cfg == nil || !h.Cfg.MailSendEnabled {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: "forgot_password",
		Data: map[string]any{
			"Name":      u.DisplayName(),
			"Email":     u.Email,
			"ResetURL":  link,
			"ExpiresIn": "30 minutes",
			"IP":        clientIP(c),
			"UserAgent": c.GetHeader("User-Agent"),
		},
	}
	if err := h.Pub.PublishJSON(c.Request.Context(), job); err != nil && h.Logger != nil {
		h.Logger.WithError(err).Warn("reset email enqueue failed")
	}
}
