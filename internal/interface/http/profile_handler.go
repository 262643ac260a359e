package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ghanahealth/patient-portal/config"
	"github.com/ghanahealth/patient-portal/internal/application"
	"github.com/ghanahealth/patient-portal/internal/domain/entity"
	"github.com/ghanahealth/patient-portal/internal/infrastructure/auditlog"
	"github.com/ghanahealth/patient-portal/pkg/helpers"
	"github.com/ghanahealth/patient-portal/pkg/mailer"
	"github.com/ghanahealth/patient-portal/pkg/response"
	"github.com/ghanahealth/patient-portal/pkg/validation"
)

const maxAvatarSize = 5 << 20 // 5 MiB

type ProfileHandler struct {
	Sessions *application.SessionManager
	GCS      *storage.Client
	Cfg      *config.Config
	Logger   *logrus.Logger
	Pub      *helpers.RabbitPublisher
	Audit    *auditlog.Store
}

func NewProfileHandler(sessions *application.SessionManager, gcs *storage.Client, cfg *config.Config, logger *logrus.Logger, pub *helpers.RabbitPublisher, audit *auditlog.Store) *ProfileHandler {
	return &ProfileHandler{Sessions: sessions, GCS: gcs, Cfg: cfg, Logger: logger, Pub: pub, Audit: audit}
}

type updateProfileRequest struct {
	FullName      *string `json:"full_name"`
	Phone         *string `json:"phone" binding:"omitempty,phone"`
	Age           *int    `json:"age" binding:"omitempty,gte=0,lte=150"`
	Location      *string `json:"location"`
	Gender        *string `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodType     *string `json:"blood_type" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Notifications *bool   `json:"notifications"`
}

// GetProfile GET /api/profile (auth required)
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	u := h.Sessions.GetCurrentUser(c.Request.Context())
	if u == nil {
		response.Error[any](c, http.StatusUnauthorized, "not signed in", nil)
		return
	}
	response.Success(c, http.StatusOK, userView(u), "profile", nil)
}

// UpdateProfile PUT /api/profile (auth required)
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	patch := entity.ProfilePatch{
		FullName:      req.FullName,
		Phone:         req.Phone,
		Age:           req.Age,
		Location:      req.Location,
		Gender:        req.Gender,
		BloodType:     req.BloodType,
		Notifications: req.Notifications,
	}
	u, err := h.applyPatch(c, patch)
	if err != nil {
		return // applyPatch already wrote the response
	}

	h.notifyProfileUpdated(c, u)
	audit(c, h.Audit, u.ID, u.Email, "profile_update", map[string]any{"origin": u.Origin})
	response.Success(c, http.StatusOK, userView(u), "profile updated", nil)
}

// UploadAvatar POST /api/profile/avatar (auth required, multipart form, field "avatar")
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	if h.GCS == nil || h.Cfg.GCSBucket == "" {
		response.Error[any](c, http.StatusServiceUnavailable, "avatar storage is not configured", nil)
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	if file.Size > maxAvatarSize {
		response.Error[any](c, http.StatusBadRequest, "avatar exceeds 5MB limit", nil)
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error[any](c, http.StatusBadRequest, "avatar must be an image", nil)
		return
	}

	uid := c.GetString("userID")
	src, err := file.Open()
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to read upload", nil)
		return
	}
	defer func() { _ = src.Close() }()

	ext := filepath.Ext(file.Filename)
	object := fmt.Sprintf("avatars/%s/%d-%s%s", uid, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	url, err := helpers.UploadObject(c.Request.Context(), h.GCS, h.Cfg.GCSBucket, object, contentType, src)
	if err != nil {
		h.Logger.WithError(err).Error("avatar upload failed")
		response.Error[any](c, http.StatusBadGateway, "avatar upload failed", nil)
		return
	}

	u, err := h.applyPatch(c, entity.ProfilePatch{AvatarRef: &url})
	if err != nil {
		return
	}
	audit(c, h.Audit, u.ID, u.Email, "avatar_upload", map[string]any{"object": object})
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar updated", nil)
}

func (h *ProfileHandler) applyPatch(c *gin.Context, patch entity.ProfilePatch) (*entity.UserRecord, error) {
	u, err := h.Sessions.UpdateProfile(c.Request.Context(), patch)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrNotAuthenticated):
			response.Error[any](c, http.StatusUnauthorized, "not signed in", nil)
		case errors.Is(err, application.ErrProviderUnavailable):
			response.Error[any](c, http.StatusServiceUnavailable, "profile service is temporarily unavailable", nil)
		default:
			h.Logger.WithError(err).Error("profile update failed")
			response.Error[any](c, http.StatusInternalServerError, "failed to update profile", nil)
		}
		return nil, err
	}
	return u, nil
}

func (h *ProfileHandler) notifyProfileUpdated(c *gin.Context, u *entity.UserRecord) {
	if h.Pub == nil || h.Cfg == nil || !h.Cfg.MailSendEnabled {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: "profile_updated",
		Data: map[string]any{
			"Name":  u.DisplayName(),
			"Email": u.Email,
			"Time":  time.Now().Format(time.RFC1123),
			"IP":    clientIP(c),
		},
	}
	if err := h.Pub.PublishJSON(c.Request.Context(), job); err != nil {
		h.Logger.WithError(err).Warn("profile update email enqueue failed")
	}
}
