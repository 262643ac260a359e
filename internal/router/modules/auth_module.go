package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghanahealth/patient-portal/internal/container"
	handlers "github.com/ghanahealth/patient-portal/internal/interface/http"
	"github.com/ghanahealth/patient-portal/internal/interface/middleware"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
	Reset   *handlers.ResetHandler
}

func NewAuthModule(h *handlers.AuthHandler, reset *handlers.ResetHandler) *AuthModule {
	return &AuthModule{Handler: h, Reset: reset}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)
	resetInitLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetConfirmLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/auth/reset/init", resetInitLimiter, m.Reset.ResetInit)
	rg.POST("/auth/reset/confirm", resetConfirmLimiter, m.Reset.ResetConfirm)

	// Protected
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetSessions(), container.GetJWT()))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/auth/me", m.Handler.Me)
		auth.POST("/auth/logout", m.Handler.Logout)
	}
}
