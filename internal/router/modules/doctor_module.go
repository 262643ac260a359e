package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghanahealth/patient-portal/internal/container"
	handlers "github.com/ghanahealth/patient-portal/internal/interface/http"
	"github.com/ghanahealth/patient-portal/internal/interface/middleware"
)

type DoctorModule struct {
	Handler *handlers.DoctorHandler
}

func NewDoctorModule(h *handlers.DoctorHandler) *DoctorModule {
	return &DoctorModule{Handler: h}
}

func (m *DoctorModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetSessions(), container.GetJWT()))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/doctors", m.Handler.Search)
	}
}
