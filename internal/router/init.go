package router

import (
	"github.com/ghanahealth/patient-portal/internal/container"
	handlers "github.com/ghanahealth/patient-portal/internal/interface/http"
	"github.com/ghanahealth/patient-portal/internal/router/modules"
)

// InitModules wires all feature modules from the container singletons and
// registers them with the registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	authHandler := handlers.NewAuthHandler(
		container.GetSessions(),
		container.GetJWT(),
		container.GetCookies(),
		container.GetLogger(),
		cfg,
		container.GetAudit(),
	)
	profileHandler := handlers.NewProfileHandler(
		container.GetSessions(),
		container.GetGCS(),
		cfg,
		container.GetLogger(),
		container.GetRabbitPub(),
		container.GetAudit(),
	)
	resetHandler := handlers.NewResetHandler(
		container.GetLocalStore(),
		container.GetRedis(),
		cfg,
		container.GetRabbitPub(),
		container.GetLogger(),
		container.GetAudit(),
	)
	doctorHandler := handlers.NewDoctorHandler(container.GetDoctors(), container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, resetHandler))
	r.Add(modules.NewProfileModule(profileHandler))
	r.Add(modules.NewDoctorModule(doctorHandler))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
