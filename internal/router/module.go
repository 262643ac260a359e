package router

import "github.com/gin-gonic/gin"

// Module is one slice of the portal's API surface (auth, profile, doctor
// directory, debug). Each mounts its own routes, with their rate limits and
// auth requirements, onto the shared /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
