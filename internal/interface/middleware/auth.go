package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghanahealth/patient-portal/internal/application"
	"github.com/ghanahealth/patient-portal/pkg/helpers"
	"github.com/ghanahealth/patient-portal/pkg/response"
)

const CtxUserIDKey = "userID"

// Auth validates the access token cookie and checks that the token still
// matches the signed-in user. It sets userID, userName, and userEmail in
// the Gin context on success.
func Auth(sessions *application.SessionManager, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", err.Error())
			c.Abort()
			return
		}

		user := sessions.GetCurrentUser(c.Request.Context())
		if user == nil || user.ID != claims.UserID {
			response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, user.ID)
		c.Set("userName", user.DisplayName())
		c.Set("userEmail", user.Email)
		c.Next()
	}
}
