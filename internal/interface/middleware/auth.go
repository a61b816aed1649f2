package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/promptguard/promptguard/pkg/helpers"
	"github.com/promptguard/promptguard/pkg/response"
)

// Context keys set by the auth middleware.
const (
	CtxUserIDKey    = "userID"
	CtxUserNameKey  = "userName"
	CtxUserEmailKey = "userEmail"
)

// resolveSession maps the request's access-token cookie to an active session.
// Returns the session hash or nil when the caller is unauthenticated.
func resolveSession(c *gin.Context, rdb *redis.Client, jwt *helpers.JWTManager) map[string]string {
	token, err := c.Cookie("access_token")
	if err != nil || token == "" {
		return nil
	}
	claims, err := jwt.ParseAccessToken(token)
	if err != nil {
		return nil
	}
	data, err := rdb.HGetAll(c.Request.Context(), "user:session:"+claims.UserID).Result()
	if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
		return nil
	}
	return data
}

// Auth is the session boundary: every protected route consults it and gets a
// uniform 401 when no valid session accompanies the request. On success it
// injects the caller's identity into the Gin context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := resolveSession(c, rdb, jwt)
		if data == nil {
			response.AbortError(c, http.StatusUnauthorized, "not authenticated", nil)
			return
		}
		c.Set(CtxUserIDKey, data["user_id"])
		c.Set(CtxUserNameKey, data["name"])
		c.Set(CtxUserEmailKey, data["email"])
		c.Next()
	}
}

// AuthOptional injects the caller's identity when a valid session exists and
// lets anonymous requests through untouched. Used by the analyze endpoint,
// which works for guests but records history for signed-in users.
func AuthOptional(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if data := resolveSession(c, rdb, jwt); data != nil {
			c.Set(CtxUserIDKey, data["user_id"])
			c.Set(CtxUserNameKey, data["name"])
			c.Set(CtxUserEmailKey, data["email"])
		}
		c.Next()
	}
}
