package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptguard/promptguard/internal/container"
	handlers "github.com/promptguard/promptguard/internal/interface/http"
	"github.com/promptguard/promptguard/internal/interface/middleware"
	"github.com/promptguard/promptguard/pkg/helpers"
)

// UserModule wires account HTTP handlers and the session boundary into routes.
// Public: POST /api/signup, /api/signin, /api/refresh, /api/signout
// Protected: GET /api/user, POST /api/user/update,
// /api/user/change-password, /api/user/delete

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	signUpLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	signInLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/signup", signUpLimiter, m.Handler.SignUp)
	rg.POST("/signin", signInLimiter, m.Handler.SignIn)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	// Signout succeeds with or without a live session: cookies are always
	// cleared, and whatever session the cookie still points at is deleted.
	rg.POST("/signout", refreshLimiter, middleware.AuthOptional(container.GetRedis(), m.JWT), m.Handler.SignOut)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/user", m.Handler.CurrentUser)
		auth.POST("/user/update", m.Handler.UpdateProfile)
		auth.POST("/user/change-password", m.Handler.ChangePassword)
		auth.POST("/user/delete", m.Handler.DeleteAccount)
	}
}
