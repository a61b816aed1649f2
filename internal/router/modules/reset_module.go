package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptguard/promptguard/internal/container"
	handlers "github.com/promptguard/promptguard/internal/interface/http"
	"github.com/promptguard/promptguard/internal/interface/middleware"
)

// ResetModule exposes the public password-reset endpoints. Both are
// unauthenticated; tight per-IP limits slow down token guessing and
// mailbox flooding.
type ResetModule struct {
	Handler *handlers.ResetHandler
}

func NewResetModule(h *handlers.ResetHandler) *ResetModule {
	return &ResetModule{Handler: h}
}

func (m *ResetModule) Register(rg *gin.RouterGroup) {
	forgotLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/forgot-password", forgotLimiter, m.Handler.ForgotPassword)
	rg.POST("/reset-password", resetLimiter, m.Handler.ResetPassword)
}
