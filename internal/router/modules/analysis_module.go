package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptguard/promptguard/internal/container"
	handlers "github.com/promptguard/promptguard/internal/interface/http"
	"github.com/promptguard/promptguard/internal/interface/middleware"
	"github.com/promptguard/promptguard/pkg/helpers"
)

// AnalysisModule wires the prompt-check collaborator endpoints. Analyze is
// open to guests (history is only recorded for signed-in users); the reading
// endpoints sit behind the session boundary.
type AnalysisModule struct {
	Handler *handlers.AnalysisHandler
	JWT     *helpers.JWTManager
}

func NewAnalysisModule(h *handlers.AnalysisHandler, jwt *helpers.JWTManager) *AnalysisModule {
	return &AnalysisModule{Handler: h, JWT: jwt}
}

func (m *AnalysisModule) Register(rg *gin.RouterGroup) {
	analyzeLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIP(), nil)
	rg.POST("/analyze", analyzeLimiter, middleware.AuthOptional(container.GetRedis(), m.JWT), m.Handler.Analyze)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/history", m.Handler.History)
		auth.GET("/user/stats", m.Handler.Stats)
		auth.GET("/user/export", m.Handler.Export)
	}
}
