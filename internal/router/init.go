package router

import (
	userapp "github.com/promptguard/promptguard/internal/application"
	"github.com/promptguard/promptguard/internal/container"
	"github.com/promptguard/promptguard/internal/infrastructure/notify"
	pginfra "github.com/promptguard/promptguard/internal/infrastructure/postgres"
	handlers "github.com/promptguard/promptguard/internal/interface/http"
	"github.com/promptguard/promptguard/internal/router/modules"
)

// InitModules wires repositories, services, and handlers from the container
// singletons and registers every feature module. Called once at startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	userRepo := pginfra.NewUserRepository(pool)
	tokenRepo := pginfra.NewResetTokenRepository(pool)
	analysisRepo := pginfra.NewAnalysisRepository(pool)

	userSvc := userapp.NewService(userRepo, container.GetJWT(), container.GetRedis(), logger)
	resetSvc := userapp.NewResetService(
		userRepo,
		tokenRepo,
		notify.NewQueueNotifier(container.GetRabbitPub()),
		cfg.ResetPasswordURL,
		cfg.ResetTokenTTL,
		logger,
	)
	analysisSvc := userapp.NewAnalysisService(analysisRepo, logger)

	userHandler := handlers.NewUserHandler(userSvc, logger, cfg.CookieDomain, cfg.CookieSecure)
	resetHandler := handlers.NewResetHandler(resetSvc, logger)
	analysisHandler := handlers.NewAnalysisHandler(analysisSvc, userSvc, logger)

	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	r.Add(modules.NewResetModule(resetHandler))
	r.Add(modules.NewAnalysisModule(analysisHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
