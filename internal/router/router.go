package router

import (
	"time"

	"garagepos/internal/config"
	"garagepos/internal/handler"
	"garagepos/internal/middleware"
	"garagepos/internal/repository"
	"garagepos/internal/service"
	"garagepos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	operatorRepo := repository.NewOperatorRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into the session service so a successful
	// close enqueues the supervisor summary email.
	dispatcher := worker.NewDispatcher(rdb)

	authSvc := service.NewAuthService(operatorRepo, cfg)
	sessionSvc := service.NewSessionService(sessionRepo, dispatcher)
	ledgerSvc := service.NewLedgerService(sessionRepo, movementRepo)
	reportSvc := service.NewReportService(movementRepo)
	exportSvc := service.NewExportService()

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	cashboxH := handler.NewCashboxHandler(sessionSvc, ledgerSvc)
	reportsH := handler.NewReportsHandler(reportSvc, exportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: operator, supervisor, admin — declared per-endpoint
		cashbox := v1.Group("/cashbox")
		{
			cashbox.POST("/open", middleware.RequireRole("operator", "supervisor", "admin"), cashboxH.Open)
			cashbox.GET("/current", middleware.RequireRole("operator", "supervisor", "admin"), cashboxH.Current)
			cashbox.GET("/history", middleware.RequireRole("supervisor", "admin"), cashboxH.History)
			cashbox.POST("/:id/close", middleware.RequireRole("operator", "supervisor", "admin"), cashboxH.Close)
			cashbox.GET("/:id/report", middleware.RequireRole("operator", "supervisor", "admin"), cashboxH.Report)
			cashbox.POST("/:id/movements", middleware.RequireRole("operator", "supervisor", "admin"), cashboxH.AddMovement)
			cashbox.GET("/:id/movements", middleware.RequireRole("operator", "supervisor", "admin"), cashboxH.ListMovements)
			cashbox.PUT("/:id/movements/:movementId", middleware.RequireRole("operator", "supervisor", "admin"), cashboxH.UpdateMovement)
			cashbox.DELETE("/:id/movements/:movementId", middleware.RequireRole("operator", "supervisor", "admin"), cashboxH.DeleteMovement)
		}

		reports := v1.Group("/reports", middleware.RequireRole("supervisor", "admin"))
		{
			reports.GET("/cash-flow", reportsH.CashFlow)
			reports.GET("/cash-flow/export", reportsH.Export)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
