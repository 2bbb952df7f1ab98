// Package router wires repositories, services and handlers into the HTTP
// surface.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/yanarios/sistema-kiosco/internal/config"
	"github.com/yanarios/sistema-kiosco/internal/handler"
	"github.com/yanarios/sistema-kiosco/internal/middleware"
	"github.com/yanarios/sistema-kiosco/internal/model"
	"github.com/yanarios/sistema-kiosco/internal/repository"
	"github.com/yanarios/sistema-kiosco/internal/service"
	"github.com/yanarios/sistema-kiosco/internal/worker"
)

// Deps carries the shared infrastructure the router builds the app around.
type Deps struct {
	Cfg        *config.Config
	DB         *gorm.DB
	Redis      *redis.Client
	Dispatcher *worker.Dispatcher
}

// New assembles the full engine: repositories, services, handlers, routes.
func New(deps Deps) *gin.Engine {
	if deps.Cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Repositories
	productRepo := repository.NewProductRepository(deps.DB)
	categoryRepo := repository.NewCategoryRepository(deps.DB)
	customerRepo := repository.NewCustomerRepository(deps.DB)
	userRepo := repository.NewUserRepository(deps.DB)
	saleRepo := repository.NewSaleRepository(deps.DB)
	sessionRepo := repository.NewSessionRepository(deps.DB)
	stockLogRepo := repository.NewStockMovementRepository(deps.DB)
	reportRepo := repository.NewReportRepository(deps.DB)

	// Services
	var receipts service.ReceiptQueue
	if deps.Dispatcher != nil {
		receipts = deps.Dispatcher
	}
	saleSvc := service.NewSaleService(saleRepo, productRepo, sessionRepo, customerRepo, stockLogRepo, receipts)
	sessionSvc := service.NewSessionService(sessionRepo, saleRepo, deps.Cfg.TenderMapping(), deps.Cfg.Tolerance())
	catalogSvc := service.NewCatalogService(productRepo, categoryRepo, stockLogRepo)
	customerSvc := service.NewCustomerService(customerRepo)
	reportSvc := service.NewReportService(reportRepo, productRepo, stockLogRepo)
	authSvc := service.NewAuthService(userRepo, deps.Cfg.JWTSecret,
		time.Duration(deps.Cfg.JWTExpirationHours)*time.Hour,
		time.Duration(deps.Cfg.JWTRefreshHours)*time.Hour)

	// Handlers
	saleH := handler.NewSaleHandler(saleSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	productH := handler.NewProductHandler(catalogSvc, reportSvc)
	categoryH := handler.NewCategoryHandler(catalogSvc)
	customerH := handler.NewCustomerHandler(customerSvc)
	reportH := handler.NewReportHandler(reportSvc)
	authH := handler.NewAuthHandler(authSvc)
	priceH := handler.NewPriceCheckHandler(catalogSvc, deps.Redis)
	healthH := handler.NewHealthHandler(deps.DB, deps.Redis)
	jobH := handler.NewJobHandler(deps.Dispatcher)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORS(),
		middleware.ErrorHandler(),
	)

	r.GET("/health", healthH.Check)
	if deps.Cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	publicLimit := middleware.RateLimiter(60, time.Minute)

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", publicLimit, authH.Login)
		auth.POST("/refresh", authH.Refresh)

		v1.GET("/public/price/:code", publicLimit, priceH.Check)
	}

	authed := v1.Group("")
	authed.Use(middleware.JWTAuth(deps.Cfg.JWTSecret))
	{
		products := authed.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.Get)
		products.GET("/code/:code", productH.GetByCode)
		products.GET("/:id/stock-history", productH.StockHistory)
		products.POST("", middleware.RequireRole(model.RoleAdmin), productH.Create)
		products.PUT("/:id", middleware.RequireRole(model.RoleAdmin), productH.Update)
		products.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), productH.Deactivate)
		products.POST("/:id/reactivate", middleware.RequireRole(model.RoleAdmin), productH.Reactivate)
		products.POST("/:id/stock-adjust", middleware.RequirePrivileged(), productH.AdjustStock)
		products.POST("/import", middleware.RequireRole(model.RoleAdmin), productH.Import)
		products.GET("/export", middleware.RequirePrivileged(), productH.Export)

		categories := authed.Group("/categories")
		categories.GET("", categoryH.List)
		categories.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), categoryH.Delete)

		customers := authed.Group("/customers")
		customers.GET("", customerH.List)
		customers.GET("/:id", customerH.Get)
		customers.POST("", customerH.Create)

		sales := authed.Group("/sales")
		sales.POST("", saleH.Process)
		sales.GET("", saleH.List)
		sales.GET("/:id", saleH.Get)
		sales.POST("/:id/void", middleware.RequirePrivileged(), saleH.Void)

		sessions := authed.Group("/sessions")
		sessions.POST("/open", sessionH.Open)
		sessions.POST("/close", sessionH.Close)
		sessions.POST("/movements", sessionH.RecordMovement)
		sessions.GET("/active", sessionH.Active)
		sessions.GET("", sessionH.History)
		sessions.GET("/:id/report", sessionH.Report)
		sessions.PUT("/:id/audit-note", middleware.RequirePrivileged(), sessionH.AuditNote)

		reports := authed.Group("/reports", middleware.RequirePrivileged())
		reports.GET("/monthly", reportH.Monthly)
		reports.GET("/monthly/export", reportH.MonthlyExport)
		reports.GET("/low-stock", reportH.LowStock)

		jobs := authed.Group("/jobs", middleware.RequireRole(model.RoleAdmin))
		jobs.GET("/dead", jobH.DeadJobs)
		jobs.POST("/dead/retry", jobH.RetryDeadJobs)

		users := authed.Group("/users", middleware.RequireRole(model.RoleAdmin))
		users.POST("", authH.CreateUser)
		users.GET("", authH.ListUsers)
		users.DELETE("/:id", authH.DeactivateUser)
	}

	return r
}
