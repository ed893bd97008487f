package main

import (
	"os"
	"time"

	_ "github.com/HaleluiaLuis/fincontrol-sub001/api/swagger" // swagger docs
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/auth"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/authz"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/database"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/handler"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/logger"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/middleware"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/repository"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/service"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/websocket"
	"github.com/HaleluiaLuis/fincontrol-sub001/pkg/cache"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           FinControl API
// @version         1.0
// @description     Financial control backend: payment-approval workflow with session auth and RBAC.
// @host            localhost:8080
// @BasePath        /
func main() {
	log := logger.New()
	defer func() { _ = log.Sync() }()

	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info("No configs/.env file found, relying on environment")
	}

	dsn := "postgres://" + envOr("DB_USER", "postgres") + ":" + envOr("DB_PASSWORD", "postgres") +
		"@" + envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432") +
		"/" + envOr("DB_NAME", "fincontrol") + "?sslmode=" + envOr("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalw("database connection failed", "error", err)
	}
	log.Info("connected to PostgreSQL")

	// Set up WebSocket hub for workflow event notifications
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	requestRepo := repository.NewPaymentRequestRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	txManager := repository.NewTransactionManager(db)

	// Services
	sessionService := service.NewSessionService(userRepo, sessionRepo, auditRepo, log)
	workflowService := service.NewWorkflowService(
		requestRepo, approvalRepo, invoiceRepo, auditRepo,
		userRepo, supplierRepo, categoryRepo, txManager, wsHub, log,
	)
	historyService := service.NewHistoryService(approvalRepo, auditRepo)
	supplierService := service.NewSupplierService(supplierRepo, auditRepo)
	categoryService := service.NewCategoryService(categoryRepo, auditRepo)
	auditService := service.NewAuditService(auditRepo)
	reportService := service.NewReportService(db, cache.New(service.ReportCacheTTL))
	authenticator := auth.NewPasswordAuthenticator(userRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authenticator, sessionService)
	paymentHandler := handler.NewPaymentHandler(workflowService, historyService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	auditHandler := handler.NewAuditHandler(auditService)
	adminHandler := handler.NewAdminHandler(sessionService)
	reportHandler := handler.NewReportHandler(reportService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK", "time": time.Now().Format(time.RFC3339)})
	})

	// WebSocket endpoint (session-token authenticated)
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, sessionService)
	})

	// Every /api route passes session validation + the RBAC prefix table
	accessControl := authz.New(authz.DefaultTable())
	api := router.Group("")
	api.Use(middleware.Authorize(sessionService, accessControl))

	authHandler.RegisterRoutes(api)
	paymentHandler.RegisterRoutes(api)
	supplierHandler.RegisterRoutes(api)
	categoryHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	adminHandler.RegisterRoutes(api)
	reportHandler.RegisterRoutes(api)

	port := envOr("PORT", "8080")
	log.Infow("server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalw("server failed", "error", err)
	}
}
