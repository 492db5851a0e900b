package main

import (
	"context"
	"log"
	"os"

	_ "github.com/roseyy14/project-monitoring/api/swagger" // swagger docs
	"github.com/roseyy14/project-monitoring/internal/database"
	"github.com/roseyy14/project-monitoring/internal/handler"
	"github.com/roseyy14/project-monitoring/internal/mailer"
	"github.com/roseyy14/project-monitoring/internal/middleware"
	"github.com/roseyy14/project-monitoring/internal/repository"
	"github.com/roseyy14/project-monitoring/internal/service"
	"github.com/roseyy14/project-monitoring/internal/storage"
	"github.com/roseyy14/project-monitoring/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Municipal Project Monitoring API
// @version         1.0
// @description     Tracks barangay infrastructure requests from submission through approval to completion.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Attachment hosting (local disk in dev, GCS when configured)
	uploader, err := storage.NewUploaderFromEnv(context.Background())
	if err != nil {
		log.Fatalf("Attachment storage setup failed: %v", err)
	}

	// Decision notification emails
	requestMailer := mailer.FromEnv()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo)
	requestService := service.NewRequestService(requestRepo, auditRepo, txManager, uploader, wsHub)
	approvalService := service.NewApprovalService(requestRepo, auditRepo, txManager, requestMailer, wsHub)
	progressService := service.NewProgressService(requestRepo, auditRepo, txManager, uploader, wsHub)
	statsService := service.NewStatsService(requestRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	requestHandler := handler.NewRequestHandler(requestService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	progressHandler := handler.NewProgressHandler(progressService)
	statsHandler := handler.NewStatsHandler(statsService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Locally hosted attachments
	if dir := os.Getenv("UPLOAD_DIR"); os.Getenv("USE_GCS") != "true" {
		if dir == "" {
			dir = "./uploads"
		}
		router.Static("/uploads", dir)
	}

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	progressHandler.RegisterRoutes(router.Group(""))
	statsHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
