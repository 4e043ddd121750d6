package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tg-market/pkg/cache"
	"tg-market/pkg/config"
	"tg-market/pkg/database"
	"tg-market/pkg/jwt"
	"tg-market/pkg/logger"
	"tg-market/pkg/middleware"
	"tg-market/pkg/queue"
	billingHTTP "tg-market/services/billing/internal/controller/http"
	"tg-market/services/billing/internal/repo/persistent"
	"tg-market/services/billing/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "tg-market/services/billing/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	queueClient *queue.Client
	jwtService  *jwt.Service
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v (continuing without rate limit)", err)
		redisClient = nil
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v (paid listings will not reach moderation automatically)", err)
		queueClient = nil
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		queueClient: queueClient,
		jwtService:  jwt.NewService(cfg.JWTSecret).WithTTL(cfg.JWTTTL),
	}, nil
}

func (a *App) Router() *gin.Engine {
	var events usecase.EventPublisher
	if a.queueClient != nil {
		events = a.queueClient
	}

	billingRepo := persistent.NewBillingRepository(a.db)
	billingUseCase := usecase.NewBillingUseCase(billingRepo, events, cache.NewStore(a.redisClient), a.log)
	billingHandler := billingHTTP.NewBillingHandler(billingUseCase, a.log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://web.telegram.org", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		api.GET("/packages", billingHandler.ListPackages)
		api.GET("/packages/:id", billingHandler.GetPackage)

		adminAuth := middleware.AdminAuthMiddleware(a.cfg.AdminUsername, a.cfg.AdminPasswordHash)
		api.PUT("/payments/:id/complete", adminAuth, billingHandler.CompletePayment)

		admin := api.Group("/admin")
		admin.Use(adminAuth)
		{
			admin.GET("/packages", billingHandler.AdminListPackages)
			admin.POST("/packages", billingHandler.CreatePackage)
			admin.PUT("/packages/:id", billingHandler.UpdatePackage)
			admin.DELETE("/packages/:id", billingHandler.DeletePackage)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(a.jwtService))
		protected.Use(middleware.RateLimitMiddleware(a.redisClient, 30, time.Minute))
		{
			protected.POST("/payments", billingHandler.CreatePayment)
			protected.GET("/payments", billingHandler.ListPayments)
			protected.GET("/payments/:id", billingHandler.GetPayment)
		}
	}

	return r
}

func (a *App) Run() error {
	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: a.Router(),
	}

	go func() {
		a.log.Info("Billing service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down billing service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
		return err
	}

	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	a.log.Info("Billing service exited")
	return nil
}
