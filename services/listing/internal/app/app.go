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
	"tg-market/pkg/s3"
	listingHTTP "tg-market/services/listing/internal/controller/http"
	"tg-market/services/listing/internal/entity"
	"tg-market/services/listing/internal/repo/persistent"
	"tg-market/services/listing/internal/usecase"
	"tg-market/services/listing/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "tg-market/services/listing/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	queueClient *queue.Client
	jwtService  *jwt.Service
	httpServer  *http.Server
	lifecycle   *worker.LifecycleTask
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
		log.Error("Failed to connect to redis: %v (free slots fall back to the database only)", err)
		redisClient = nil
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to initialize S3 client: %v", err)
		return nil, err
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v (listings will not reach moderation automatically)", err)
		queueClient = nil
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		queueClient: queueClient,
		jwtService:  jwt.NewService(cfg.JWTSecret).WithTTL(cfg.JWTTTL),
	}, nil
}

func (a *App) useCase() usecase.ListingUseCase {
	var events usecase.EventPublisher
	if a.queueClient != nil {
		events = a.queueClient
	}

	categoryByType := map[entity.PostType]string{}
	if a.cfg.JobCategoryID != "" {
		categoryByType[entity.PostTypeJob] = a.cfg.JobCategoryID
	}
	if a.cfg.ServiceCategoryID != "" {
		categoryByType[entity.PostTypeService] = a.cfg.ServiceCategoryID
	}

	return usecase.NewListingUseCase(
		persistent.NewListingRepository(a.db),
		persistent.NewReferenceRepository(a.db),
		cache.NewStore(a.redisClient),
		a.s3Client,
		events,
		usecase.Options{
			FreePostCooldown:    a.cfg.FreePostCooldown,
			DefaultLifetimeDays: a.cfg.DefaultListingLifetimeDays,
			CategoryByType:      categoryByType,
		},
		a.log,
	)
}

func (a *App) router(listingUseCase usecase.ListingUseCase) *gin.Engine {
	listingHandler := listingHTTP.NewListingHandler(listingUseCase, a.log)
	adminUseCase := usecase.NewAdminUseCase(
		persistent.NewAdminRepository(a.db),
		persistent.NewReferenceRepository(a.db),
		cache.NewStore(a.redisClient),
		a.log,
	)
	adminHandler := listingHTTP.NewAdminHandler(adminUseCase, listingUseCase, a.log)

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
		api.GET("/catalog", listingHandler.Catalog)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(a.jwtService))
		protected.Use(middleware.RateLimitMiddleware(a.redisClient, 100, time.Minute))
		{
			protected.POST("/listings/jobs", middleware.RateLimitMiddleware(a.redisClient, 10, time.Hour), listingHandler.CreateJobListing)
			protected.POST("/listings/services", middleware.RateLimitMiddleware(a.redisClient, 10, time.Hour), listingHandler.CreateServiceListing)
			protected.GET("/listings", listingHandler.ListListings)
			protected.GET("/listings/:id", listingHandler.GetListing)
			protected.POST("/favorites/:listing_id", listingHandler.AddFavorite)
			protected.DELETE("/favorites/:listing_id", listingHandler.RemoveFavorite)
			protected.GET("/favorites", listingHandler.ListFavorites)
			protected.GET("/users/:user_id/free-post-status", listingHandler.FreePostStatus)
			protected.GET("/users/:user_id/stats", listingHandler.UserStats)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware(a.cfg.AdminUsername, a.cfg.AdminPasswordHash))
		{
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/listings", adminHandler.ListListings)
			admin.PUT("/listings/:id", adminHandler.UpdateListing)
			admin.DELETE("/listings/:id", adminHandler.DeleteListing)
			admin.GET("/categories", adminHandler.ListCategories)
			admin.POST("/categories", adminHandler.CreateCategory)
			admin.PUT("/categories/:id", adminHandler.UpdateCategory)
			admin.DELETE("/categories/:id", adminHandler.DeleteCategory)
			admin.GET("/cities", adminHandler.ListCities)
			admin.POST("/cities", adminHandler.CreateCity)
			admin.PUT("/cities/:id", adminHandler.UpdateCity)
			admin.DELETE("/cities/:id", adminHandler.DeleteCity)
			admin.POST("/tasks/expire-listings", adminHandler.ExpireListings)
			admin.POST("/tasks/boost-listings", adminHandler.BoostListings)
		}
	}

	return r
}

func (a *App) Run() error {
	listingUseCase := a.useCase()

	a.lifecycle = worker.NewLifecycleTask(listingUseCase, a.log)
	if err := a.lifecycle.Start(); err != nil {
		return err
	}

	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: a.router(listingUseCase),
	}

	go func() {
		a.log.Info("Listing service starting on port %s", a.cfg.ServerPort)
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
	a.log.Info("Shutting down listing service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.lifecycle != nil {
		a.lifecycle.Stop()
	}

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

	a.log.Info("Listing service exited")
	return nil
}
