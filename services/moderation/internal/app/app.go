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
	"tg-market/pkg/logger"
	"tg-market/pkg/middleware"
	"tg-market/pkg/queue"
	moderationHTTP "tg-market/services/moderation/internal/controller/http"
	"tg-market/services/moderation/internal/repo/persistent"
	"tg-market/services/moderation/internal/usecase"
	"tg-market/services/moderation/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "tg-market/services/moderation/docs" // Swagger docs
)

const eventTimeout = 30 * time.Second

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	queueClient *queue.Client
	httpServer  *http.Server
	backlog     *worker.BacklogTask
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
		log.Error("Failed to connect to redis: %v (cached listings expire on their own)", err)
		redisClient = nil
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v (screening falls back to the backlog job)", err)
		queueClient = nil
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		queueClient: queueClient,
	}, nil
}

func (a *App) useCase() usecase.ModerationUseCase {
	if len(a.cfg.BannedWords) == 0 {
		a.log.Warn("BANNED_WORDS is empty, every listing goes to manual review")
	}
	return usecase.NewModerationUseCase(
		persistent.NewModerationRepository(a.db),
		usecase.NewScreener(a.cfg.BannedWords),
		cache.NewStore(a.redisClient),
		a.log,
	)
}

func (a *App) router(moderationUseCase usecase.ModerationUseCase) *gin.Engine {
	moderationHandler := moderationHTTP.NewModerationHandler(moderationUseCase, a.log)
	feedHandler := moderationHTTP.NewReviewFeedHandler(cache.NewStore(a.redisClient), a.log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1/moderation")
	api.Use(middleware.AdminAuthMiddleware(a.cfg.AdminUsername, a.cfg.AdminPasswordHash))
	{
		api.GET("/listings", moderationHandler.ListListings)
		api.POST("/listings/:id/approve", moderationHandler.Approve)
		api.POST("/listings/:id/reject", moderationHandler.Reject)
		api.GET("/stats", moderationHandler.Stats)
		api.GET("/feed", feedHandler.Feed)
	}

	return r
}

func (a *App) Run() error {
	moderationUseCase := a.useCase()

	var inspector worker.QueueInspector
	if a.queueClient != nil {
		inspector = a.queueClient
		err := a.queueClient.ConsumeListingEvents(func(event queue.ListingEvent) error {
			ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
			defer cancel()
			return moderationUseCase.HandleListingCreated(ctx, event)
		})
		if err != nil {
			return err
		}
	}

	a.backlog = worker.NewBacklogTask(moderationUseCase, inspector, a.log)
	if err := a.backlog.Start(); err != nil {
		return err
	}

	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: a.router(moderationUseCase),
	}

	go func() {
		a.log.Info("Moderation service starting on port %s", a.cfg.ServerPort)
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
	a.log.Info("Shutting down moderation service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.backlog != nil {
		a.backlog.Stop()
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

	a.log.Info("Moderation service exited")
	return nil
}
