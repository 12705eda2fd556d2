package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat_server/internal/config"
	"chat_server/internal/handler"
	"chat_server/internal/middleware"
	"chat_server/internal/repository"
	"chat_server/internal/service"
	"chat_server/internal/ws"
	"chat_server/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	appLogger := logger.New(cfg.Log.Level)

	// Подключение к PostgreSQL
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	// Проверка подключения к БД
	if err := dbPool.Ping(context.Background()); err != nil {
		appLogger.Fatal("Failed to ping database", "error", err)
	}
	appLogger.Info("Database connection established")

	// Подключение к Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Проверка подключения к Redis
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	appLogger.Info("Redis connection established")

	// Инициализация репозиториев
	repos := repository.NewRepositories(dbPool, rdb, appLogger)

	// Хаб раздаёт кадры, сервисы решают кому; хаб передаётся
	// сервисам как Broadcaster, чтобы fanout не знал про WebSocket
	hub := ws.NewHub(appLogger)

	// Инициализация сервисов
	services := service.NewServices(repos, hub, cfg, appLogger)

	gateway := ws.NewGateway(hub, services, cfg.Chat, appLogger)

	// Фоновая чистка кеша членства
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go services.Cleanup.Run(cleanupCtx)

	// Инициализация middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT, appLogger)

	// Инициализация handlers
	handlers := handler.NewHandlers(services, gateway, cfg, appLogger)

	// Настройка роутера
	router := setupRouter(handlers, authMiddleware, cfg, appLogger)

	// Запуск HTTP сервера
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		appLogger.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Ожидание сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancelCleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exited")
}

func setupRouter(
	handlers *handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler())

	// Health check
	router.GET("/health", handlers.Health.Check)

	// WebSocket вход: токен приходит query-параметром
	router.GET("/ws", authMiddleware.RequireAuth(), handlers.WebSocket.Connect)

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.RequireAuth())
	{
		users := v1.Group("/users")
		{
			users.GET("", handlers.User.List)
		}

		conversations := v1.Group("/conversations")
		{
			conversations.GET("", handlers.Conversation.List)
			conversations.POST("/direct", handlers.Conversation.EnsureDirect)
			conversations.GET("/direct/:userId", handlers.Conversation.FindDirect)
			conversations.POST("/groups", handlers.Conversation.CreateGroup)
			conversations.POST("/external-groups", handlers.Conversation.CreateExternalGroup)
			conversations.GET("/:id/messages", handlers.Conversation.ListMessages)
			conversations.GET("/:id/members", handlers.Conversation.ListMembers)
			conversations.POST("/:id/members", handlers.Conversation.AddMembers)
			conversations.DELETE("/:id/members/:userId", handlers.Conversation.Kick)
			conversations.POST("/:id/leave", handlers.Conversation.Leave)
			conversations.DELETE("/:id", handlers.Conversation.Clear)
		}
	}

	return router
}
