package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Wetende/crossview-sub004/internal/config"
	"github.com/Wetende/crossview-sub004/internal/domain/repository"
	"github.com/Wetende/crossview-sub004/internal/handler"
	"github.com/Wetende/crossview-sub004/internal/middleware"
	pgRepo "github.com/Wetende/crossview-sub004/internal/repository/postgres"
	redisRepo "github.com/Wetende/crossview-sub004/internal/repository/redis"
	"github.com/Wetende/crossview-sub004/internal/service"
	"github.com/Wetende/crossview-sub004/pkg/auth"
	"github.com/Wetende/crossview-sub004/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	engineConfig, err := cfg.Assessment.EngineConfig()
	if err != nil {
		log.Printf("Invalid assessment config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Redis необязателен: без него нет кеша и лимита на отправку ответов
	var cacheRepo repository.CacheRepository
	var closeRedis func() error
	if len(cfg.Redis.Addrs) > 0 || cfg.Redis.Addr != "" {
		redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		closeRedis = redisClient.Close

		repo, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
		if err != nil {
			log.Printf("Failed to initialize CacheRepo: %v", err)
			os.Exit(1)
		}
		cacheRepo = repo
		log.Println("Successfully connected to Redis")
	} else {
		log.Println("WARNING: Redis не настроен, кеш и rate limiting отключены")
	}

	// Инициализируем репозитории
	quizRepo := pgRepo.NewQuizRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)

	// Инициализируем сервисы
	quizService := service.NewQuizService(quizRepo, cacheRepo)
	attemptService := service.NewAttemptService(quizRepo, attemptRepo, cacheRepo, engineConfig)

	// Токены выдаёт внешний сервис идентификации, здесь они только проверяются
	verifier, err := auth.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		log.Printf("Failed to initialize JWT verifier: %v", err)
		os.Exit(1)
	}

	// Инициализируем обработчики и middleware
	quizHandler := handler.NewQuizHandler(quizService, attemptService)
	attemptHandler := handler.NewAttemptHandler(attemptService)
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	var submitLimit gin.HandlerFunc
	if cacheRepo != nil {
		submitLimit = middleware.NewRateLimiter(cacheRepo).Limit(middleware.SubmitRateLimitConfig(cfg.RateLimit.SubmitPerMinute))
	}

	isProduction := os.Getenv("GIN_MODE") == "release"

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// В production не доверяем прокси-заголовкам (защита от IP spoofing)
	trustedProxies := []string{"127.0.0.1", "::1"}
	if isProduction {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	allowedOrigins := cfg.Server.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler.RegisterRoutes(router.Group("/api"), quizHandler, attemptHandler, authMiddleware, submitLimit)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if closeRedis != nil {
		if err := closeRedis(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	log.Println("Server exited properly")
}
