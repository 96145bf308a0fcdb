package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/scrim-system/config"
	"github.com/Dosada05/scrim-system/db"
	"github.com/Dosada05/scrim-system/handlers"
	"github.com/Dosada05/scrim-system/live"
	"github.com/Dosada05/scrim-system/repositories"
	api "github.com/Dosada05/scrim-system/routes"
	"github.com/Dosada05/scrim-system/services"
	"github.com/Dosada05/scrim-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const schedulerInterval = 30 * time.Second // How often the expiry scheduler runs

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(logger, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2).
	// Без R2-конфигурации логотипы просто недоступны.
	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("Cloudflare R2 uploader disabled: no R2 configuration")
	}

	// Инициализация WebSocket Hub (live-доска скримов)
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	transactor := repositories.NewSQLTransactor(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	scrimRepo := repositories.NewPostgresScrimRepository(dbConn)
	applicationRepo := repositories.NewPostgresApplicationRepository(dbConn)
	tierRequestRepo := repositories.NewPostgresTierRequestRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, teamRepo, uploader)
	teamService := services.NewTeamService(transactor, teamRepo, userRepo, scrimRepo, uploader)
	scrimService := services.NewScrimService(transactor, scrimRepo, teamRepo, userRepo, applicationRepo, wsHub)
	applicationService := services.NewApplicationService(transactor, applicationRepo, scrimRepo, teamRepo, userRepo, wsHub)
	tierRequestService := services.NewTierRequestService(transactor, tierRequestRepo, userRepo)
	logger.Info("Services initialized")

	// Запуск планировщика перевода просроченных скримов в expired
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("Scrim expiry scheduler started", slog.Duration("interval", schedulerInterval))

		// Run once immediately at startup, then on ticker
		if n, err := scrimService.CloseExpired(context.Background(), time.Now()); err != nil {
			logger.Error("Scheduler: initial run failed", slog.Any("error", err))
		} else if n > 0 {
			logger.Info("Scheduler: expired scrims", slog.Int("count", n))
		}

		for range ticker.C {
			if n, err := scrimService.CloseExpired(context.Background(), time.Now()); err != nil {
				logger.Error("Scheduler: periodic run failed", slog.Any("error", err))
			} else if n > 0 {
				logger.Info("Scheduler: expired scrims", slog.Int("count", n))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService, tierRequestService)
	teamHandler := handlers.NewTeamHandler(teamService)
	scrimHandler := handlers.NewScrimHandler(scrimService, applicationService)
	adminHandler := handlers.NewAdminHandler(tierRequestService)
	metaHandler := handlers.NewMetaHandler(userService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		cfg.CORSOrigins,
		authHandler,
		userHandler,
		teamHandler,
		scrimHandler,
		adminHandler,
		metaHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
