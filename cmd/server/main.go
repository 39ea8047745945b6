package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/magicgame/topup-store/internal/app"
	"github.com/magicgame/topup-store/internal/app/handlers"
	"github.com/magicgame/topup-store/internal/config"
	"github.com/magicgame/topup-store/internal/lib/logger"
	"github.com/magicgame/topup-store/internal/lib/logger/handlers/urllog"
	ratelimit "github.com/magicgame/topup-store/internal/middleware"
	"github.com/magicgame/topup-store/internal/presence"
	"github.com/magicgame/topup-store/internal/security/jwtmiddleware"
	"github.com/magicgame/topup-store/internal/service"
	"github.com/magicgame/topup-store/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	auditRepo := storage.NewAuditRepository(application.DB)

	authService := service.NewAuthService(log, userRepo, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	orderService := service.NewOrderService(log, orderRepo, auditRepo)
	statsService := service.NewStatsService(log, orderRepo)
	backupService := service.NewBackupService(log, orderRepo, cfg.Backup.Dir)
	tracker := presence.NewTracker(cfg.Presence.Staleness)

	// единственный администратор создаётся идемпотентно при старте
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := authService.SeedAdmin(seedCtx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		seedCancel()
		log.Error("failed to seed admin", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to seed admin"))
	}
	seedCancel()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(chimiddleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.URLFormat)
	// квота запросов на клиента для всех /api маршрутов
	limiter := ratelimit.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	router.Use(limiter.Middleware)

	// публичные маршруты
	router.Post("/api/login", handlers.LoginHandler(log, authService))
	router.Post("/api/order", handlers.CreateOrderHandler(log, orderService))
	router.Get("/api/orders/user/{pubgId}", handlers.UserOrdersHandler(log, orderService))
	router.Get("/api/admin/status", handlers.GetPresenceHandler(tracker))
	router.Get("/api/health", handlers.HealthHandler(log, application.DB))

	// маршруты администратора
	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware())
		r.Use(jwtmiddleware.RequireAdmin())

		r.Get("/api/admin/orders", handlers.ListOrdersHandler(log, orderService))
		r.Put("/api/admin/orders/{id}", handlers.UpdateStatusHandler(log, orderService))
		r.Delete("/api/admin/orders/{id}", handlers.DeleteOrderHandler(log, orderService))
		r.Get("/api/admin/stats", handlers.StatsHandler(log, statsService))
		r.Post("/api/admin/status", handlers.SetPresenceHandler(log, tracker))
		r.Get("/api/admin/export", handlers.ExportHandler(log, backupService))
		r.Get("/api/admin/backup", handlers.BackupHandler(log, backupService))
		r.Post("/api/admin/restore", handlers.RestoreHandler(log, backupService))
		r.Get("/api/admin/debug/orders-log", handlers.AuditLogHandler(log, orderService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
