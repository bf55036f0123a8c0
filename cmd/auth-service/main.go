package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/config"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/events/kafka"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/infrastructure/database"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/infrastructure/database/postgres"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/infrastructure/email"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/infrastructure/ratelimit"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/infrastructure/security"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/service"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/utils/logger"

	httphandler "github.com/AhmetDemiroglu/GGHub-sub001/internal/handler/http"
)

const defaultMigrationsPath = "migrations"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("service terminated", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		migrationsPath := os.Getenv("MIGRATIONS_PATH")
		if migrationsPath == "" {
			migrationsPath = defaultMigrationsPath
		}
		if err := postgres.RunMigrations(cfg.Database, migrationsPath, log); err != nil {
			return err
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to postgres",
		zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	userRepo := database.NewUserPostgresRepository(pool)
	refreshRepo := database.NewRefreshTokenPostgresRepository(pool)
	codeRepo := database.NewVerificationCodePostgresRepository(pool)

	var limiter interfaces.RateLimiter
	if cfg.Security.RateLimiting.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedisLimiter(redisClient, log)
		log.Info("connected to redis", zap.String("host", cfg.Redis.Host))
	}

	var publisher interfaces.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			return err
		}
		publisher = producer
		log.Info("connected to kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		publisher = kafka.NewNoopPublisher(log)
	}
	defer publisher.Close() //nolint:errcheck

	var mailer interfaces.Mailer
	if cfg.Mail.Enabled {
		mailer = email.NewSMTPMailer(cfg.Mail, log)
	} else {
		mailer = email.NewNoopMailer(log)
	}

	hasher := security.NewHMACPasswordHasher(cfg.Security.PasswordSaltLength)
	tokenManager := security.NewJWTService(
		cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTokenTTL)

	tokenService := service.NewTokenService(refreshRepo, userRepo, tokenManager, cfg.JWT.RefreshTokenTTL, log)
	authService := service.NewAuthService(userRepo, codeRepo, tokenService, hasher, mailer, publisher, limiter, cfg, log)
	adminService := service.NewAdminService(userRepo, tokenService, publisher, log)

	cleanupService := service.NewCleanupService(refreshRepo, codeRepo,
		cfg.Maintenance.SweepInterval, cfg.Maintenance.TokenRetention, log)
	go cleanupService.Run(ctx)

	authHandler := httphandler.NewAuthHandler(authService, log)
	adminHandler := httphandler.NewAdminHandler(adminService, log)
	router := httphandler.NewRouter(cfg, authHandler, adminHandler, tokenManager, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down gracefully: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
