package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskaty/backend/internal/config"
	"taskaty/backend/internal/httpserver"
	"taskaty/backend/internal/infrastructure/activity"
	"taskaty/backend/internal/infrastructure/mailer"
	"taskaty/backend/internal/infrastructure/password"
	"taskaty/backend/internal/infrastructure/postgres"
	"taskaty/backend/internal/infrastructure/token"
	"taskaty/backend/internal/jobs"
	"taskaty/backend/internal/logging"
	authusecase "taskaty/backend/internal/usecase/auth"
	projectusecase "taskaty/backend/internal/usecase/project"
	userusecase "taskaty/backend/internal/usecase/user"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	limiterIdleTTL  = time.Hour
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	events, closeEvents, err := newEventPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	users := postgres.NewUserRepository(db.Pool)
	hasher := password.NewBcryptHasher(cfg.BcryptCost)

	authService := authusecase.NewService(authusecase.Dependencies{
		Users:         users,
		Hasher:        hasher,
		Tokens:        token.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer),
		ResetTokens:   token.ResetTokens{},
		Mailer:        newMailer(cfg, logger),
		Events:        events,
		Logger:        logger.Named("auth"),
		ResetTokenTTL: cfg.ResetTokenTTL,
	})

	server := httpserver.NewServer(cfg, httpserver.Services{
		Auth:     authService,
		Users:    userusecase.NewService(users, hasher),
		Projects: projectusecase.NewService(postgres.NewProjectRepository(db.Pool)),
	}, logger.Named("http"))

	scheduler := jobs.NewScheduler(logger.Named("jobs"))
	if err := scheduler.Add(cfg.ResetSweepSchedule, "purge-reset-tokens",
		jobs.PurgeResetTokens(users, time.Now, logger)); err != nil {
		return fmt.Errorf("RESET_SWEEP_SCHEDULE: %w", err)
	}
	if err := scheduler.Add("@every 10m", "sweep-rate-limits",
		jobs.SweepIdle(jobs.SweepFunc(server.SweepRateLimits), limiterIdleTTL, time.Now, logger)); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr()), zap.String("env", cfg.Env))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
			return err
		}
		logger.Info("Graceful shutdown completed")
		return nil
	})

	return g.Wait()
}

func newMailer(cfg *config.Config, logger *zap.Logger) authusecase.Mailer {
	if cfg.SMTP.Host == "" {
		logger.Warn("SMTP_HOST not set, emails will only be logged")
		return mailer.NewLogMailer(logger.Named("mail"))
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
		Timeout:  cfg.SMTP.Timeout,
	})
}

func newEventPublisher(cfg *config.Config, logger *zap.Logger) (authusecase.EventPublisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return activity.NewLogPublisher(logger.Named("activity")), func() {}, nil
	}

	publisher, err := activity.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaActivityTopic, logger.Named("activity"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create activity publisher: %w", err)
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := publisher.Close(ctx); err != nil {
			logger.Warn("Failed to flush activity events", zap.Error(err))
		}
	}
	return publisher, closeFn, nil
}
