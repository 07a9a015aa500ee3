// Command usertool performs one-off user maintenance against the database.
//
//	usertool create-admin -email ops@example.com [-first Ada -last Lovelace]
//	usertool set-password -email ops@example.com
//	usertool delete-all-users -yes
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskaty/backend/internal/config"
	"taskaty/backend/internal/infrastructure/activity"
	"taskaty/backend/internal/infrastructure/password"
	"taskaty/backend/internal/infrastructure/postgres"
	"taskaty/backend/internal/logging"
	authusecase "taskaty/backend/internal/usecase/auth"
	userusecase "taskaty/backend/internal/usecase/user"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "usertool: %v\n", err)
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

	repo := postgres.NewUserRepository(db.Pool)
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	svc := services{
		users:     userusecase.NewService(repo, hasher),
		passwords: authusecase.NewService(authusecase.Dependencies{
			Users:  repo,
			Hasher: hasher,
			Events: activity.NewLogPublisher(logger.Named("activity")),
			Logger: logger.Named("auth"),
		}),
	}
	if err := execute(ctx, os.Args[1:], svc, os.Stdout); err != nil {
		return err
	}
	logger.Info("Maintenance command finished", zap.Strings("args", os.Args[1:]))
	return nil
}
