package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"botstore/src/adapters/cli"
	"botstore/src/domain/entities"
	"botstore/src/helper/env"
	"botstore/src/infra/postgres"
	"botstore/src/infra/redis"
	"botstore/src/repositories"
	"botstore/src/services/database"
	"botstore/src/services/reminders"
)

func main() {
	env.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, connect, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*cli.Backends, func(), error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dbWriteHost := env.MustGetString("DB_WRITE_HOST")
	dbReadHost := env.GetString("DB_READ_HOST", dbWriteHost)
	dbReadPort := env.GetString("DB_READ_PORT", "5432")
	dbWritePort := env.GetString("DB_WRITE_PORT", "5432")
	dbname := env.MustGetString("DB_NAME")
	dbUser := env.MustGetString("DB_USER")
	dbPassword := env.MustGetString("DB_PASSWORD")

	readWriteClient, err := postgres.NewReadWriteClient(dbReadHost, dbWriteHost, dbReadPort, dbWritePort, dbname, dbUser, dbPassword, 4)
	if err != nil {
		return nil, nil, err
	}

	redisClient := redis.NewRedisClient(env.MustGetString("REDIS_HOSTS"), 4)

	moneyVersion := entities.MoneyCurrent
	if env.GetBool("LEGACY_MONEY", false) {
		moneyVersion = entities.MoneyLegacy
	}

	db := database.NewManagedDatabase(
		logger,
		repositories.NewDocumentStore(logger, readWriteClient),
		repositories.NewKeyValueStore(logger, redisClient, env.GetSeconds("KV_WRITE_TIMEOUT_SECONDS", 5)),
		repositories.NewAccessLog(logger, env.GetBool("LOG_DB_ACCESS", false)),
		moneyVersion,
	)

	backends := &cli.Backends{
		Database:  db,
		Reminders: reminders.NewService(logger, repositories.NewReminderQueue(redisClient), db, nil),
		Migrate: func(direction string) error {
			return postgres.Migrate(postgres.DSN(dbWriteHost, dbWritePort, dbname, dbUser, dbPassword), direction)
		},
		FlushLegacy: redisClient.WithPrefix(repositories.KeyValuePrefix).FlushByPrefix,
	}

	release := func() {
		readWriteClient.Close()
		_ = redisClient.Close()
	}

	return backends, release, nil
}
