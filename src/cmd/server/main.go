package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	httpadapter "botstore/src/adapters/http"
	"botstore/src/domain/entities"
	"botstore/src/helper/env"
	"botstore/src/infra/postgres"
	"botstore/src/infra/redis"
	"botstore/src/repositories"
	"botstore/src/services/database"
	"botstore/src/services/reminders"

	"github.com/rcrowley/go-metrics"
	"go.uber.org/fx"
)

func main() {
	// Configurar logger
	log.SetOutput(os.Stdout)
	log.Println("Starting API server with Uber Fx...")

	env.Load()

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newMetricsRegistry,
			newReadWriteClient,
			newRedisClient,
			newManagedDatabase,
			newRemindersService,
			newServer,
		),

		// Invocations
		fx.Invoke(registerServerHooks),
	)

	// Start the application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for app to exit gracefully
	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}
}

func newLogger() *slog.Logger {
	logLevel := env.GetString("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func newMetricsRegistry() metrics.Registry {
	return metrics.NewRegistry()
}

func newReadWriteClient(lc fx.Lifecycle) (*postgres.ReadWriteClient, error) {
	dbWriteHost := env.MustGetString("DB_WRITE_HOST")
	dbReadHost := env.GetString("DB_READ_HOST", dbWriteHost)
	dbReadPort := env.GetString("DB_READ_PORT", "5432")
	dbWritePort := env.GetString("DB_WRITE_PORT", "5432")
	dbname := env.MustGetString("DB_NAME")
	dbUser := env.MustGetString("DB_USER")
	dbPassword := env.MustGetString("DB_PASSWORD")
	maxConnections := env.GetInt("DB_MAX_POOL_CONNECTIONS", 25)

	client, err := postgres.NewReadWriteClient(dbReadHost, dbWriteHost, dbReadPort, dbWritePort, dbname, dbUser, dbPassword, maxConnections)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.StopHook(client.Close))
	return client, nil
}

func newRedisClient(lc fx.Lifecycle) *redis.RedisClient {
	redisHosts := env.MustGetString("REDIS_HOSTS")
	redisPoolSize := env.GetInt("REDIS_POOL_SIZE", 50)

	client := redis.NewRedisClient(redisHosts, redisPoolSize)
	lc.Append(fx.StopHook(client.Close))
	return client
}

func newManagedDatabase(
	logger *slog.Logger,
	readWriteClient *postgres.ReadWriteClient,
	redisClient *redis.RedisClient,
) *database.ManagedDatabase {
	moneyVersion := entities.MoneyCurrent
	if env.GetBool("LEGACY_MONEY", false) {
		moneyVersion = entities.MoneyLegacy
	}

	writeTimeout := env.GetSeconds("KV_WRITE_TIMEOUT_SECONDS", 5)

	return database.NewManagedDatabase(
		logger,
		repositories.NewDocumentStore(logger, readWriteClient),
		repositories.NewKeyValueStore(logger, redisClient, writeTimeout),
		repositories.NewAccessLog(logger, env.GetBool("LOG_DB_ACCESS", false)),
		moneyVersion,
	)
}

func newRemindersService(
	logger *slog.Logger,
	registry metrics.Registry,
	redisClient *redis.RedisClient,
	db *database.ManagedDatabase,
) *reminders.Service {
	return reminders.NewService(logger, repositories.NewReminderQueue(redisClient), db, reminders.NewMetrics(registry))
}

func newServer(
	logger *slog.Logger,
	registry metrics.Registry,
	readWriteClient *postgres.ReadWriteClient,
	redisClient *redis.RedisClient,
	db *database.ManagedDatabase,
	service *reminders.Service,
) *httpadapter.Server {
	port := env.GetInt("SERVER_ADDR", 8888)

	return httpadapter.NewServer(logger, port, db, service, registry, map[string]httpadapter.HealthCheck{
		"postgres": readWriteClient.HealthCheck,
		"redis":    redisClient.HealthCheck,
	})
}

// registerServerHooks registers lifecycle hooks for the HTTP server
func registerServerHooks(lc fx.Lifecycle, srv *httpadapter.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Start server in a separate goroutine
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Create timeout context for graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Server forced to shutdown: %v", err)
				return err
			}
			log.Println("Server exited gracefully")
			return nil
		},
	})
}
