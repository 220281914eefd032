package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botstore/src/adapters/kafka/consumers"
	"botstore/src/adapters/kafka/publishers"
	"botstore/src/domain/entities"
	"botstore/src/helper/env"
	"botstore/src/infra/kafka"
	"botstore/src/infra/postgres"
	"botstore/src/infra/redis"
	"botstore/src/repositories"
	"botstore/src/services/database"
	"botstore/src/services/reminders"

	"github.com/rcrowley/go-metrics"
	"go.uber.org/fx"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting Reminder Worker with Uber Fx...")

	env.Load()

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newMetricsRegistry,
			newReadWriteClient,
			newRedisClient,
			newKafkaClient,
			newManagedDatabase,
			newReminderQueue,
			newRemindersMetrics,
			newRemindersService,
			newNoticePublisher,
			newScheduler,
			newReminderRequestsConsumer,
		),

		// Invocations
		fx.Invoke(startWorker),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start reminder worker: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down reminder worker...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}

	log.Println("Reminder worker shutdown complete")
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
	maxConnections := env.GetInt("DB_MAX_POOL_CONNECTIONS", 10)

	client, err := postgres.NewReadWriteClient(dbReadHost, dbWriteHost, dbReadPort, dbWritePort, dbname, dbUser, dbPassword, maxConnections)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.StopHook(client.Close))
	return client, nil
}

func newRedisClient(lc fx.Lifecycle) *redis.RedisClient {
	redisHosts := env.MustGetString("REDIS_HOSTS")
	redisPoolSize := env.GetInt("REDIS_POOL_SIZE", 20)

	client := redis.NewRedisClient(redisHosts, redisPoolSize)
	lc.Append(fx.StopHook(client.Close))
	return client
}

func newKafkaClient(registry metrics.Registry) (*kafka.KafkaClient, error) {
	brokers := env.MustGetString("KAFKA_BROKERS")
	groupID := env.GetString("KAFKA_GROUP_ID", "reminder-worker")
	batchSize := env.GetInt("KAFKA_BATCH_SIZE", 100)

	return kafka.NewKafkaClient(brokers, groupID, batchSize, registry)
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

	return database.NewManagedDatabase(
		logger,
		repositories.NewDocumentStore(logger, readWriteClient),
		repositories.NewKeyValueStore(logger, redisClient, env.GetSeconds("KV_WRITE_TIMEOUT_SECONDS", 5)),
		repositories.NewAccessLog(logger, env.GetBool("LOG_DB_ACCESS", false)),
		moneyVersion,
	)
}

func newReminderQueue(redisClient *redis.RedisClient) *repositories.ReminderQueue {
	return repositories.NewReminderQueue(redisClient)
}

func newRemindersMetrics(registry metrics.Registry) *reminders.Metrics {
	return reminders.NewMetrics(registry)
}

func newRemindersService(
	logger *slog.Logger,
	queue *repositories.ReminderQueue,
	db *database.ManagedDatabase,
	m *reminders.Metrics,
) *reminders.Service {
	return reminders.NewService(logger, queue, db, m)
}

func newNoticePublisher(logger *slog.Logger, kafkaClient *kafka.KafkaClient) *publishers.NoticePublisher {
	topic := env.GetString("KAFKA_REMINDER_TOPIC", "reminder-notices")
	return publishers.NewNoticePublisher(logger, kafkaClient, topic)
}

func newScheduler(
	logger *slog.Logger,
	queue *repositories.ReminderQueue,
	publisher *publishers.NoticePublisher,
	m *reminders.Metrics,
) (*reminders.Scheduler, error) {
	policy, err := reminders.ParseStalePolicy(env.GetString("REMINDER_STALE_POLICY", ""))
	if err != nil {
		return nil, err
	}

	return reminders.NewScheduler(logger, queue, publisher, m, reminders.Config{
		Interval:        env.GetSeconds("REMINDER_POLL_INTERVAL_SECONDS", 30),
		StaleAfter:      env.GetSeconds("REMINDER_STALE_AFTER_SECONDS", 24*60*60),
		DeliveryTimeout: env.GetSeconds("REMINDER_DELIVERY_TIMEOUT_SECONDS", 10),
		BatchSize:       env.GetInt("REMINDER_BATCH_SIZE", 15),
		StalePolicy:     policy,
	}), nil
}

func newReminderRequestsConsumer(
	logger *slog.Logger,
	service *reminders.Service,
) *consumers.ReminderRequestsConsumer {
	return consumers.NewReminderRequestsConsumer(logger, service)
}

func startWorker(
	lc fx.Lifecycle,
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
	scheduler *reminders.Scheduler,
	requestsConsumer *consumers.ReminderRequestsConsumer,
) {
	// OnStart's ctx ends with startup, so the loops get their own.
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{}, 2)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			topic := env.GetString("KAFKA_REMINDER_REQUESTS_TOPIC", "reminder-requests")
			logger.Info("Starting reminder worker", "requestsTopic", topic)

			go func() {
				defer func() { done <- struct{}{} }()
				if err := scheduler.Run(runCtx); err != nil {
					logger.Error("Scheduler failed", "error", err)
				}
			}()

			go func() {
				defer func() { done <- struct{}{} }()
				if err := requestsConsumer.Start(runCtx, kafkaClient, topic); err != nil {
					logger.Error("Consumer failed", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			for range 2 {
				select {
				case <-done:
				case <-ctx.Done():
					logger.Warn("Reminder worker loops did not stop in time")
				}
			}

			logger.Info("Shutting down Kafka client...")
			if err := kafkaClient.Close(); err != nil {
				logger.Error("Failed to close Kafka client", "error", err)
				return err
			}
			logger.Info("Kafka client shut down gracefully")
			return nil
		},
	})
}
