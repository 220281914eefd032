//go:build datagen_players
// +build datagen_players

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"botstore/src/domain/entities"
	"botstore/src/helper/env"
	"botstore/src/infra/postgres"
	"botstore/src/infra/redis"
	"botstore/src/repositories"
	"botstore/src/services/database"
	"botstore/src/services/reminders"

	"github.com/go-faker/faker/v4"
)

type seedBundle struct {
	Player    *entities.Player
	User      *entities.UserData
	Legacy    *entities.LegacyPlayer
	Reminders []string
}

var badges = []string{"early_supporter", "bug_hunter", "married", "rich", "gamer"}
var items = []string{"fish", "wood", "diamond", "potion", "pickaxe"}

func main() {
	numPlayers := flag.Int("players", 1000, "Número de players a serem criados. Use -1 para infinito.")
	numWorkers := flag.Int("workers", 8, "Workers gravando em paralelo")
	maxReminders := flag.Int("reminders", 3, "Máximo de reminders por player")
	flag.Parse()

	env.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dbHost := env.MustGetString("DB_WRITE_HOST")
	dbPort := env.GetString("DB_WRITE_PORT", "5432")
	pool, err := postgres.NewPostgresClient(dbHost, dbPort, env.MustGetString("DB_NAME"), env.MustGetString("DB_USER"), env.MustGetString("DB_PASSWORD"), *numWorkers*2)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	redisClient := redis.NewRedisClient(env.MustGetString("REDIS_HOSTS"), *numWorkers*2)
	defer redisClient.Close()

	db := database.NewManagedDatabase(
		logger,
		repositories.NewDocumentStore(logger, postgres.NewSinglePoolClient(pool)),
		repositories.NewKeyValueStore(logger, redisClient, 0),
		nil,
		entities.MoneyCurrent,
	)
	service := reminders.NewService(logger, repositories.NewReminderQueue(redisClient), db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var totalProcessed, totalErrors int64
	bundles := make(chan seedBundle, *numWorkers*4)

	var wg sync.WaitGroup
	wg.Add(1)
	go producer(ctx, &wg, bundles, *numPlayers, *maxReminders)

	var workers sync.WaitGroup
	for i := 0; i < *numWorkers; i++ {
		workers.Add(1)
		go worker(ctx, &workers, db, service, bundles, i, &totalProcessed, &totalErrors)
	}

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Printf("📊 processed=%d errors=%d", atomic.LoadInt64(&totalProcessed), atomic.LoadInt64(&totalErrors))
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		workers.Wait()
		close(done)
	}()

	select {
	case <-sigChan:
		fmt.Println("\n🛑 Shutdown signal received, stopping...")
		cancel()
		<-done
	case <-done:
	}

	log.Printf("🏁 Done. processed=%d errors=%d", atomic.LoadInt64(&totalProcessed), atomic.LoadInt64(&totalErrors))
}

func producer(ctx context.Context, wg *sync.WaitGroup, out chan<- seedBundle, numPlayers int, maxReminders int) {
	defer wg.Done()
	defer close(out)

	for i := 0; numPlayers < 0 || i < numPlayers; i++ {
		select {
		case <-ctx.Done():
			return
		case out <- newBundle(maxReminders):
		}
	}
}

func newBundle(maxReminders int) seedBundle {
	userID := fmt.Sprintf("%d", 100000000000000000+rand.Int63n(900000000000000000))

	player := entities.NewPlayer(userID)
	player.Level = rand.Int63n(100)
	player.Experience = rand.Int63n(1_000_000)
	player.Reputation = rand.Int63n(500)
	player.Description = faker.Sentence()
	player.SetCurrentMoney(rand.Int63n(10_000_000))
	player.AddBadgeIfAbsent(badges[rand.Intn(len(badges))])
	player.AddItem(items[rand.Intn(len(items))], 1+rand.Intn(20))

	user := entities.NewUserData(userID)

	legacy := entities.NewLegacyPlayer(userID)
	legacy.Level = player.Level
	legacy.Money = player.CurrentMoney()
	legacy.Reputation = player.Reputation

	var texts []string
	for i := rand.Intn(maxReminders + 1); i > 0; i-- {
		texts = append(texts, faker.Sentence())
	}

	return seedBundle{Player: player, User: user, Legacy: legacy, Reminders: texts}
}

func worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	db *database.ManagedDatabase,
	service *reminders.Service,
	in <-chan seedBundle,
	workerID int,
	totalProcessed *int64,
	totalErrors *int64,
) {
	defer wg.Done()
	log.Printf("🚀 Worker %d started", workerID)

	for bundle := range in {
		if err := seed(ctx, db, service, bundle); err != nil {
			log.Printf("❌ Worker %d: %v", workerID, err)
			atomic.AddInt64(totalErrors, 1)
			continue
		}
		atomic.AddInt64(totalProcessed, 1)
	}

	log.Printf("✅ Worker %d stopping.", workerID)
}

func seed(ctx context.Context, db *database.ManagedDatabase, service *reminders.Service, bundle seedBundle) error {
	if err := db.SavePlayer(ctx, bundle.Player); err != nil {
		return fmt.Errorf("player %s: %w", bundle.Player.ID(), err)
	}
	if err := db.SaveUserData(ctx, bundle.User); err != nil {
		return fmt.Errorf("user %s: %w", bundle.User.ID(), err)
	}
	if err := db.SaveLegacyPlayer(ctx, bundle.Legacy).Wait(ctx); err != nil {
		return fmt.Errorf("legacy player %s: %w", bundle.Legacy.ID(), err)
	}

	for _, text := range bundle.Reminders {
		in := time.Duration(1+rand.Intn(7*24*60)) * time.Minute
		if _, err := service.Schedule(ctx, bundle.Player.ID(), nil, text, in); err != nil {
			return fmt.Errorf("reminder for %s: %w", bundle.Player.ID(), err)
		}
	}

	return nil
}
