package database_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"botstore/src/domain"
	"botstore/src/domain/entities"
	"botstore/src/repositories"
	"botstore/src/services/database"
	"botstore/src/test_artefacts/fakes"
	"botstore/src/test_artefacts/stubs"
)

var _ = Describe("ManagedDatabase", func() {
	var (
		documents *fakes.DocumentBackend
		legacy    *fakes.KeyValueBackend
		logOutput *bytes.Buffer
		logger    *slog.Logger
		db        *database.ManagedDatabase
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		documents = fakes.NewDocumentBackend()
		legacy = fakes.NewKeyValueBackend()
		logOutput = &bytes.Buffer{}
		logger = slog.New(slog.NewJSONHandler(logOutput, nil))
		db = database.NewManagedDatabase(logger, documents, legacy, repositories.NewAccessLog(logger, false), entities.MoneyCurrent)
	})

	Context("when reading a player that was never saved", func() {
		It("returns the default player for that id", func() {
			player, err := db.GetPlayer(ctx, "123")

			Expect(err).NotTo(HaveOccurred())
			Expect(player).NotTo(BeNil())
			Expect(player.ID()).To(Equal("123"))
			Expect(player.CurrentMoney()).To(BeZero())
			Expect(player.Level).To(BeZero())
			Expect(player.Badges).To(BeEmpty())
		})

		It("does not persist the default", func() {
			_, err := db.GetPlayer(ctx, "123")
			Expect(err).NotTo(HaveOccurred())

			Expect(documents.FindAll(ctx, entities.PlayersTable)).To(BeEmpty())
		})
	})

	It("round-trips a saved player", func() {
		// ARRANGE
		player := stubs.NewPlayerStub().Get()

		// ACT
		Expect(db.SavePlayer(ctx, player)).To(Succeed())
		stored, err := db.GetPlayer(ctx, player.ID())

		// ASSERT
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(Equal(player))
	})

	It("stamps the configured money version on players", func() {
		db = database.NewManagedDatabase(logger, documents, legacy, nil, entities.MoneyLegacy)
		player := stubs.NewPlayerStub().WithMoney(100, 5).Get()
		Expect(db.SavePlayer(ctx, player)).To(Succeed())

		stored, err := db.GetPlayer(ctx, player.ID())

		Expect(err).NotTo(HaveOccurred())
		Expect(stored.MoneyVersion()).To(Equal(entities.MoneyLegacy))
		Expect(stored.CurrentMoney()).To(Equal(int64(100)))
	})

	It("keeps tracked changes pending after a full save", func() {
		player := stubs.NewPlayerStub().Get()
		player.AddReputation(1)

		Expect(db.SavePlayer(ctx, player)).To(Succeed())

		Expect(player.Tracker().Len()).To(Equal(1))
	})

	Context("when flushing tracked changes", func() {
		var player *entities.Player

		BeforeEach(func() {
			player = stubs.NewPlayerStub().WithMoney(0, 10).Get()
			Expect(db.SavePlayer(ctx, player)).To(Succeed())
		})

		It("writes only the changed fields and clears the tracker", func() {
			// ARRANGE
			stale, err := db.GetPlayer(ctx, player.ID())
			Expect(err).NotTo(HaveOccurred())
			stale.SetDescription("changed elsewhere")
			Expect(db.UpdateAllChanged(ctx, stale)).To(Succeed())

			// ACT
			Expect(player.AddMoney(5)).To(BeTrue())
			err = db.UpdateAllChanged(ctx, player)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(player.Tracker().Len()).To(BeZero())

			stored, err := db.GetPlayer(ctx, player.ID())
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.CurrentMoney()).To(Equal(int64(15)))
			Expect(stored.Description).To(Equal("changed elsewhere"))
			Expect(stored.Level).To(Equal(player.Level))
		})

		It("keeps the tracker when the write fails", func() {
			player.AddExperience(10)
			documents.Err = errors.New("connection refused")

			err := db.UpdateAllChanged(ctx, player)

			Expect(err).To(MatchError(domain.ErrBackendUnavailable))
			Expect(player.Tracker().Dirty()).To(HaveKeyWithValue("experience", player.Experience))
		})

		It("does not touch the backend when nothing changed", func() {
			calls := documents.Calls.Load()

			Expect(db.UpdateAllChanged(ctx, player)).To(Succeed())

			Expect(documents.Calls.Load()).To(Equal(calls))
			Expect(logOutput.String()).To(ContainSubstring("Empty tracked set"))
		})
	})

	It("writes the whole document when flushing a player that was never saved", func() {
		player, err := db.GetPlayer(ctx, "new")
		Expect(err).NotTo(HaveOccurred())
		player.AddBadgeIfAbsent("founder")

		Expect(db.UpdateAllChanged(ctx, player)).To(Succeed())

		stored, err := db.GetPlayer(ctx, "new")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Badges).To(Equal([]string{"founder"}))
		Expect(stored.Inventory).To(Equal(map[string]int{}))
	})

	Context("when updating a single field", func() {
		It("writes the value without touching the tracker", func() {
			guild := entities.NewGuildData("g1")
			Expect(db.SaveGuildData(ctx, guild)).To(Succeed())
			guild.SetPrefix("!")

			Expect(db.UpdateFieldValue(ctx, guild, "language", "pt_BR")).To(Succeed())

			stored, err := db.GetGuildData(ctx, "g1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Language).To(Equal("pt_BR"))
			Expect(stored.Prefix).To(Equal(entities.DefaultPrefix))
			Expect(guild.Tracker().Dirty()).To(HaveKey("prefix"))
		})

		It("rejects fields the entity does not have", func() {
			err := db.UpdateFieldValue(ctx, entities.NewUserData("1"), "nope", 1)

			Expect(err).To(MatchError(domain.ErrInvariantViolation))
		})
	})

	Context("nullable kinds", func() {
		It("return nil for an empty id without asking the store", func() {
			marriage, err := db.GetMarriage(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(marriage).To(BeNil())

			key, err := db.GetPremiumKey(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeNil())

			command, err := db.GetCustomCommand(ctx, "", "hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(command).To(BeNil())

			Expect(documents.Calls.Load()).To(BeZero())
		})

		It("return nil for a missing record", func() {
			marriage, err := db.GetMarriage(ctx, "m1")

			Expect(err).NotTo(HaveOccurred())
			Expect(marriage).To(BeNil())
		})

		It("return a saved record", func() {
			marriage := entities.NewMarriage("m1", "a", "b", time.UnixMilli(1700000000000))
			Expect(db.SaveMarriage(ctx, marriage)).To(Succeed())

			stored, err := db.GetMarriage(ctx, "m1")

			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(Equal(marriage))
			Expect(stored.Partner("b")).To(Equal("a"))
		})
	})

	It("lists custom commands of one guild", func() {
		Expect(db.SaveCustomCommand(ctx, entities.NewCustomCommand("g1", "hi", []string{"hello"}))).To(Succeed())
		Expect(db.SaveCustomCommand(ctx, entities.NewCustomCommand("g1", "bye", []string{"bye"}))).To(Succeed())
		Expect(db.SaveCustomCommand(ctx, entities.NewCustomCommand("g2", "hi", []string{"hey"}))).To(Succeed())

		commands, err := db.GetCustomCommandsByGuild(ctx, "g1")

		Expect(err).NotTo(HaveOccurred())
		Expect(commands).To(HaveLen(2))

		all, err := db.GetCustomCommands(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(3))
	})

	It("creates bot data on first read", func() {
		data, err := db.GetBotData(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(data.ID()).To(Equal(entities.BotDataID))

		_, found, err := documents.Find(ctx, entities.BotDataTable, entities.BotDataID)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
	})

	Context("legacy kinds", func() {
		It("default player stats on a missing record", func() {
			stats, err := db.GetPlayerStats(ctx, "1")

			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(Equal(entities.NewPlayerStats("1")))
		})

		It("merge player stats field by field", func() {
			stats := entities.NewPlayerStats("1")
			stats.GambleWins = 4
			Expect(db.SavePlayerStats(ctx, stats).Wait(ctx)).To(Succeed())

			update := entities.NewPlayerStats("1")
			update.GambleWins = 4
			update.LootedItems = 2
			Expect(db.SaveUpdatingPlayerStats(ctx, update).Wait(ctx)).To(Succeed())

			stored, err := db.GetPlayerStats(ctx, "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.GambleWins).To(Equal(int64(4)))
			Expect(stored.LootedItems).To(Equal(int64(2)))
		})

		It("return nil for a user with no global legacy player", func() {
			player, err := db.GetLegacyPlayer(ctx, "1")

			Expect(err).NotTo(HaveOccurred())
			Expect(player).To(BeNil())
		})

		It("scan only global legacy players", func() {
			Expect(db.SaveLegacyPlayer(ctx, entities.NewLegacyPlayer("1")).Wait(ctx)).To(Succeed())
			Expect(db.SaveLegacyPlayer(ctx, entities.NewLegacyPlayer("2")).Wait(ctx)).To(Succeed())
			local := entities.NewLegacyPlayer("3")
			local.Key = "3:guild"
			Expect(db.SaveLegacyPlayer(ctx, local).Wait(ctx)).To(Succeed())

			var users []string
			for player, err := range db.GetLegacyPlayers(ctx) {
				Expect(err).NotTo(HaveOccurred())
				users = append(users, player.UserID())
			}

			Expect(users).To(ConsistOf("1", "2"))
		})

		It("scan legacy commands by name across guilds", func() {
			Expect(db.SaveLegacyCustomCommand(ctx, entities.NewLegacyCustomCommand("g1", "hi", []string{"a"})).Wait(ctx)).To(Succeed())
			Expect(db.SaveLegacyCustomCommand(ctx, entities.NewLegacyCustomCommand("g2", "hi", []string{"b"})).Wait(ctx)).To(Succeed())
			Expect(db.SaveLegacyCustomCommand(ctx, entities.NewLegacyCustomCommand("g1", "ohi", []string{"c"})).Wait(ctx)).To(Succeed())

			var guilds []string
			for command, err := range db.GetCustomCommandsByName(ctx, "hi") {
				Expect(err).NotTo(HaveOccurred())
				guilds = append(guilds, command.GuildID())
			}

			Expect(guilds).To(ConsistOf("g1", "g2"))
		})
	})

	It("propagates backend failures", func() {
		documents.Err = errors.New("connection refused")

		_, err := db.GetGuildData(ctx, "g1")

		Expect(err).To(MatchError(domain.ErrBackendUnavailable))
	})

	Context("access logging", func() {
		It("logs nothing when disabled", func() {
			_, err := db.GetUserData(ctx, "1")
			Expect(err).NotTo(HaveOccurred())

			Expect(logOutput.String()).To(BeEmpty())
		})

		It("logs every store call when enabled", func() {
			db = database.NewManagedDatabase(slog.New(slog.NewJSONHandler(io.Discard, nil)), documents, legacy, repositories.NewAccessLog(logger, true), entities.MoneyCurrent)

			_, err := db.GetUserData(ctx, "1")
			Expect(err).NotTo(HaveOccurred())

			Expect(logOutput.String()).To(ContainSubstring(`"msg":"Database access"`))
			Expect(logOutput.String()).To(ContainSubstring(`"table":"users"`))
		})
	})
})
