package repositories_test

import (
	"context"
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"botstore/src/domain"
	"botstore/src/domain/entities"
	"botstore/src/repositories"
	"botstore/src/test_artefacts/fakes"
	"botstore/src/test_artefacts/stubs"
)

var _ = Describe("DocumentCollection", func() {
	var (
		backend *fakes.DocumentBackend
		players *repositories.DocumentCollection[*entities.Player]
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = fakes.NewDocumentBackend()
		players = repositories.NewDocumentCollection(backend, entities.PlayerKind)
	})

	When("the player was never saved", func() {
		It("returns the default without writing it", func() {
			player, err := players.GetOrDefault(ctx, "123")

			Expect(err).NotTo(HaveOccurred())
			Expect(player).To(Equal(entities.NewPlayer("123")))

			_, found, err := players.Find(ctx, "123")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	It("reads back what was saved", func() {
		player := stubs.NewPlayerStub().Get()

		Expect(players.ReplaceWhole(ctx, player)).To(Succeed())

		stored, err := players.GetOrDefault(ctx, player.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Level).To(Equal(player.Level))
		Expect(stored.NewMoney).To(Equal(player.NewMoney))
		Expect(stored.Badges).To(Equal(player.Badges))
		Expect(stored.Inventory).To(Equal(player.Inventory))
	})

	It("updates only the listed fields", func() {
		player := stubs.NewPlayerStub().WithMoney(10, 20).Get()
		Expect(players.ReplaceWhole(ctx, player)).To(Succeed())

		Expect(players.UpdateFields(ctx, player, map[string]interface{}{"newMoney": 99})).To(Succeed())

		stored, err := players.GetOrDefault(ctx, player.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.NewMoney).To(Equal(int64(99)))
		Expect(stored.OldMoney).To(Equal(int64(10)))
		Expect(stored.Level).To(Equal(player.Level))
	})

	It("refuses to persist an entity without an id", func() {
		err := players.ReplaceWhole(ctx, entities.NewPlayer(""))

		Expect(err).To(MatchError(domain.ErrInvariantViolation))
		Expect(backend.Calls.Load()).To(BeZero())
	})

	It("finds documents by a nested value", func() {
		commands := repositories.NewDocumentCollection(backend, entities.CustomCommandKind)
		Expect(commands.ReplaceWhole(ctx, entities.NewCustomCommand("1", "hi", []string{"hello"}))).To(Succeed())
		Expect(commands.ReplaceWhole(ctx, entities.NewCustomCommand("2", "hi", []string{"hey"}))).To(Succeed())

		found, err := commands.FindWhere(ctx, "guildId", "2")

		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(HaveLen(1))
		Expect(found[0].ID()).To(Equal("2:hi"))
	})

	It("has no default for nullable kinds", func() {
		marriages := repositories.NewDocumentCollection(backend, entities.MarriageKind)

		_, err := marriages.GetOrDefault(ctx, "m1")

		Expect(err).To(MatchError(domain.ErrInvariantViolation))
	})
})

var _ = Describe("KeyValueCollection", func() {
	var (
		backend *fakes.KeyValueBackend
		legacy  *repositories.KeyValueCollection[*entities.LegacyPlayer]
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = fakes.NewKeyValueBackend()
		legacy = repositories.NewKeyValueCollection(backend, entities.LegacyPlayerKind)
	})

	It("reports a missing record instead of defaulting", func() {
		player, found, err := legacy.Get(ctx, "1:g")

		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
		Expect(player).To(BeNil())
	})

	It("scans typed records once", func() {
		Expect(legacy.UpsertReplace(ctx, entities.NewLegacyPlayer("1")).Wait(ctx)).To(Succeed())
		Expect(legacy.UpsertReplace(ctx, entities.NewLegacyPlayer("2")).Wait(ctx)).To(Succeed())
		other := entities.NewLegacyPlayer("3")
		other.Key = "3:local"
		Expect(legacy.UpsertReplace(ctx, other).Wait(ctx)).To(Succeed())

		seq := legacy.Scan(ctx, regexp.MustCompile(`:g$`))

		var users []string
		for player, err := range seq {
			Expect(err).NotTo(HaveOccurred())
			users = append(users, player.UserID())
		}
		Expect(users).To(ConsistOf("1", "2"))

		for _, err := range seq {
			Expect(err).To(MatchError(domain.ErrScanConsumed))
		}
	})

	It("merges without dropping stored fields", func() {
		player := entities.NewLegacyPlayer("1")
		player.Level = 5
		Expect(legacy.UpsertReplace(ctx, player).Wait(ctx)).To(Succeed())

		player.Money = 300
		Expect(legacy.UpsertMerge(ctx, player).Wait(ctx)).To(Succeed())

		stored, found, err := legacy.Get(ctx, player.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(stored.Level).To(Equal(int64(5)))
		Expect(stored.Money).To(Equal(int64(300)))
	})
})
