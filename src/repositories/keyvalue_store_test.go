package repositories_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"botstore/src/domain"
	"botstore/src/domain/entities"
	"botstore/src/infra/redis"
	"botstore/src/repositories"
	"botstore/src/test_artefacts/comparer"
)

var _ = Describe("KeyValueStore", func() {
	var (
		mr          *miniredis.Miniredis
		redisClient *redis.RedisClient
		store       *repositories.KeyValueStore
		ctx         context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mr = miniredis.RunT(GinkgoT())
		redisClient = redis.NewRedisClient(mr.Addr(), 10)
		store = repositories.NewKeyValueStore(slog.New(slog.NewJSONHandler(io.Discard, nil)), redisClient, 0)
	})

	AfterEach(func() {
		redisClient.Close()
	})

	When("the record was never written", func() {
		It("reports it as not found", func() {
			doc, found, err := store.Get(ctx, entities.PlayerStatsTable, "1")

			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
			Expect(doc).To(BeNil())
		})
	})

	Context("when replacing a record", func() {
		It("stores one hash field per top-level field", func() {
			// ARRANGE
			doc := json.RawMessage(`{"id":"1","gambleWins":3,"looted":7}`)

			// ACT
			err := store.UpsertReplace(ctx, entities.PlayerStatsTable, "1", doc).Wait(ctx)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(mr.HGet("kv:playerstats:1", "gambleWins")).To(Equal("3"))
			Expect(mr.HGet("kv:playerstats:1", "id")).To(Equal(`"1"`))

			stored, found, err := store.Get(ctx, entities.PlayerStatsTable, "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(stored).To(BeComparableTo(doc, comparer.JSONRawMessage()))
		})

		It("drops fields missing from the new document", func() {
			Expect(store.UpsertReplace(ctx, entities.PlayerStatsTable, "1", json.RawMessage(`{"id":"1","gambleWins":3,"looted":7}`)).Wait(ctx)).To(Succeed())

			Expect(store.UpsertReplace(ctx, entities.PlayerStatsTable, "1", json.RawMessage(`{"id":"1","slotsWins":2}`)).Wait(ctx)).To(Succeed())

			stored, _, err := store.Get(ctx, entities.PlayerStatsTable, "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(BeComparableTo(json.RawMessage(`{"id":"1","slotsWins":2}`), comparer.JSONRawMessage()))
		})
	})

	Context("when merging a record", func() {
		It("keeps the fields it does not carry", func() {
			Expect(store.UpsertReplace(ctx, entities.PlayerStatsTable, "1", json.RawMessage(`{"id":"1","gambleWins":3,"looted":7}`)).Wait(ctx)).To(Succeed())

			Expect(store.UpsertMerge(ctx, entities.PlayerStatsTable, "1", json.RawMessage(`{"looted":9,"craftedItems":1}`)).Wait(ctx)).To(Succeed())

			stored, _, err := store.Get(ctx, entities.PlayerStatsTable, "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(BeComparableTo(json.RawMessage(`{"id":"1","gambleWins":3,"looted":9,"craftedItems":1}`), comparer.JSONRawMessage()))
		})
	})

	It("deletes a record", func() {
		Expect(store.UpsertReplace(ctx, entities.PlayerStatsTable, "1", json.RawMessage(`{"id":"1"}`)).Wait(ctx)).To(Succeed())

		Expect(store.Delete(ctx, entities.PlayerStatsTable, "1").Wait(ctx)).To(Succeed())

		_, found, err := store.Get(ctx, entities.PlayerStatsTable, "1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("rejects tables that are not registered for the key-value store", func() {
		_, _, err := store.Get(ctx, "nope", "1")
		Expect(err).To(MatchError(domain.ErrUnknownTable))

		err = store.UpsertReplace(ctx, "nope", "1", json.RawMessage(`{}`)).Wait(ctx)
		Expect(err).To(MatchError(domain.ErrUnknownTable))
	})

	Context("when scanning by pattern", func() {
		BeforeEach(func() {
			for _, id := range []string{"10:g", "11:g", "10:123", "12"} {
				doc := json.RawMessage(`{"id":"` + id + `","money":1}`)
				Expect(store.UpsertReplace(ctx, entities.PlayersTable, id, doc).Wait(ctx)).To(Succeed())
			}
		})

		It("yields only records whose id matches", func() {
			var ids []string
			for rec, err := range store.ScanByPattern(ctx, entities.PlayersTable, regexp.MustCompile(`:g$`)).All() {
				Expect(err).NotTo(HaveOccurred())
				ids = append(ids, rec.ID)
			}

			Expect(ids).To(ConsistOf("10:g", "11:g"))
		})

		It("cannot be ranged over twice", func() {
			scan := store.ScanByPattern(ctx, entities.PlayersTable, regexp.MustCompile(`.*`))
			count := 0
			for _, err := range scan.All() {
				Expect(err).NotTo(HaveOccurred())
				count++
			}
			Expect(count).To(Equal(4))

			var second []error
			for _, err := range scan.All() {
				second = append(second, err)
			}
			Expect(second).To(HaveLen(1))
			Expect(second[0]).To(MatchError(domain.ErrScanConsumed))
		})

		It("yields each record once even when SCAN returns it again", func() {
			// ARRANGE
			for i := 0; i < 150; i++ {
				id := fmt.Sprintf("u%03d:g", i)
				Expect(store.UpsertReplace(ctx, entities.PlayersTable, id, json.RawMessage(`{"id":"`+id+`"}`)).Wait(ctx)).To(Succeed())
			}

			// ACT
			seen := map[string]int{}
			inserted := false
			for rec, err := range store.ScanByPattern(ctx, entities.PlayersTable, regexp.MustCompile(`^u\d+:g$`)).All() {
				Expect(err).NotTo(HaveOccurred())
				seen[rec.ID]++
				if !inserted {
					// keys sorting ahead of the cursor make the next page repeat earlier keys
					for i := 0; i < 20; i++ {
						id := fmt.Sprintf("a%02d", i)
						Expect(store.UpsertReplace(ctx, entities.PlayersTable, id, json.RawMessage(`{"id":"`+id+`"}`)).Wait(ctx)).To(Succeed())
					}
					inserted = true
				}
			}

			// ASSERT
			Expect(seen).To(HaveLen(150))
			for id, count := range seen {
				Expect(count).To(Equal(1), id)
			}
		})

		It("stops early when the consumer stops", func() {
			count := 0
			for range store.ScanByPattern(ctx, entities.PlayersTable, regexp.MustCompile(`.*`)).All() {
				count++
				break
			}
			Expect(count).To(Equal(1))
		})
	})

	When("redis fails", func() {
		BeforeEach(func() {
			mr.SetError("ERR simulated outage")
		})

		It("reports the backend as unavailable", func() {
			_, _, err := store.Get(ctx, entities.PlayerStatsTable, "1")
			Expect(err).To(MatchError(domain.ErrBackendUnavailable))

			err = store.UpsertMerge(ctx, entities.PlayerStatsTable, "1", json.RawMessage(`{"looted":1}`)).Wait(ctx)
			Expect(err).To(MatchError(domain.ErrBackendUnavailable))
		})
	})
})
