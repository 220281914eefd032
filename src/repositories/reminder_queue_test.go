package repositories_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"botstore/src/domain"
	"botstore/src/infra/redis"
	"botstore/src/repositories"
	"botstore/src/test_artefacts/stubs"
)

var _ = Describe("ReminderQueue", func() {
	var (
		mr          *miniredis.Miniredis
		redisClient *redis.RedisClient
		queue       *repositories.ReminderQueue
		ctx         context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mr = miniredis.RunT(GinkgoT())
		redisClient = redis.NewRedisClient(mr.Addr(), 10)
		queue = repositories.NewReminderQueue(redisClient)
	})

	AfterEach(func() {
		redisClient.Close()
	})

	It("returns members in trigger-time order", func() {
		// ARRANGE
		now := time.Now()
		late := stubs.NewReminderStub().FiringAt(now.Add(2 * time.Hour)).Get()
		early := stubs.NewReminderStub().FiringAt(now.Add(time.Minute)).Get()
		middle := stubs.NewReminderStub().FiringAt(now.Add(time.Hour)).Get()

		for _, r := range []domain.Reminder{late, early, middle} {
			Expect(queue.Add(ctx, r)).To(Succeed())
		}

		// ACT
		members, err := queue.Earliest(ctx, 2)

		// ASSERT
		Expect(err).NotTo(HaveOccurred())
		Expect(members).To(HaveLen(2))

		first, err := domain.ParseReminder(members[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(Equal(early))

		second, err := domain.ParseReminder(members[1])
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(middle))
	})

	It("keeps every index under one hash slot", func() {
		r := stubs.NewReminderStub().Get()
		Expect(queue.Add(ctx, r)).To(Succeed())

		Expect(mr.Keys()).To(ConsistOf(
			"{reminders}:queue",
			"{reminders}:items",
			"{reminders}:owner:"+r.OwnerID,
		))
	})

	It("rejects invalid reminders", func() {
		r := stubs.NewReminderStub().Get()
		r.OwnerID = ""

		Expect(queue.Add(ctx, r)).To(MatchError(domain.ErrInvalidReminder))
	})

	Context("when removing by id", func() {
		It("drops the reminder from every index", func() {
			r := stubs.NewReminderStub().Get()
			Expect(queue.Add(ctx, r)).To(Succeed())

			removed, err := queue.Remove(ctx, r.OwnerID, r.FullID())

			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeTrue())

			members, err := queue.Earliest(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(members).To(BeEmpty())

			listed, err := queue.ListForOwner(ctx, r.OwnerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(BeEmpty())
		})

		It("reports false for a reminder that is not queued", func() {
			removed, err := queue.Remove(ctx, "owner", "missing:owner")

			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeFalse())
		})
	})

	It("removes a raw member by value", func() {
		mr.ZAdd("{reminders}:queue", 1, "not json")

		removed, err := queue.RemoveRaw(ctx, "not json")

		Expect(err).NotTo(HaveOccurred())
		Expect(removed).To(BeTrue())
		Expect(mr.Exists("{reminders}:queue")).To(BeFalse())
	})

	It("lists the pending reminders of one owner", func() {
		now := time.Now()
		second := stubs.NewReminderStub().WithOwner("42").FiringAt(now.Add(time.Hour)).Get()
		first := stubs.NewReminderStub().WithOwner("42").FiringAt(now.Add(time.Minute)).Get()
		other := stubs.NewReminderStub().WithOwner("7").Get()

		for _, r := range []domain.Reminder{second, first, other} {
			Expect(queue.Add(ctx, r)).To(Succeed())
		}

		listed, err := queue.ListForOwner(ctx, "42")

		Expect(err).NotTo(HaveOccurred())
		Expect(listed).To(Equal([]domain.Reminder{first, second}))
	})

	When("redis fails", func() {
		It("reports the backend as unavailable", func() {
			mr.SetError("ERR simulated outage")

			_, err := queue.Earliest(ctx, 15)
			Expect(err).To(MatchError(domain.ErrBackendUnavailable))
		})
	})
})
