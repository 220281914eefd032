package reminders_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"botstore/src/domain"
	"botstore/src/domain/entities"
	"botstore/src/infra/redis"
	"botstore/src/repositories"
	"botstore/src/services/database"
	"botstore/src/services/reminders"
	"botstore/src/test_artefacts/fakes"
)

var _ = Describe("Service", func() {
	var (
		mr          *miniredis.Miniredis
		redisClient *redis.RedisClient
		queue       *repositories.ReminderQueue
		db          *database.ManagedDatabase
		service     *reminders.Service
		ctx         context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mr = miniredis.RunT(GinkgoT())
		redisClient = redis.NewRedisClient(mr.Addr(), 10)
		queue = repositories.NewReminderQueue(redisClient)

		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		db = database.NewManagedDatabase(logger, fakes.NewDocumentBackend(), fakes.NewKeyValueBackend(), nil, entities.MoneyCurrent)
		service = reminders.NewService(logger, queue, db, nil)
	})

	AfterEach(func() {
		redisClient.Close()
	})

	Context("when scheduling", func() {
		It("queues the reminder and counts it for the user", func() {
			// ARRANGE
			guild := "g1"
			before := time.Now()

			// ACT
			reminder, err := service.Schedule(ctx, "42", &guild, "drink water", time.Hour)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(reminder.ItemID).NotTo(BeEmpty())
			Expect(reminder.FireTime()).To(BeTemporally("~", before.Add(time.Hour), time.Second))

			listed, err := service.List(ctx, "42")
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(Equal([]domain.Reminder{reminder}))

			user, err := db.GetUserData(ctx, "42")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ReminderCount).To(Equal(1))
		})

		DescribeTable("rejects invalid requests",
			func(owner string, payload string, in time.Duration) {
				_, err := service.Schedule(ctx, owner, nil, payload, in)

				Expect(err).To(MatchError(domain.ErrInvalidReminder))
			},
			Entry("without an owner", "", "hi", time.Hour),
			Entry("without a payload", "42", "  ", time.Hour),
			Entry("too soon", "42", "hi", 30*time.Second),
			Entry("too far away", "42", "hi", 400*24*time.Hour),
		)

		It("limits pending reminders per owner", func() {
			for i := range reminders.MaxPending {
				_, err := service.Schedule(ctx, "42", nil, fmt.Sprintf("reminder %d", i), time.Hour)
				Expect(err).NotTo(HaveOccurred())
			}

			_, err := service.Schedule(ctx, "42", nil, "one too many", time.Hour)

			Expect(err).To(MatchError(domain.ErrReminderLimit))
		})
	})

	Context("when cancelling", func() {
		It("removes the owner's reminder", func() {
			reminder, err := service.Schedule(ctx, "42", nil, "hi", time.Hour)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Cancel(ctx, "42", reminder.ItemID)).To(Succeed())

			listed, err := service.List(ctx, "42")
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(BeEmpty())
		})

		It("does not touch reminders of another owner", func() {
			reminder, err := service.Schedule(ctx, "42", nil, "hi", time.Hour)
			Expect(err).NotTo(HaveOccurred())

			err = service.Cancel(ctx, "7", reminder.ItemID)

			Expect(err).To(MatchError(domain.ErrNotFound))
			Expect(service.List(ctx, "42")).To(HaveLen(1))
		})
	})
})

var _ = Describe("DelayFromSeconds", func() {
	DescribeTable("converts delays inside the allowed window",
		func(seconds int64, expected time.Duration) {
			Expect(reminders.DelayFromSeconds(seconds)).To(Equal(expected))
		},
		Entry("minimum", int64(60), time.Minute),
		Entry("one hour", int64(3600), time.Hour),
		Entry("maximum", int64(365*24*60*60), reminders.MaxDelay),
	)

	DescribeTable("rejects delays outside it",
		func(seconds int64) {
			_, err := reminders.DelayFromSeconds(seconds)
			Expect(err).To(MatchError(domain.ErrInvalidReminder))
		},
		Entry("negative", int64(-1)),
		Entry("too soon", int64(59)),
		Entry("past a year", int64(365*24*60*60+1)),
		Entry("would overflow a duration", int64(18446747674)),
	)
})
