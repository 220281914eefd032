package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rcrowley/go-metrics"

	httpadapter "botstore/src/adapters/http"
	"botstore/src/domain"
	"botstore/src/domain/entities"
	"botstore/src/infra/redis"
	"botstore/src/repositories"
	"botstore/src/services/database"
	"botstore/src/services/reminders"
	"botstore/src/test_artefacts/comparer"
	"botstore/src/test_artefacts/fakes"
	"botstore/src/test_artefacts/stubs"
)

var _ = Describe("Server", func() {
	var (
		mr          *miniredis.Miniredis
		redisClient *redis.RedisClient
		documents   *fakes.DocumentBackend
		db          *database.ManagedDatabase
		service     *reminders.Service
		registry    metrics.Registry
		handler     http.Handler
		ctx         context.Context
	)

	do := func(method string, path string, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

		mr = miniredis.RunT(GinkgoT())
		redisClient = redis.NewRedisClient(mr.Addr(), 10)
		documents = fakes.NewDocumentBackend()
		db = database.NewManagedDatabase(logger, documents, fakes.NewKeyValueBackend(), nil, entities.MoneyCurrent)

		registry = metrics.NewRegistry()
		service = reminders.NewService(logger, repositories.NewReminderQueue(redisClient), db, reminders.NewMetrics(registry))

		server := httpadapter.NewServer(logger, 0, db, service, registry, map[string]httpadapter.HealthCheck{
			"redis": redisClient.HealthCheck,
		})
		handler = server.Handler()
	})

	AfterEach(func() {
		redisClient.Close()
	})

	Describe("GET /v1/players/{id}", func() {
		It("returns the stored player", func() {
			// ARRANGE
			player := stubs.NewPlayerStub().WithID("42").WithMoney(0, 1500).Get()
			Expect(db.SavePlayer(ctx, player)).To(Succeed())

			// ACT
			rec := do(http.MethodGet, "/v1/players/42", "")

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusOK))
			var body httpadapter.PlayerDTO
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.ID).To(Equal("42"))
			Expect(body.Money).To(Equal(int64(1500)))
		})

		It("returns a default player when none was saved", func() {
			// ACT
			rec := do(http.MethodGet, "/v1/players/unknown", "")

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusOK))
			var body httpadapter.PlayerDTO
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.ID).To(Equal("unknown"))
			Expect(body.Money).To(BeZero())
			Expect(body.Badges).To(BeEmpty())
		})

		It("maps backend failures to 500", func() {
			// ARRANGE
			documents.Err = domain.ErrBackendUnavailable

			// ACT
			rec := do(http.MethodGet, "/v1/players/42", "")

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).To(ContainSubstring(domain.ErrUnavailableServer.Error()))
		})
	})

	Describe("GET /v1/guilds/{id}", func() {
		It("returns the default guild configuration", func() {
			// ACT
			rec := do(http.MethodGet, "/v1/guilds/g-1", "")

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusOK))
			var body httpadapter.GuildDTO
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.ID).To(Equal("g-1"))
			Expect(body.Prefix).NotTo(BeEmpty())
		})
	})

	Describe("reminders", func() {
		It("schedules, lists and cancels a reminder", func() {
			// ACT
			created := do(http.MethodPost, "/v1/users/u-1/reminders", `{"guild":"g-1","reminder":"drink water","inSeconds":600}`)

			// ASSERT
			Expect(created.Code).To(Equal(http.StatusCreated))
			var reminder httpadapter.ReminderDTO
			Expect(json.Unmarshal(created.Body.Bytes(), &reminder)).To(Succeed())
			Expect(reminder.UserID).To(Equal("u-1"))
			guild := "g-1"
			expected := httpadapter.ReminderDTO{
				UserID:      "u-1",
				GuildID:     &guild,
				Reminder:    "drink water",
				At:          time.Now().Add(10 * time.Minute),
				ScheduledAt: time.Now(),
			}
			Expect(reminder).To(BeComparableTo(expected,
				comparer.IgnoreFieldsFor[httpadapter.ReminderDTO]("ID"),
				comparer.TimeWithinTolerance(5000),
			))

			listed := do(http.MethodGet, "/v1/users/u-1/reminders", "")
			Expect(listed.Code).To(Equal(http.StatusOK))
			var all []httpadapter.ReminderDTO
			Expect(json.Unmarshal(listed.Body.Bytes(), &all)).To(Succeed())
			Expect(all).To(HaveLen(1))
			Expect(all[0].ID).To(Equal(reminder.ID))

			cancelled := do(http.MethodDelete, "/v1/users/u-1/reminders/"+reminder.ID, "")
			Expect(cancelled.Code).To(Equal(http.StatusNoContent))

			again := do(http.MethodDelete, "/v1/users/u-1/reminders/"+reminder.ID, "")
			Expect(again.Code).To(Equal(http.StatusNotFound))
		})

		It("lists an empty array for users without reminders", func() {
			// ACT
			rec := do(http.MethodGet, "/v1/users/nobody/reminders", "")

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(strings.TrimSpace(rec.Body.String())).To(Equal("[]"))
		})

		It("rejects delays outside the allowed window", func() {
			// ACT
			rec := do(http.MethodPost, "/v1/users/u-1/reminders", `{"reminder":"too soon","inSeconds":5}`)

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects delays that would overflow", func() {
			// ACT
			rec := do(http.MethodPost, "/v1/users/u-1/reminders", `{"reminder":"overflow","inSeconds":18446747674}`)

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			listed := do(http.MethodGet, "/v1/users/u-1/reminders", "")
			Expect(strings.TrimSpace(listed.Body.String())).To(Equal("[]"))
		})

		It("rejects malformed bodies", func() {
			// ACT
			rec := do(http.MethodPost, "/v1/users/u-1/reminders", `{not json`)

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("ops", func() {
		It("exposes the metrics registry", func() {
			// ARRANGE
			do(http.MethodPost, "/v1/users/u-1/reminders", `{"reminder":"x","inSeconds":120}`)

			// ACT
			rec := do(http.MethodGet, "/debug/metrics", "")

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusOK))
			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).NotTo(BeEmpty())
		})

		It("reports healthy backends", func() {
			// ACT
			rec := do(http.MethodGet, "/healthz", "")

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"redis":"ok"`))
		})

		It("reports 503 when a backend is down", func() {
			// ARRANGE
			mr.SetError("ERR simulated outage")

			// ACT
			rec := do(http.MethodGet, "/healthz", "")

			// ASSERT
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(rec.Body.String()).To(ContainSubstring("simulated outage"))
		})
	})
})
