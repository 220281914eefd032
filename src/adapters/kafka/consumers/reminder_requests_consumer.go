package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"botstore/src/domain"
	"botstore/src/infra/kafka"
	"botstore/src/services/reminders"
)

// ReminderRequest is the message the chat gateway publishes when a user asks
// for a reminder.
type ReminderRequest struct {
	UserID    string  `json:"user"`
	GuildID   *string `json:"guild"`
	Reminder  string  `json:"reminder"`
	InSeconds int64   `json:"inSeconds"`
}

type ReminderScheduler interface {
	Schedule(ctx context.Context, ownerID string, destinationID *string, payload string, in time.Duration) (domain.Reminder, error)
}

type ReminderRequestsConsumer struct {
	logger    *slog.Logger
	scheduler ReminderScheduler
}

func NewReminderRequestsConsumer(
	logger *slog.Logger,
	scheduler ReminderScheduler,
) *ReminderRequestsConsumer {
	return &ReminderRequestsConsumer{
		logger:    logger,
		scheduler: scheduler,
	}
}

func (c *ReminderRequestsConsumer) Start(ctx context.Context, kafkaClient *kafka.KafkaClient, topic string) error {
	c.logger.Info("Starting reminder requests consumer", "topic", topic)

	handler := func(messages []kafka.Message) error {
		return c.HandleMessages(ctx, messages)
	}

	return kafkaClient.Consumer(ctx, handler, topic)
}

// HandleMessages schedules every request of the batch. Requests that can never
// succeed are logged and skipped; a backend failure fails the batch so it is
// consumed again, which may schedule the earlier requests of the batch twice.
func (c *ReminderRequestsConsumer) HandleMessages(ctx context.Context, messages []kafka.Message) error {
	if len(messages) == 0 {
		return nil
	}

	c.logger.Info("Processing reminder requests batch", "count", len(messages))

	scheduled := 0
	for _, msg := range messages {
		var request ReminderRequest
		if err := json.Unmarshal(msg.Value, &request); err != nil {
			c.logger.Error("Skipping undecodable reminder request",
				"error", err,
				"key", msg.Key,
				"value", string(msg.Value))
			continue
		}

		in, err := reminders.DelayFromSeconds(request.InSeconds)
		if err != nil {
			c.logger.Warn("Rejected reminder request",
				"error", err,
				"key", msg.Key,
				"user", request.UserID)
			continue
		}

		reminder, err := c.scheduler.Schedule(ctx, request.UserID, request.GuildID, request.Reminder, in)
		switch {
		case errors.Is(err, domain.ErrInvalidReminder), errors.Is(err, domain.ErrReminderLimit):
			c.logger.Warn("Rejected reminder request",
				"error", err,
				"key", msg.Key,
				"user", request.UserID)
		case err != nil:
			c.logger.Error("Failed to schedule reminder request",
				"error", err,
				"key", msg.Key,
				"user", request.UserID)
			return fmt.Errorf("failed to schedule reminder for %s: %w", request.UserID, err)
		default:
			scheduled++
			c.logger.Debug("Scheduled reminder", "reminder", reminder.FullID(), "at", reminder.FireTime())
		}
	}

	c.logger.Info("Successfully processed reminder requests batch",
		"count", len(messages),
		"scheduled", scheduled)

	return nil
}
