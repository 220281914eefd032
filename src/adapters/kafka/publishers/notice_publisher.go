package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"botstore/src/domain"
	"botstore/src/infra/kafka"
	"botstore/src/services/reminders"
)

const noticeEventType = "reminder.notice"

var errUnknownOwner = errors.New("owner has no destination")

type Publisher interface {
	Publish(msg kafka.Message, topic string) error
}

// NoticePublisher delivers reminder notices to the owner's partition of a
// Kafka topic, where the chat gateway picks them up and opens the private
// channel.
type NoticePublisher struct {
	logger    *slog.Logger
	publisher Publisher
	topic     string
}

var _ reminders.DestinationResolver = (*NoticePublisher)(nil)

func NewNoticePublisher(
	logger *slog.Logger,
	publisher Publisher,
	topic string,
) *NoticePublisher {
	return &NoticePublisher{
		logger:    logger,
		publisher: publisher,
		topic:     topic,
	}
}

func (p *NoticePublisher) Resolve(_ context.Context, ownerID string) (reminders.Destination, error) {
	if ownerID == "" {
		return nil, errUnknownOwner
	}
	return ownerChannel{publisher: p, ownerID: ownerID}, nil
}

type ownerChannel struct {
	publisher *NoticePublisher
	ownerID   string
}

// Send blocks until the brokers acknowledged the notice or ctx is done. The
// sync producer takes no context, so on timeout the publish keeps running in
// the background and the notice may still land; the caller treats it as failed.
func (c ownerChannel) Send(ctx context.Context, notice domain.Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := c.publisher

	value, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to encode notice %s: %w", notice.ReminderID, err)
	}

	msg := kafka.Message{
		Key:     c.ownerID, // uma partição por usuário mantém a ordem
		Value:   value,
		Headers: p.createNoticeHeaders(notice),
	}

	published := make(chan error, 1)
	go func() {
		published <- p.publisher.Publish(msg, p.topic)
	}()

	select {
	case err = <-published:
	case <-ctx.Done():
		err = fmt.Errorf("publish not acknowledged in time: %w", ctx.Err())
	}

	if err != nil {
		p.logger.Error("Failed to publish reminder notice",
			"error", err,
			"topic", p.topic,
			"reminder", notice.ReminderID,
			"user", c.ownerID)
		return err
	}

	p.logger.Debug("Published reminder notice", "topic", p.topic, "reminder", notice.ReminderID, "user", c.ownerID)
	return nil
}

func (p *NoticePublisher) createNoticeHeaders(notice domain.Notice) map[string]string {
	headers := map[string]string{
		"event_type":     noticeEventType,
		"source_service": "botstore-reminder-worker",
		"schema_version": "v1",
		"event_id":       notice.ReminderID + ":" + notice.OwnerID,
	}
	if notice.DestinationID != nil {
		headers["guild_id"] = *notice.DestinationID
	}
	return headers
}
