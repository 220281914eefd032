package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"botstore/src/domain"
	"botstore/src/domain/entities"

	"github.com/google/uuid"
)

const (
	MinDelay   = time.Minute
	MaxDelay   = 365 * 24 * time.Hour
	MaxPending = 25
)

// DelayFromSeconds converts a requested delay in seconds, refusing values
// outside [MinDelay, MaxDelay] before the conversion can overflow.
func DelayFromSeconds(seconds int64) (time.Duration, error) {
	if seconds < int64(MinDelay/time.Second) || seconds > int64(MaxDelay/time.Second) {
		return 0, fmt.Errorf("%w: delay of %ds must be between %s and %s", domain.ErrInvalidReminder, seconds, MinDelay, MaxDelay)
	}
	return time.Duration(seconds) * time.Second, nil
}

type Store interface {
	Add(ctx context.Context, r domain.Reminder) error
	Remove(ctx context.Context, ownerID string, fullID string) (bool, error)
	ListForOwner(ctx context.Context, ownerID string) ([]domain.Reminder, error)
}

// Users keeps the per-user reminder counter.
type Users interface {
	GetUserData(ctx context.Context, userID string) (*entities.UserData, error)
	UpdateAllChanged(ctx context.Context, e entities.Tracked) error
}

// Service schedules, lists and cancels reminders on behalf of their owners.
type Service struct {
	logger  *slog.Logger
	store   Store
	users   Users
	metrics *Metrics
	now     func() time.Time
}

func NewService(logger *slog.Logger, store Store, users Users, metrics *Metrics) *Service {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		logger:  logger,
		store:   store,
		users:   users,
		metrics: metrics,
		now:     time.Now,
	}
}

// Schedule queues payload for ownerID, due after in.
func (s *Service) Schedule(ctx context.Context, ownerID string, destinationID *string, payload string, in time.Duration) (domain.Reminder, error) {
	switch {
	case ownerID == "":
		return domain.Reminder{}, fmt.Errorf("%w: missing owner", domain.ErrInvalidReminder)
	case strings.TrimSpace(payload) == "":
		return domain.Reminder{}, fmt.Errorf("%w: empty reminder", domain.ErrInvalidReminder)
	case in < MinDelay:
		return domain.Reminder{}, fmt.Errorf("%w: must be at least %s away", domain.ErrInvalidReminder, MinDelay)
	case in > MaxDelay:
		return domain.Reminder{}, fmt.Errorf("%w: must be at most %s away", domain.ErrInvalidReminder, MaxDelay)
	}

	pending, err := s.store.ListForOwner(ctx, ownerID)
	if err != nil {
		return domain.Reminder{}, err
	}
	if len(pending) >= MaxPending {
		return domain.Reminder{}, fmt.Errorf("%w: %d pending", domain.ErrReminderLimit, len(pending))
	}

	now := s.now()
	reminder := domain.Reminder{
		ItemID:        uuid.NewString(),
		OwnerID:       ownerID,
		DestinationID: destinationID,
		Payload:       payload,
		FiredAt:       now.Add(in).UnixMilli(),
		ScheduledAt:   now.UnixMilli(),
	}

	if err := s.store.Add(ctx, reminder); err != nil {
		return domain.Reminder{}, err
	}

	s.countScheduled(ctx, ownerID)
	return reminder, nil
}

// countScheduled is best effort: the reminder is already queued.
func (s *Service) countScheduled(ctx context.Context, ownerID string) {
	if s.users == nil {
		return
	}
	user, err := s.users.GetUserData(ctx, ownerID)
	if err == nil {
		user.IncrementReminders(1)
		err = s.users.UpdateAllChanged(ctx, user)
	}
	if err != nil {
		s.logger.Warn("Failed to update reminder count", "user", ownerID, "error", err)
	}
}

// Cancel removes one of the owner's reminders. It fails with domain.ErrNotFound
// when the owner has no such reminder.
func (s *Service) Cancel(ctx context.Context, ownerID string, itemID string) error {
	fullID := domain.Reminder{ItemID: itemID, OwnerID: ownerID}.FullID()

	removed, err := s.store.Remove(ctx, ownerID, fullID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("reminder %s: %w", fullID, domain.ErrNotFound)
	}

	s.metrics.Cancelled.Inc(1)
	s.logger.Info("Reminder cancelled", "reminder", fullID, "reason", ReasonCancelled)
	return nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Reminder, error) {
	return s.store.ListForOwner(ctx, ownerID)
}
