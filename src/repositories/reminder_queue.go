package repositories

import (
	"context"
	"fmt"
	"sort"

	"botstore/src/domain"
	"botstore/src/infra/redis"

	goredis "github.com/redis/go-redis/v9"
)

// All queue keys share the {reminders} hash tag so MULTI works on a cluster.
const (
	reminderQueueKey  = "{reminders}:queue"
	reminderItemsKey  = "{reminders}:items"
	reminderOwnerBase = "{reminders}:owner:"
)

// ReminderQueue is a time-ordered queue of reminders. The sorted set holds the
// encoded reminder scored by trigger time; a hash maps "<itemId>:<ownerId>" to
// that member and a per-owner set lists the owner's pending ids.
type ReminderQueue struct {
	redis *redis.RedisClient
}

func NewReminderQueue(client *redis.RedisClient) *ReminderQueue {
	return &ReminderQueue{redis: client}
}

func reminderOwnerKey(ownerID string) string {
	return reminderOwnerBase + ownerID
}

func (q *ReminderQueue) Add(ctx context.Context, r domain.Reminder) error {
	if err := r.Validate(); err != nil {
		return err
	}

	member, err := r.Encode()
	if err != nil {
		return err
	}

	err = q.redis.TxPipelined(ctx, func(pipe goredis.Pipeliner, key func(string) string) error {
		pipe.ZAdd(ctx, key(reminderQueueKey), goredis.Z{Score: float64(r.FiredAt), Member: member})
		pipe.HSet(ctx, key(reminderItemsKey), r.FullID(), member)
		pipe.SAdd(ctx, key(reminderOwnerKey(r.OwnerID)), r.FullID())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to queue reminder %s: %w: %w", r.FullID(), domain.ErrBackendUnavailable, err)
	}
	return nil
}

// Earliest returns up to n raw members in trigger-time order.
func (q *ReminderQueue) Earliest(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	members, err := q.redis.EarliestMembers(ctx, reminderQueueKey, int64(n))
	if err != nil {
		return nil, fmt.Errorf("failed to read reminder queue: %w: %w", domain.ErrBackendUnavailable, err)
	}
	return members, nil
}

// Remove drops the reminder identified by fullID from every index. It reports
// false when the reminder was not queued.
func (q *ReminderQueue) Remove(ctx context.Context, ownerID string, fullID string) (bool, error) {
	member, found, err := q.redis.HashField(ctx, reminderItemsKey, fullID)
	if err != nil {
		return false, fmt.Errorf("failed to look up reminder %s: %w: %w", fullID, domain.ErrBackendUnavailable, err)
	}

	var removed *goredis.IntCmd
	err = q.redis.TxPipelined(ctx, func(pipe goredis.Pipeliner, key func(string) string) error {
		if found {
			removed = pipe.ZRem(ctx, key(reminderQueueKey), member)
		}
		pipe.HDel(ctx, key(reminderItemsKey), fullID)
		pipe.SRem(ctx, key(reminderOwnerKey(ownerID)), fullID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove reminder %s: %w: %w", fullID, domain.ErrBackendUnavailable, err)
	}

	return removed != nil && removed.Val() > 0, nil
}

// RemoveRaw drops a queue member by value, for members that cannot be parsed
// back into a reminder.
func (q *ReminderQueue) RemoveRaw(ctx context.Context, member string) (bool, error) {
	removed, err := q.redis.RemoveMember(ctx, reminderQueueKey, member)
	if err != nil {
		return false, fmt.Errorf("failed to remove queue member: %w: %w", domain.ErrBackendUnavailable, err)
	}
	return removed, nil
}

// ListForOwner returns the owner's pending reminders ordered by trigger time.
func (q *ReminderQueue) ListForOwner(ctx context.Context, ownerID string) ([]domain.Reminder, error) {
	ids, err := q.redis.SetMembers(ctx, reminderOwnerKey(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders of %s: %w: %w", ownerID, domain.ErrBackendUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	members, err := q.redis.HashFields(ctx, reminderItemsKey, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders of %s: %w: %w", ownerID, domain.ErrBackendUnavailable, err)
	}

	reminders := make([]domain.Reminder, 0, len(members))
	for _, member := range members {
		r, err := domain.ParseReminder(member)
		if err != nil {
			continue
		}
		reminders = append(reminders, r)
	}

	sort.Slice(reminders, func(i, j int) bool {
		return reminders[i].FiredAt < reminders[j].FiredAt
	})
	return reminders, nil
}
