package reminders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"botstore/src/domain"
)

const (
	DefaultBatchSize       = 15
	DefaultStaleAfter      = 24 * time.Hour
	DefaultInterval        = 30 * time.Second
	DefaultDeliveryTimeout = 10 * time.Second
)

// State of a reminder after a cycle looked at it. Everything but Scheduled is terminal.
type State int

const (
	Scheduled State = iota
	Delivered
	Cancelled
	Stale
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Delivered:
		return "delivered"
	case Cancelled:
		return "cancelled"
	case Stale:
		return "stale"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Reason string

const (
	ReasonDelivered     Reason = "delivered"
	ReasonDeliveryError Reason = "delivery-error"
	ReasonCancelled     Reason = "cancel"
	ReasonStale         Reason = "stale"
	ReasonMalformed     Reason = "malformed"
)

// StalePolicy decides what a cycle does after removing a stale reminder.
type StalePolicy int

const (
	// StaleSkipItem removes the stale reminder and goes on with the batch.
	StaleSkipItem StalePolicy = iota
	// StaleAbortBatch removes the stale reminder and ends the cycle.
	StaleAbortBatch
)

func ParseStalePolicy(s string) (StalePolicy, error) {
	switch strings.ToLower(s) {
	case "", "skip", "skip-item":
		return StaleSkipItem, nil
	case "abort", "abort-batch":
		return StaleAbortBatch, nil
	}
	return StaleSkipItem, fmt.Errorf("unknown stale policy %q", s)
}

// ErrCycleRunning is returned by RunCycle while another cycle is in progress.
var ErrCycleRunning = errors.New("reminder cycle already running")

type Queue interface {
	Earliest(ctx context.Context, n int) ([]string, error)
	Remove(ctx context.Context, ownerID string, fullID string) (bool, error)
	RemoveRaw(ctx context.Context, member string) (bool, error)
}

// Destination is a private channel to one owner.
type Destination interface {
	Send(ctx context.Context, notice domain.Notice) error
}

// DestinationResolver finds the private channel of an owner. It fails when the
// owner is unknown or cannot be reached.
type DestinationResolver interface {
	Resolve(ctx context.Context, ownerID string) (Destination, error)
}

// Outcome is what one cycle did with one queue member.
type Outcome struct {
	FullID string
	State  State
	Reason Reason
	Err    error
}

type Config struct {
	BatchSize       int
	StaleAfter      time.Duration
	Interval        time.Duration
	DeliveryTimeout time.Duration
	StalePolicy     StalePolicy
	Now             func() time.Time
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = DefaultDeliveryTimeout
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Scheduler delivers due reminders. Each cycle reads the earliest batch of the
// queue; a reminder leaves the queue only after its delivery definitively
// succeeded or failed, or when it is too late to deliver.
type Scheduler struct {
	logger   *slog.Logger
	queue    Queue
	resolver DestinationResolver
	metrics  *Metrics
	cfg      Config
	running  atomic.Bool
}

func NewScheduler(logger *slog.Logger, queue Queue, resolver DestinationResolver, metrics *Metrics, cfg Config) *Scheduler {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Scheduler{
		logger:   logger,
		queue:    queue,
		resolver: resolver,
		metrics:  metrics,
		cfg:      cfg.withDefaults(),
	}
}

// Run starts a cycle right away and then once per interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("Reminder scheduler started", "interval", s.cfg.Interval, "batch", s.cfg.BatchSize)

	for {
		if _, err := s.RunCycle(ctx); err != nil && !errors.Is(err, ErrCycleRunning) {
			s.logger.Error("Reminder cycle aborted", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunCycle processes one batch. Failures of one reminder never stop the others;
// only a queue read failure aborts the cycle, and then nothing was removed.
func (s *Scheduler) RunCycle(ctx context.Context) ([]Outcome, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCycleRunning
	}
	defer s.running.Store(false)
	defer s.metrics.Cycle.UpdateSince(time.Now())

	members, err := s.queue.Earliest(ctx, s.cfg.BatchSize)
	if err != nil {
		s.metrics.CycleErrors.Inc(1)
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(members))
	for _, member := range members {
		if ctx.Err() != nil {
			break
		}

		out := s.process(ctx, member)
		if out.Err != nil {
			s.metrics.CycleErrors.Inc(1)
		}
		outcomes = append(outcomes, out)

		if out.State == Stale && s.cfg.StalePolicy == StaleAbortBatch {
			s.logger.Warn("Stale reminder ended the cycle", "reminder", out.FullID)
			break
		}
	}

	return outcomes, nil
}

func (s *Scheduler) process(ctx context.Context, member string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("reminder %s panicked: %v", out.FullID, r)
			s.logger.Error("Reminder processing panicked", "reminder", out.FullID, "panic", r)
		}
	}()

	reminder, err := domain.ParseReminder(member)
	if err != nil {
		out = Outcome{State: Cancelled, Reason: ReasonMalformed, Err: err}
		s.logger.Warn("Dropping malformed reminder", "member", member, "error", err)
		removeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DeliveryTimeout)
		defer cancel()
		if _, err := s.queue.RemoveRaw(removeCtx, member); err != nil {
			out.Err = errors.Join(out.Err, err)
		}
		return out
	}

	out.FullID = reminder.FullID()
	now := s.cfg.Now()
	fireTime := reminder.FireTime()

	if now.Before(fireTime) {
		out.State = Scheduled
		return out
	}

	if now.Sub(fireTime) > s.cfg.StaleAfter {
		out.State, out.Reason = Stale, ReasonStale
		s.metrics.Stale.Inc(1)
		s.logger.Warn("Dropping stale reminder", "reminder", out.FullID, "late", now.Sub(fireTime))
		out.Err = s.remove(ctx, reminder)
		return out
	}

	if err := s.deliver(ctx, reminder, now); err != nil {
		out.State, out.Reason = Cancelled, ReasonDeliveryError
		s.metrics.Cancelled.Inc(1)
		s.logger.Warn("Reminder delivery failed", "reminder", out.FullID, "error", err)
	} else {
		out.State, out.Reason = Delivered, ReasonDelivered
		s.metrics.Delivered.Inc(1)
	}

	// If this fails the reminder stays queued and the next cycle delivers it again.
	out.Err = s.remove(ctx, reminder)
	return out
}

// deliver resolves the owner's destination and waits for the send to finish.
func (s *Scheduler) deliver(ctx context.Context, reminder domain.Reminder, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrDeliveryFailure, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
	defer cancel()

	destination, err := s.resolver.Resolve(ctx, reminder.OwnerID)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %w", domain.ErrDeliveryFailure, reminder.OwnerID, err)
	}

	if err := destination.Send(ctx, domain.NewNotice(reminder, now.UnixMilli())); err != nil {
		return fmt.Errorf("%w: send %s: %w", domain.ErrDeliveryFailure, reminder.FullID(), err)
	}
	return nil
}

// remove runs detached from ctx: once delivery settled, shutting down must not
// leave the reminder queued for a second delivery.
func (s *Scheduler) remove(ctx context.Context, reminder domain.Reminder) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DeliveryTimeout)
	defer cancel()

	if _, err := s.queue.Remove(ctx, reminder.OwnerID, reminder.FullID()); err != nil {
		s.logger.Error("Failed to remove reminder", "reminder", reminder.FullID(), "error", err)
		return err
	}
	return nil
}
