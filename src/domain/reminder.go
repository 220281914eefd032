package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ############################################################
// ################# ENTREGA AGENDADA (REMINDERS) #############
// ############################################################

// Reminder is a payload scheduled for exactly one delivery. It is immutable
// once queued; rescheduling creates a new Reminder.
type Reminder struct {
	ItemID        string  `json:"id"`
	OwnerID       string  `json:"user"`
	DestinationID *string `json:"guild"`
	Payload       string  `json:"reminder"`
	FiredAt       int64   `json:"at"`
	ScheduledAt   int64   `json:"scheduledAt"`
}

// FullID is the queue identity of the reminder, "<itemId>:<ownerId>".
func (r Reminder) FullID() string {
	return r.ItemID + ":" + r.OwnerID
}

func (r Reminder) FireTime() time.Time {
	return time.UnixMilli(r.FiredAt)
}

func (r Reminder) ScheduleTime() time.Time {
	return time.UnixMilli(r.ScheduledAt)
}

func (r Reminder) Validate() error {
	switch {
	case r.ItemID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidReminder)
	case r.OwnerID == "":
		return fmt.Errorf("%w: missing owner", ErrInvalidReminder)
	case r.FiredAt <= 0:
		return fmt.Errorf("%w: missing trigger time", ErrInvalidReminder)
	}
	return nil
}

// Encode renders the flat JSON member stored in the queue.
func (r Reminder) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode reminder %s: %w", r.FullID(), err)
	}
	return string(b), nil
}

func ParseReminder(member string) (Reminder, error) {
	var r Reminder
	if err := json.Unmarshal([]byte(member), &r); err != nil {
		return Reminder{}, fmt.Errorf("%w: %v", ErrInvalidReminder, err)
	}
	if err := r.Validate(); err != nil {
		return Reminder{}, err
	}
	return r, nil
}
