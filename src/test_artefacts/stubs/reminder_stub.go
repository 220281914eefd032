package stubs

import (
	"time"

	"botstore/src/domain"

	"github.com/brianvoe/gofakeit/v6"
)

type ReminderStub struct {
	reminder domain.Reminder
}

// NewReminderStub builds a reminder scheduled now and due one hour from now.
func NewReminderStub() ReminderStub {
	now := time.Now()
	guild := gofakeit.Numerify("##################")

	return ReminderStub{reminder: domain.Reminder{
		ItemID:        gofakeit.UUID(),
		OwnerID:       gofakeit.Numerify("##################"),
		DestinationID: &guild,
		Payload:       gofakeit.Sentence(5),
		FiredAt:       now.Add(time.Hour).UnixMilli(),
		ScheduledAt:   now.UnixMilli(),
	}}
}

func (rs ReminderStub) WithOwner(ownerID string) ReminderStub {
	rs.reminder.OwnerID = ownerID
	return rs
}

func (rs ReminderStub) WithoutDestination() ReminderStub {
	rs.reminder.DestinationID = nil
	return rs
}

// FiringAt moves the trigger time; the scheduled time stays before it.
func (rs ReminderStub) FiringAt(at time.Time) ReminderStub {
	rs.reminder.FiredAt = at.UnixMilli()
	if rs.reminder.ScheduledAt > rs.reminder.FiredAt {
		rs.reminder.ScheduledAt = rs.reminder.FiredAt
	}
	return rs
}

func (rs ReminderStub) Get() domain.Reminder {
	return rs.reminder
}
