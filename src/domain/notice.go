package domain

// Notice is what a destination receives when a reminder fires.
type Notice struct {
	ReminderID    string  `json:"reminderId"`
	OwnerID       string  `json:"userId"`
	DestinationID *string `json:"guildId"`
	Text          string  `json:"text"`
	ScheduledAt   int64   `json:"scheduledAt"`
	FiredAt       int64   `json:"firedAt"`
	DeliveredAt   int64   `json:"deliveredAt"`
}

func NewNotice(r Reminder, deliveredAt int64) Notice {
	return Notice{
		ReminderID:    r.ItemID,
		OwnerID:       r.OwnerID,
		DestinationID: r.DestinationID,
		Text:          r.Payload,
		ScheduledAt:   r.ScheduledAt,
		FiredAt:       r.FiredAt,
		DeliveredAt:   deliveredAt,
	}
}
