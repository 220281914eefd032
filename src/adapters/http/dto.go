package http

import (
	"encoding/json"
	"net/http"
	"time"

	"botstore/src/domain"
	"botstore/src/domain/entities"
)

type PlayerDTO struct {
	ID          string         `json:"id"`
	Level       int64          `json:"level"`
	Experience  int64          `json:"experience"`
	Reputation  int64          `json:"reputation"`
	Money       int64          `json:"money"`
	Description string         `json:"description"`
	MarriedWith string         `json:"marriedWith,omitempty"`
	Badges      []string       `json:"badges"`
	Inventory   map[string]int `json:"inventory"`
	Locked      bool           `json:"locked"`
}

type GuildDTO struct {
	ID               string   `json:"id"`
	Prefix           string   `json:"prefix"`
	Language         string   `json:"language"`
	PremiumKey       string   `json:"premiumKey,omitempty"`
	DisabledCommands []string `json:"disabledCommands"`
}

type ReminderDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user"`
	GuildID     *string   `json:"guild"`
	Reminder    string    `json:"reminder"`
	At          time.Time `json:"at"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

type ScheduleReminderRequest struct {
	GuildID   *string `json:"guild"`
	Reminder  string  `json:"reminder"`
	InSeconds int64   `json:"inSeconds"`
}

func MapPlayerToResponse(p *entities.Player, now time.Time) PlayerDTO {
	return PlayerDTO{
		ID:          p.ID(),
		Level:       p.Level,
		Experience:  p.Experience,
		Reputation:  p.Reputation,
		Money:       p.CurrentMoney(),
		Description: p.Description,
		MarriedWith: p.MarriedWith,
		Badges:      p.Badges,
		Inventory:   p.Inventory,
		Locked:      p.IsLocked(now),
	}
}

func MapGuildToResponse(g *entities.GuildData) GuildDTO {
	return GuildDTO{
		ID:               g.ID(),
		Prefix:           g.Prefix,
		Language:         g.Language,
		PremiumKey:       g.PremiumKey,
		DisabledCommands: g.DisabledCommands,
	}
}

func MapReminderToResponse(r domain.Reminder) ReminderDTO {
	return ReminderDTO{
		ID:          r.ItemID,
		UserID:      r.OwnerID,
		GuildID:     r.DestinationID,
		Reminder:    r.Payload,
		At:          r.FireTime().UTC(),
		ScheduledAt: r.ScheduleTime().UTC(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
