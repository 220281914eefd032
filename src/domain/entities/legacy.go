package entities

import "strings"

// Kinds still living in the key-value store.

const (
	PlayerStatsTable = "playerstats"

	// GlobalSuffix marks the canonical global sub-record of a legacy player.
	GlobalSuffix = ":g"
)

var PlayerStatsKind = Register(Kind[*PlayerStats]{
	Table:   PlayerStatsTable,
	Store:   StoreKeyValue,
	New:     func() *PlayerStats { return &PlayerStats{} },
	Default: NewPlayerStats,
})

type PlayerStats struct {
	Identity

	GambleWins   int64 `json:"gambleWins"`
	GambleLose   int64 `json:"gambleLose"`
	SlotsWins    int64 `json:"slotsWins"`
	SlotsLose    int64 `json:"slotsLose"`
	LootedItems  int64 `json:"looted"`
	CraftedItems int64 `json:"craftedItems"`
}

func NewPlayerStats(userID string) *PlayerStats {
	return &PlayerStats{Identity: Identity{Key: userID}}
}

func (s *PlayerStats) TableName() string {
	return PlayerStatsTable
}

var LegacyPlayerKind = Register(Kind[*LegacyPlayer]{
	Table: PlayersTable,
	Store: StoreKeyValue,
	New:   func() *LegacyPlayer { return &LegacyPlayer{} },
})

// LegacyPlayer is keyed "<userId>:g".
type LegacyPlayer struct {
	Identity

	Level      int64 `json:"level"`
	Money      int64 `json:"money"`
	Reputation int64 `json:"reputation"`
}

func LegacyPlayerID(userID string) string {
	return userID + GlobalSuffix
}

func NewLegacyPlayer(userID string) *LegacyPlayer {
	return &LegacyPlayer{Identity: Identity{Key: LegacyPlayerID(userID)}}
}

func (p *LegacyPlayer) TableName() string {
	return PlayersTable
}

// UserID strips the global suffix from the record id.
func (p *LegacyPlayer) UserID() string {
	return strings.TrimSuffix(p.Key, GlobalSuffix)
}

var LegacyCustomCommandKind = Register(Kind[*LegacyCustomCommand]{
	Table: CustomCommandsTable,
	Store: StoreKeyValue,
	New:   func() *LegacyCustomCommand { return &LegacyCustomCommand{} },
})

// LegacyCustomCommand is keyed "<guildId>:<name>", which is what the
// by-name scan matches on.
type LegacyCustomCommand struct {
	Identity

	Values []string `json:"values"`
}

func NewLegacyCustomCommand(guildID, name string, values []string) *LegacyCustomCommand {
	return &LegacyCustomCommand{Identity: Identity{Key: CustomCommandID(guildID, name)}, Values: values}
}

func (c *LegacyCustomCommand) TableName() string {
	return CustomCommandsTable
}

func (c *LegacyCustomCommand) GuildID() string {
	guildID, _, _ := strings.Cut(c.Key, ":")
	return guildID
}

func (c *LegacyCustomCommand) Name() string {
	_, name, _ := strings.Cut(c.Key, ":")
	return name
}
