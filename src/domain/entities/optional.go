package entities

import "time"

const (
	MarriagesTable      = "marriages"
	PremiumKeysTable    = "keys"
	CustomCommandsTable = "commands"
)

// Marriage, PremiumKey and CustomCommand may legitimately not exist, so their
// kinds have no Default.

var MarriageKind = Register(Kind[*Marriage]{
	Table: MarriagesTable,
	Store: StoreDocument,
	New:   func() *Marriage { return &Marriage{} },
})

type Marriage struct {
	Identity

	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
	Since   int64  `json:"marriageCreationMillis"`
}

func NewMarriage(id, player1, player2 string, since time.Time) *Marriage {
	return &Marriage{
		Identity: Identity{Key: id},
		Player1:  player1,
		Player2:  player2,
		Since:    since.UnixMilli(),
	}
}

func (m *Marriage) TableName() string {
	return MarriagesTable
}

// Partner returns the other side of the marriage, or "" if userID is not part of it.
func (m *Marriage) Partner(userID string) string {
	switch userID {
	case m.Player1:
		return m.Player2
	case m.Player2:
		return m.Player1
	}
	return ""
}

var PremiumKeyKind = Register(Kind[*PremiumKey]{
	Table: PremiumKeysTable,
	Store: StoreDocument,
	New:   func() *PremiumKey { return &PremiumKey{} },
})

type PremiumKey struct {
	Identity

	Owner      string `json:"owner"`
	DurationMS int64  `json:"duration"`
	Expiration int64  `json:"expiration"`
	Enabled    bool   `json:"enabled"`
	LinkedTo   string `json:"linkedTo"`
}

func (k *PremiumKey) TableName() string {
	return PremiumKeysTable
}

// Valid reports whether the key is enabled and has not expired at now.
func (k *PremiumKey) Valid(now time.Time) bool {
	return k.Enabled && k.Expiration > now.UnixMilli()
}

// Activate enables the key, starting its duration at now.
func (k *PremiumKey) Activate(now time.Time) {
	k.Enabled = true
	k.Expiration = now.UnixMilli() + k.DurationMS
}

var CustomCommandKind = Register(Kind[*CustomCommand]{
	Table: CustomCommandsTable,
	Store: StoreDocument,
	New:   func() *CustomCommand { return &CustomCommand{} },
})

// CustomCommand is keyed "<guildId>:<name>".
type CustomCommand struct {
	Identity

	GuildID string   `json:"guildId"`
	Name    string   `json:"name"`
	Values  []string `json:"values"`
}

func CustomCommandID(guildID, name string) string {
	return guildID + ":" + name
}

func NewCustomCommand(guildID, name string, values []string) *CustomCommand {
	return &CustomCommand{
		Identity: Identity{Key: CustomCommandID(guildID, name)},
		GuildID:  guildID,
		Name:     name,
		Values:   values,
	}
}

func (c *CustomCommand) TableName() string {
	return CustomCommandsTable
}
