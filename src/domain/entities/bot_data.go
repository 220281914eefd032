package entities

import "slices"

const (
	BotDataTable = "mantaro"
	BotDataID    = "mantaro"
)

var BotDataKind = Register(Kind[*BotData]{
	Table:   BotDataTable,
	Store:   StoreDocument,
	New:     func() *BotData { return &BotData{} },
	Default: func(string) *BotData { return NewBotData() },
})

// BotData is the single process-wide settings document.
type BotData struct {
	Identity

	BlackListedUsers  []string `json:"blackListedUsers"`
	BlackListedGuilds []string `json:"blackListedGuilds"`
}

func NewBotData() *BotData {
	return &BotData{
		Identity:          Identity{Key: BotDataID},
		BlackListedUsers:  []string{},
		BlackListedGuilds: []string{},
	}
}

func (b *BotData) TableName() string {
	return BotDataTable
}

func (b *BotData) IsUserBlacklisted(userID string) bool {
	return slices.Contains(b.BlackListedUsers, userID)
}

func (b *BotData) IsGuildBlacklisted(guildID string) bool {
	return slices.Contains(b.BlackListedGuilds, guildID)
}
