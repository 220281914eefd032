package entities

import "slices"

const (
	UsersTable  = "users"
	GuildsTable = "guilds"

	DefaultPrefix = "~>"
)

var userSchema = NewSchema(UsersTable, "timezone", "language", "premiumKey", "reminderCount")

var UserKind = Register(Kind[*UserData]{
	Table:   UsersTable,
	Store:   StoreDocument,
	New:     func() *UserData { return &UserData{} },
	Default: NewUserData,
})

// UserData holds per-user settings shared across guilds.
type UserData struct {
	Identity

	Timezone      string `json:"timezone"`
	Language      string `json:"language"`
	PremiumKey    string `json:"premiumKey"`
	ReminderCount int    `json:"reminderCount"`

	tracker *FieldTracker
}

func NewUserData(userID string) *UserData {
	return &UserData{Identity: Identity{Key: userID}, Language: "en_US"}
}

func (u *UserData) TableName() string {
	return UsersTable
}

func (u *UserData) Tracker() *FieldTracker {
	if u.tracker == nil {
		u.tracker = NewFieldTracker(userSchema)
	}
	return u.tracker
}

func (u *UserData) SetTimezone(timezone string) {
	u.Timezone = timezone
	u.Tracker().MarkDirty("timezone", timezone)
}

func (u *UserData) SetLanguage(language string) {
	u.Language = language
	u.Tracker().MarkDirty("language", language)
}

func (u *UserData) SetPremiumKey(keyID string) {
	u.PremiumKey = keyID
	u.Tracker().MarkDirty("premiumKey", keyID)
}

func (u *UserData) IncrementReminders(delta int) {
	u.ReminderCount = max(u.ReminderCount+delta, 0)
	u.Tracker().MarkDirty("reminderCount", u.ReminderCount)
}

var guildSchema = NewSchema(GuildsTable, "prefix", "language", "premiumKey", "disabledCommands")

var GuildKind = Register(Kind[*GuildData]{
	Table:   GuildsTable,
	Store:   StoreDocument,
	New:     func() *GuildData { return &GuildData{} },
	Default: NewGuildData,
})

// GuildData holds per-guild settings.
type GuildData struct {
	Identity

	Prefix           string   `json:"prefix"`
	Language         string   `json:"language"`
	PremiumKey       string   `json:"premiumKey"`
	DisabledCommands []string `json:"disabledCommands"`

	tracker *FieldTracker
}

func NewGuildData(guildID string) *GuildData {
	return &GuildData{
		Identity:         Identity{Key: guildID},
		Prefix:           DefaultPrefix,
		Language:         "en_US",
		DisabledCommands: []string{},
	}
}

func (g *GuildData) TableName() string {
	return GuildsTable
}

func (g *GuildData) Tracker() *FieldTracker {
	if g.tracker == nil {
		g.tracker = NewFieldTracker(guildSchema)
	}
	return g.tracker
}

func (g *GuildData) SetPrefix(prefix string) {
	g.Prefix = prefix
	g.Tracker().MarkDirty("prefix", prefix)
}

func (g *GuildData) SetPremiumKey(keyID string) {
	g.PremiumKey = keyID
	g.Tracker().MarkDirty("premiumKey", keyID)
}

func (g *GuildData) DisableCommand(name string) bool {
	if slices.Contains(g.DisabledCommands, name) {
		return false
	}
	g.DisabledCommands = append(g.DisabledCommands, name)
	g.Tracker().MarkDirty("disabledCommands", slices.Clone(g.DisabledCommands))
	return true
}

func (g *GuildData) EnableCommand(name string) bool {
	i := slices.Index(g.DisabledCommands, name)
	if i < 0 {
		return false
	}
	g.DisabledCommands = slices.Delete(g.DisabledCommands, i, i+1)
	g.Tracker().MarkDirty("disabledCommands", slices.Clone(g.DisabledCommands))
	return true
}
