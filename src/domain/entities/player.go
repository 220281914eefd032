package entities

import (
	"maps"
	"slices"
	"time"
)

const (
	PlayersTable = "players"

	lockWindow = 35 * time.Second
)

var playerSchema = NewSchema(PlayersTable,
	"level", "experience", "reputation", fieldOldMoney, fieldNewMoney,
	"description", "lockedUntil", "marriedWith", "badges", "inventory",
)

var PlayerKind = Register(Kind[*Player]{
	Table:   PlayersTable,
	Store:   StoreDocument,
	New:     func() *Player { return &Player{} },
	Default: NewPlayer,
})

// Player é o perfil global de economia de um usuário.
type Player struct {
	Identity
	Balance

	Level       int64          `json:"level"`
	Experience  int64          `json:"experience"`
	Reputation  int64          `json:"reputation"`
	Description string         `json:"description"`
	LockedUntil int64          `json:"lockedUntil"`
	MarriedWith string         `json:"marriedWith"`
	Badges      []string       `json:"badges"`
	Inventory   map[string]int `json:"inventory"`

	tracker *FieldTracker
}

// NewPlayer builds the default player for userID. It is not persisted.
func NewPlayer(userID string) *Player {
	return &Player{
		Identity:  Identity{Key: userID},
		Badges:    []string{},
		Inventory: map[string]int{},
	}
}

func (p *Player) TableName() string {
	return PlayersTable
}

func (p *Player) Tracker() *FieldTracker {
	if p.tracker == nil {
		p.tracker = NewFieldTracker(playerSchema)
	}
	return p.tracker
}

func (p *Player) CurrentMoney() int64 {
	return p.Amount()
}

// AddMoney refuses negative amounts and additions that would overflow.
func (p *Player) AddMoney(amount int64) bool {
	field, ok := p.add(amount)
	if !ok {
		return false
	}
	p.Tracker().MarkDirty(field, p.Amount())
	return true
}

// RemoveMoney only succeeds when the balance stays non-negative.
func (p *Player) RemoveMoney(amount int64) bool {
	field, ok := p.remove(amount)
	if !ok {
		return false
	}
	p.Tracker().MarkDirty(field, p.Amount())
	return true
}

// SetCurrentMoney clamps negative amounts to zero.
func (p *Player) SetCurrentMoney(amount int64) {
	field := p.set(max(amount, 0))
	p.Tracker().MarkDirty(field, p.Amount())
}

func (p *Player) AddReputation(amount int64) {
	p.Reputation += amount
	p.Tracker().MarkDirty("reputation", p.Reputation)
}

func (p *Player) AddExperience(amount int64) {
	p.Experience += amount
	p.Tracker().MarkDirty("experience", p.Experience)
}

func (p *Player) SetDescription(description string) {
	p.Description = description
	p.Tracker().MarkDirty("description", description)
}

func (p *Player) SetMarriedWith(marriageID string) {
	p.MarriedWith = marriageID
	p.Tracker().MarkDirty("marriedWith", marriageID)
}

func (p *Player) HasBadge(badge string) bool {
	return slices.Contains(p.Badges, badge)
}

func (p *Player) AddBadgeIfAbsent(badge string) bool {
	if p.HasBadge(badge) {
		return false
	}
	p.Badges = append(p.Badges, badge)
	p.Tracker().MarkDirty("badges", slices.Clone(p.Badges))
	return true
}

func (p *Player) RemoveBadge(badge string) bool {
	i := slices.Index(p.Badges, badge)
	if i < 0 {
		return false
	}
	p.Badges = slices.Delete(p.Badges, i, i+1)
	p.Tracker().MarkDirty("badges", slices.Clone(p.Badges))
	return true
}

func (p *Player) IsLocked(now time.Time) bool {
	return p.LockedUntil > now.UnixMilli()
}

// SetLocked holds the player for a short window so concurrent commands
// cannot spend the same balance twice.
func (p *Player) SetLocked(locked bool, now time.Time) {
	p.LockedUntil = 0
	if locked {
		p.LockedUntil = now.Add(lockWindow).UnixMilli()
	}
	p.Tracker().MarkDirty("lockedUntil", p.LockedUntil)
}

func (p *Player) AddItem(item string, amount int) {
	if p.Inventory == nil {
		p.Inventory = map[string]int{}
	}
	p.Inventory[item] += amount
	if p.Inventory[item] <= 0 {
		delete(p.Inventory, item)
	}
	p.Tracker().MarkDirty("inventory", maps.Clone(p.Inventory))
}
