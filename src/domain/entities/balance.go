package entities

import "math"

// MoneyVersion selects which stored field holds a player's balance.
// Premium and self-hosted deployments still read the legacy field.
type MoneyVersion int

const (
	MoneyCurrent MoneyVersion = iota
	MoneyLegacy
)

const (
	fieldOldMoney = "oldMoney"
	fieldNewMoney = "newMoney"
)

// Field is the stored field name that is authoritative under v.
func (v MoneyVersion) Field() string {
	if v == MoneyLegacy {
		return fieldOldMoney
	}
	return fieldNewMoney
}

// Balance carries both money fields of the document and decides, in one place,
// which of them is authoritative.
type Balance struct {
	OldMoney int64 `json:"oldMoney"`
	NewMoney int64 `json:"newMoney"`

	version MoneyVersion
}

func (b *Balance) UseMoneyVersion(v MoneyVersion) {
	b.version = v
}

func (b *Balance) MoneyVersion() MoneyVersion {
	return b.version
}

func (b *Balance) Amount() int64 {
	if b.version == MoneyLegacy {
		return b.OldMoney
	}
	return b.NewMoney
}

// set stores amount in the authoritative field and returns that field's name.
func (b *Balance) set(amount int64) string {
	if b.version == MoneyLegacy {
		b.OldMoney = amount
	} else {
		b.NewMoney = amount
	}
	return b.version.Field()
}

func (b *Balance) add(amount int64) (string, bool) {
	if amount < 0 {
		return "", false
	}
	current := b.Amount()
	if current > math.MaxInt64-amount {
		return "", false
	}
	return b.set(current + amount), true
}

func (b *Balance) remove(amount int64) (string, bool) {
	current := b.Amount()
	if amount < 0 || current-amount < 0 {
		return "", false
	}
	return b.set(current - amount), true
}
