package stubs

import (
	"botstore/src/domain/entities"

	"github.com/brianvoe/gofakeit/v6"
)

type PlayerStub struct {
	player *entities.Player
}

func NewPlayerStub() PlayerStub {
	player := entities.NewPlayer(gofakeit.Numerify("##################"))
	player.Level = int64(gofakeit.Number(1, 100))
	player.Experience = int64(gofakeit.Number(0, 50000))
	player.Reputation = int64(gofakeit.Number(0, 500))
	player.Description = gofakeit.Sentence(6)
	player.NewMoney = int64(gofakeit.Number(0, 1_000_000))
	player.OldMoney = int64(gofakeit.Number(0, 1_000_000))
	player.Badges = []string{gofakeit.Word()}
	player.Inventory = map[string]int{gofakeit.Noun(): gofakeit.Number(1, 20)}

	return PlayerStub{player: player}
}

func (ps PlayerStub) WithID(id string) PlayerStub {
	ps.player.Key = id
	return ps
}

func (ps PlayerStub) WithMoney(oldMoney, newMoney int64) PlayerStub {
	ps.player.OldMoney = oldMoney
	ps.player.NewMoney = newMoney
	return ps
}

func (ps PlayerStub) Get() *entities.Player {
	return ps.player
}
