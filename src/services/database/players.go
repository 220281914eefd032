package database

import (
	"context"
	"time"

	"botstore/src/domain/entities"
)

// GetPlayer never returns nil: a player that was never saved comes back as
// an unsaved default.
func (m *ManagedDatabase) GetPlayer(ctx context.Context, userID string) (player *entities.Player, err error) {
	defer m.log(ctx, "get", entities.PlayersTable, userID, time.Now(), &err)

	player, err = m.players.GetOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}
	player.UseMoneyVersion(m.moneyVersion)
	return player, nil
}

// SavePlayer replaces the stored document. Pending tracked fields are kept.
func (m *ManagedDatabase) SavePlayer(ctx context.Context, player *entities.Player) (err error) {
	defer m.log(ctx, "save", entities.PlayersTable, player.ID(), time.Now(), &err)
	return m.players.ReplaceWhole(ctx, player)
}

func (m *ManagedDatabase) DeletePlayer(ctx context.Context, player *entities.Player) (err error) {
	defer m.log(ctx, "delete", entities.PlayersTable, player.ID(), time.Now(), &err)
	return m.players.DeleteWhole(ctx, player)
}
