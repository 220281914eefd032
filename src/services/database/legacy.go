package database

import (
	"context"
	"iter"
	"regexp"
	"time"

	"botstore/src/domain/entities"
	"botstore/src/repositories"
)

var globalPlayerPattern = regexp.MustCompile(regexp.QuoteMeta(entities.GlobalSuffix) + `$`)

// GetPlayerStats defaults on a missing record. The legacy store itself never
// does, so the default is built here.
func (m *ManagedDatabase) GetPlayerStats(ctx context.Context, userID string) (stats *entities.PlayerStats, err error) {
	defer m.log(ctx, "get", entities.PlayerStatsTable, userID, time.Now(), &err)

	stats, found, err := m.playerStats.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return entities.NewPlayerStats(userID), nil
	}
	return stats, nil
}

func (m *ManagedDatabase) SavePlayerStats(ctx context.Context, stats *entities.PlayerStats) repositories.Ack {
	m.access.Record(ctx, "save", entities.PlayerStatsTable, stats.ID(), time.Now(), nil)
	return m.playerStats.UpsertReplace(ctx, stats)
}

func (m *ManagedDatabase) SaveUpdatingPlayerStats(ctx context.Context, stats *entities.PlayerStats) repositories.Ack {
	m.access.Record(ctx, "save-updating", entities.PlayerStatsTable, stats.ID(), time.Now(), nil)
	return m.playerStats.UpsertMerge(ctx, stats)
}

func (m *ManagedDatabase) DeletePlayerStats(ctx context.Context, stats *entities.PlayerStats) repositories.Ack {
	m.access.Record(ctx, "delete", entities.PlayerStatsTable, stats.ID(), time.Now(), nil)
	return m.playerStats.Delete(ctx, stats)
}

// GetLegacyPlayer returns nil when the user has no global legacy record.
func (m *ManagedDatabase) GetLegacyPlayer(ctx context.Context, userID string) (player *entities.LegacyPlayer, err error) {
	id := entities.LegacyPlayerID(userID)
	defer m.log(ctx, "get", entities.PlayersTable, id, time.Now(), &err)

	player, found, err := m.legacyPlayers.Get(ctx, id)
	if err != nil || !found {
		return nil, err
	}
	return player, nil
}

func (m *ManagedDatabase) SaveLegacyPlayer(ctx context.Context, player *entities.LegacyPlayer) repositories.Ack {
	m.access.Record(ctx, "save", entities.PlayersTable, player.ID(), time.Now(), nil)
	return m.legacyPlayers.UpsertReplace(ctx, player)
}

func (m *ManagedDatabase) SaveUpdatingLegacyPlayer(ctx context.Context, player *entities.LegacyPlayer) repositories.Ack {
	m.access.Record(ctx, "save-updating", entities.PlayersTable, player.ID(), time.Now(), nil)
	return m.legacyPlayers.UpsertMerge(ctx, player)
}

func (m *ManagedDatabase) DeleteLegacyPlayer(ctx context.Context, player *entities.LegacyPlayer) repositories.Ack {
	m.access.Record(ctx, "delete", entities.PlayersTable, player.ID(), time.Now(), nil)
	return m.legacyPlayers.Delete(ctx, player)
}

// GetLegacyPlayers yields every global legacy player. The sequence is lazy and
// can be ranged over once.
func (m *ManagedDatabase) GetLegacyPlayers(ctx context.Context) iter.Seq2[*entities.LegacyPlayer, error] {
	m.access.Record(ctx, "scan", entities.PlayersTable, globalPlayerPattern.String(), time.Now(), nil)
	return m.legacyPlayers.Scan(ctx, globalPlayerPattern)
}

// GetCustomCommandsByName yields the legacy commands named name across all
// guilds. The sequence is lazy and can be ranged over once.
func (m *ManagedDatabase) GetCustomCommandsByName(ctx context.Context, name string) iter.Seq2[*entities.LegacyCustomCommand, error] {
	pattern := regexp.MustCompile(":" + regexp.QuoteMeta(name) + "$")
	m.access.Record(ctx, "scan", entities.CustomCommandsTable, pattern.String(), time.Now(), nil)
	return m.legacyCommands.Scan(ctx, pattern)
}

func (m *ManagedDatabase) SaveLegacyCustomCommand(ctx context.Context, command *entities.LegacyCustomCommand) repositories.Ack {
	m.access.Record(ctx, "save", entities.CustomCommandsTable, command.ID(), time.Now(), nil)
	return m.legacyCommands.UpsertReplace(ctx, command)
}

func (m *ManagedDatabase) DeleteLegacyCustomCommand(ctx context.Context, command *entities.LegacyCustomCommand) repositories.Ack {
	m.access.Record(ctx, "delete", entities.CustomCommandsTable, command.ID(), time.Now(), nil)
	return m.legacyCommands.Delete(ctx, command)
}
