package database

import (
	"context"
	"time"

	"botstore/src/domain/entities"
)

func (m *ManagedDatabase) GetUserData(ctx context.Context, userID string) (user *entities.UserData, err error) {
	defer m.log(ctx, "get", entities.UsersTable, userID, time.Now(), &err)
	return m.users.GetOrDefault(ctx, userID)
}

func (m *ManagedDatabase) SaveUserData(ctx context.Context, user *entities.UserData) (err error) {
	defer m.log(ctx, "save", entities.UsersTable, user.ID(), time.Now(), &err)
	return m.users.ReplaceWhole(ctx, user)
}

func (m *ManagedDatabase) DeleteUserData(ctx context.Context, user *entities.UserData) (err error) {
	defer m.log(ctx, "delete", entities.UsersTable, user.ID(), time.Now(), &err)
	return m.users.DeleteWhole(ctx, user)
}

func (m *ManagedDatabase) GetGuildData(ctx context.Context, guildID string) (guild *entities.GuildData, err error) {
	defer m.log(ctx, "get", entities.GuildsTable, guildID, time.Now(), &err)
	return m.guilds.GetOrDefault(ctx, guildID)
}

func (m *ManagedDatabase) SaveGuildData(ctx context.Context, guild *entities.GuildData) (err error) {
	defer m.log(ctx, "save", entities.GuildsTable, guild.ID(), time.Now(), &err)
	return m.guilds.ReplaceWhole(ctx, guild)
}

func (m *ManagedDatabase) DeleteGuildData(ctx context.Context, guild *entities.GuildData) (err error) {
	defer m.log(ctx, "delete", entities.GuildsTable, guild.ID(), time.Now(), &err)
	return m.guilds.DeleteWhole(ctx, guild)
}
