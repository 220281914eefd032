package database

import (
	"context"
	"time"

	"botstore/src/domain/entities"
)

// Marriages, premium keys and custom commands may not exist. Their getters
// return nil for a missing record, and for an empty id without asking the store.

func (m *ManagedDatabase) GetMarriage(ctx context.Context, marriageID string) (marriage *entities.Marriage, err error) {
	if marriageID == "" {
		return nil, nil
	}
	defer m.log(ctx, "get", entities.MarriagesTable, marriageID, time.Now(), &err)

	marriage, found, err := m.marriages.Find(ctx, marriageID)
	if err != nil || !found {
		return nil, err
	}
	return marriage, nil
}

func (m *ManagedDatabase) GetMarriages(ctx context.Context) (marriages []*entities.Marriage, err error) {
	defer m.log(ctx, "list", entities.MarriagesTable, "", time.Now(), &err)
	return m.marriages.FindAll(ctx)
}

func (m *ManagedDatabase) SaveMarriage(ctx context.Context, marriage *entities.Marriage) (err error) {
	defer m.log(ctx, "save", entities.MarriagesTable, marriage.ID(), time.Now(), &err)
	return m.marriages.ReplaceWhole(ctx, marriage)
}

func (m *ManagedDatabase) DeleteMarriage(ctx context.Context, marriage *entities.Marriage) (err error) {
	defer m.log(ctx, "delete", entities.MarriagesTable, marriage.ID(), time.Now(), &err)
	return m.marriages.DeleteWhole(ctx, marriage)
}

func (m *ManagedDatabase) GetPremiumKey(ctx context.Context, keyID string) (key *entities.PremiumKey, err error) {
	if keyID == "" {
		return nil, nil
	}
	defer m.log(ctx, "get", entities.PremiumKeysTable, keyID, time.Now(), &err)

	key, found, err := m.keys.Find(ctx, keyID)
	if err != nil || !found {
		return nil, err
	}
	return key, nil
}

func (m *ManagedDatabase) GetPremiumKeys(ctx context.Context) (keys []*entities.PremiumKey, err error) {
	defer m.log(ctx, "list", entities.PremiumKeysTable, "", time.Now(), &err)
	return m.keys.FindAll(ctx)
}

func (m *ManagedDatabase) SavePremiumKey(ctx context.Context, key *entities.PremiumKey) (err error) {
	defer m.log(ctx, "save", entities.PremiumKeysTable, key.ID(), time.Now(), &err)
	return m.keys.ReplaceWhole(ctx, key)
}

func (m *ManagedDatabase) DeletePremiumKey(ctx context.Context, key *entities.PremiumKey) (err error) {
	defer m.log(ctx, "delete", entities.PremiumKeysTable, key.ID(), time.Now(), &err)
	return m.keys.DeleteWhole(ctx, key)
}

func (m *ManagedDatabase) GetCustomCommand(ctx context.Context, guildID string, name string) (command *entities.CustomCommand, err error) {
	if guildID == "" || name == "" {
		return nil, nil
	}
	id := entities.CustomCommandID(guildID, name)
	defer m.log(ctx, "get", entities.CustomCommandsTable, id, time.Now(), &err)

	command, found, err := m.commands.Find(ctx, id)
	if err != nil || !found {
		return nil, err
	}
	return command, nil
}

func (m *ManagedDatabase) GetCustomCommands(ctx context.Context) (commands []*entities.CustomCommand, err error) {
	defer m.log(ctx, "list", entities.CustomCommandsTable, "", time.Now(), &err)
	return m.commands.FindAll(ctx)
}

func (m *ManagedDatabase) GetCustomCommandsByGuild(ctx context.Context, guildID string) (commands []*entities.CustomCommand, err error) {
	defer m.log(ctx, "list-by-guild", entities.CustomCommandsTable, guildID, time.Now(), &err)
	return m.commands.FindWhere(ctx, "guildId", guildID)
}

func (m *ManagedDatabase) SaveCustomCommand(ctx context.Context, command *entities.CustomCommand) (err error) {
	defer m.log(ctx, "save", entities.CustomCommandsTable, command.ID(), time.Now(), &err)
	return m.commands.ReplaceWhole(ctx, command)
}

func (m *ManagedDatabase) DeleteCustomCommand(ctx context.Context, command *entities.CustomCommand) (err error) {
	defer m.log(ctx, "delete", entities.CustomCommandsTable, command.ID(), time.Now(), &err)
	return m.commands.DeleteWhole(ctx, command)
}
