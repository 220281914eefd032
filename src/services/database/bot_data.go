package database

import (
	"context"
	"time"

	"botstore/src/domain/entities"
)

// GetBotData returns the settings singleton, creating and saving it on the
// first read.
func (m *ManagedDatabase) GetBotData(ctx context.Context) (data *entities.BotData, err error) {
	defer m.log(ctx, "get", entities.BotDataTable, entities.BotDataID, time.Now(), &err)

	data, found, err := m.botData.Find(ctx, entities.BotDataID)
	if err != nil {
		return nil, err
	}
	if found {
		return data, nil
	}

	data = entities.NewBotData()
	if err := m.botData.ReplaceWhole(ctx, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (m *ManagedDatabase) SaveBotData(ctx context.Context, data *entities.BotData) (err error) {
	defer m.log(ctx, "save", entities.BotDataTable, data.ID(), time.Now(), &err)
	return m.botData.ReplaceWhole(ctx, data)
}
