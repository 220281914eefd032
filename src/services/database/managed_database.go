package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"botstore/src/domain"
	"botstore/src/domain/entities"
	"botstore/src/repositories"
)

// ManagedDatabase routes every entity kind to the store that owns it. It keeps
// no state of its own; build one at startup and pass it to whoever needs it.
//
// Document kinds block until the backend answers. Legacy kinds return an Ack
// for writes: a read issued right after one may still see the old record.
type ManagedDatabase struct {
	logger       *slog.Logger
	access       *repositories.AccessLog
	documents    repositories.DocumentBackend
	moneyVersion entities.MoneyVersion

	players   *repositories.DocumentCollection[*entities.Player]
	users     *repositories.DocumentCollection[*entities.UserData]
	guilds    *repositories.DocumentCollection[*entities.GuildData]
	marriages *repositories.DocumentCollection[*entities.Marriage]
	keys      *repositories.DocumentCollection[*entities.PremiumKey]
	commands  *repositories.DocumentCollection[*entities.CustomCommand]
	botData   *repositories.DocumentCollection[*entities.BotData]

	playerStats    *repositories.KeyValueCollection[*entities.PlayerStats]
	legacyPlayers  *repositories.KeyValueCollection[*entities.LegacyPlayer]
	legacyCommands *repositories.KeyValueCollection[*entities.LegacyCustomCommand]
}

func NewManagedDatabase(
	logger *slog.Logger,
	documents repositories.DocumentBackend,
	legacy repositories.KeyValueBackend,
	access *repositories.AccessLog,
	moneyVersion entities.MoneyVersion,
) *ManagedDatabase {
	return &ManagedDatabase{
		logger:       logger,
		access:       access,
		documents:    documents,
		moneyVersion: moneyVersion,

		players:   repositories.NewDocumentCollection(documents, entities.PlayerKind),
		users:     repositories.NewDocumentCollection(documents, entities.UserKind),
		guilds:    repositories.NewDocumentCollection(documents, entities.GuildKind),
		marriages: repositories.NewDocumentCollection(documents, entities.MarriageKind),
		keys:      repositories.NewDocumentCollection(documents, entities.PremiumKeyKind),
		commands:  repositories.NewDocumentCollection(documents, entities.CustomCommandKind),
		botData:   repositories.NewDocumentCollection(documents, entities.BotDataKind),

		playerStats:    repositories.NewKeyValueCollection(legacy, entities.PlayerStatsKind),
		legacyPlayers:  repositories.NewKeyValueCollection(legacy, entities.LegacyPlayerKind),
		legacyCommands: repositories.NewKeyValueCollection(legacy, entities.LegacyCustomCommandKind),
	}
}

// MoneyVersion is stamped on every Player this database returns.
func (m *ManagedDatabase) MoneyVersion() entities.MoneyVersion {
	return m.moneyVersion
}

// UpdateAllChanged flushes the entity's tracked fields with a selective update
// and clears the tracker once the write succeeded. A document that was never
// saved is written whole instead, since there is nothing to update in place.
func (m *ManagedDatabase) UpdateAllChanged(ctx context.Context, e entities.Tracked) (err error) {
	table := e.TableName()
	id, err := e.DatabaseID()
	if err != nil {
		return err
	}
	defer m.log(ctx, "update-changed", table, id, time.Now(), &err)

	if _, ok := entities.Lookup(entities.StoreDocument, table); !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTable, table)
	}

	tracker := e.Tracker()
	fields := tracker.Dirty()
	if len(fields) == 0 {
		m.logger.Warn("Empty tracked set when requesting update", "table", table, "id", id, "error", domain.ErrEmptyUpdateRequest)
		return nil
	}

	err = m.documents.UpdateFields(ctx, table, id, fields)
	if errors.Is(err, domain.ErrNotFound) {
		var doc []byte
		if doc, err = json.Marshal(e); err != nil {
			return fmt.Errorf("failed to encode %s:%s: %w", table, id, err)
		}
		err = m.documents.ReplaceWhole(ctx, table, id, doc)
	}
	if err != nil {
		return err
	}

	tracker.ClearDirty()
	return nil
}

// UpdateFieldValue writes one field of the stored document. The entity's
// tracker is left untouched.
func (m *ManagedDatabase) UpdateFieldValue(ctx context.Context, e entities.Tracked, field string, value interface{}) (err error) {
	table := e.TableName()
	id, err := e.DatabaseID()
	if err != nil {
		return err
	}
	defer m.log(ctx, "update-field", table, id, time.Now(), &err)

	if !e.Tracker().Allows(field) {
		return fmt.Errorf("%w: %s has no field %q", domain.ErrInvariantViolation, table, field)
	}

	return m.documents.UpdateFields(ctx, table, id, map[string]interface{}{field: value})
}

func (m *ManagedDatabase) log(ctx context.Context, op string, table string, id string, start time.Time, err *error) {
	m.access.Record(ctx, op, table, id, start, *err)
}
