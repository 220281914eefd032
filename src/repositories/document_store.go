package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"botstore/src/domain"
	"botstore/src/domain/entities"
	"botstore/src/infra/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentStore keeps each collection in its own JSONB table (id, doc).
// Lookups by id go to the primary so a save is visible to the next get;
// listings go to the read pool.
type DocumentStore struct {
	logger    *slog.Logger
	readPool  *pgxpool.Pool
	writePool *pgxpool.Pool
}

func NewDocumentStore(logger *slog.Logger, client *postgres.ReadWriteClient) *DocumentStore {
	return &DocumentStore{
		logger:    logger,
		readPool:  client.GetReadPool(),
		writePool: client.GetWritePool(),
	}
}

func (s *DocumentStore) Find(ctx context.Context, table string, id string) (json.RawMessage, bool, error) {
	ident, err := documentTable(table)
	if err != nil {
		return nil, false, err
	}

	var doc []byte
	err = s.writePool.QueryRow(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, ident), id).Scan(&doc)
	if postgres.IsNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapStoreError(err, "find %s:%s", table, id)
	}

	return doc, true, nil
}

func (s *DocumentStore) FindWhere(ctx context.Context, table string, path string, value interface{}) ([]json.RawMessage, error) {
	ident, err := documentTable(table)
	if err != nil {
		return nil, err
	}

	search, err := postgres.BuildSearchJSON(path, value)
	if err != nil {
		return nil, fmt.Errorf("failed to build search for %s.%s: %w", table, path, err)
	}

	return s.queryDocs(ctx, table, fmt.Sprintf(`SELECT doc FROM %s WHERE doc @> $1::jsonb ORDER BY id`, ident), search)
}

func (s *DocumentStore) FindAll(ctx context.Context, table string) ([]json.RawMessage, error) {
	ident, err := documentTable(table)
	if err != nil {
		return nil, err
	}

	return s.queryDocs(ctx, table, fmt.Sprintf(`SELECT doc FROM %s ORDER BY id`, ident))
}

func (s *DocumentStore) queryDocs(ctx context.Context, table string, query string, args ...interface{}) ([]json.RawMessage, error) {
	rows, err := s.readPool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreError(err, "query %s", table)
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan %s document: %w", table, err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(err, "query %s", table)
	}

	return docs, nil
}

// ReplaceWhole upserts the full document in one statement.
func (s *DocumentStore) ReplaceWhole(ctx context.Context, table string, id string, doc json.RawMessage) error {
	ident, err := documentTable(table)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, doc)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			doc = excluded.doc,
			updated_at = NOW()`, ident)

	if _, err := s.writePool.Exec(ctx, query, id, string(doc)); err != nil {
		return wrapStoreError(err, "replace %s:%s", table, id)
	}

	return nil
}

// UpdateFields merges fields into the stored document with the jsonb || operator,
// so writers touching disjoint fields do not overwrite each other.
func (s *DocumentStore) UpdateFields(ctx context.Context, table string, id string, fields map[string]interface{}) error {
	ident, err := documentTable(table)
	if err != nil {
		return err
	}

	if len(fields) == 0 {
		s.logger.Warn("Empty tracked set when requesting update", "table", table, "id", id, "error", domain.ErrEmptyUpdateRequest)
		return nil
	}

	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode update for %s:%s: %w", table, id, err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET
			doc = doc || $2::jsonb,
			updated_at = NOW()
		WHERE id = $1`, ident)

	tag, err := s.writePool.Exec(ctx, query, id, string(patch))
	if err != nil {
		return wrapStoreError(err, "update %s:%s", table, id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s:%s: %w", table, id, domain.ErrNotFound)
	}

	return nil
}

func (s *DocumentStore) DeleteWhole(ctx context.Context, table string, id string) error {
	ident, err := documentTable(table)
	if err != nil {
		return err
	}

	if _, err := s.writePool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, ident), id); err != nil {
		return wrapStoreError(err, "delete %s:%s", table, id)
	}

	return nil
}

// documentTable only lets registered collections reach the SQL text.
func documentTable(table string) (string, error) {
	if _, ok := entities.Lookup(entities.StoreDocument, table); !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownTable, table)
	}
	return pgx.Identifier{table}.Sanitize(), nil
}

func wrapStoreError(err error, format string, args ...interface{}) error {
	op := fmt.Sprintf(format, args...)
	if postgres.IsUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
