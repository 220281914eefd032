package test_seeder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SelectDocument returns the raw stored document, or nil when absent.
func (ts TestSeeder) SelectDocument(ctx context.Context, table string, id string) (json.RawMessage, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, pgx.Identifier{table}.Sanitize())

	var doc []byte
	err := ts.pool.QueryRow(ctx, query, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return doc, err
}

func (ts TestSeeder) CountDocuments(ctx context.Context, table string) (int, error) {
	var count int
	err := ts.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, pgx.Identifier{table}.Sanitize())).Scan(&count)
	return count, err
}
