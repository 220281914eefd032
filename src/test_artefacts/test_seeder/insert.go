package test_seeder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// InsertDocument stores doc as-is, bypassing the entity layer. Useful for
// seeding documents written by older versions.
func (ts TestSeeder) InsertDocument(ctx context.Context, table string, id string, doc string) {
	query := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)`, pgx.Identifier{table}.Sanitize())

	if _, err := ts.pool.Exec(ctx, query, id, doc); err != nil {
		panic(fmt.Sprintf("Seeder.InsertDocument failed: %v", err))
	}
}
