package test_seeder

import (
	"context"
	"fmt"

	"botstore/src/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TestSeeder struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) TestSeeder {
	return TestSeeder{pool: pool}
}

// TruncateTables empties every registered document collection.
func (ts TestSeeder) TruncateTables(ctx context.Context) {
	for _, table := range entities.Tables(entities.StoreDocument) {
		_, err := ts.pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", pgx.Identifier{table}.Sanitize()))
		if err != nil {
			panic(fmt.Sprintf("Failed to truncate %s: %v", table, err))
		}
	}
}
