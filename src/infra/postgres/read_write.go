package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReadWriteClient splits statements between a replica pool and the primary.
type ReadWriteClient struct {
	readPool  *pgxpool.Pool
	writePool *pgxpool.Pool
}

func NewReadWriteClient(
	readHost string,
	writeHost string,
	readPort string,
	writePort string,
	dbname string,
	username string,
	password string,
	maxConnections int,
) (*ReadWriteClient, error) {

	readPool, err := NewPostgresClient(readHost, readPort, dbname, username, password, maxConnections)
	if err != nil {
		return nil, err
	}

	writePool, err := NewPostgresClient(writeHost, writePort, dbname, username, password, maxConnections)
	if err != nil {
		readPool.Close()
		return nil, err
	}

	return &ReadWriteClient{
		readPool:  readPool,
		writePool: writePool,
	}, nil
}

// NewSinglePoolClient serves reads and writes from the same pool.
func NewSinglePoolClient(pool *pgxpool.Pool) *ReadWriteClient {
	return &ReadWriteClient{readPool: pool, writePool: pool}
}

func (rwc *ReadWriteClient) GetReadPool() *pgxpool.Pool {
	return rwc.readPool
}

func (rwc *ReadWriteClient) GetWritePool() *pgxpool.Pool {
	return rwc.writePool
}

// HealthCheck pinga as duas pools
func (rwc *ReadWriteClient) HealthCheck(ctx context.Context) error {
	return errors.Join(rwc.writePool.Ping(ctx), rwc.readPool.Ping(ctx))
}

func (rwc *ReadWriteClient) Close() {
	rwc.readPool.Close()
	if rwc.writePool != rwc.readPool {
		rwc.writePool.Close()
	}
}
