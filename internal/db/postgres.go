package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// InitPostgres opens the sqlx pool used for raw queries, retrying while the
// database container is still starting.
func InitPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	for i := 0; i < 10; i++ {
		db, err = sqlx.ConnectContext(ctx, "postgres", dsn)
		if err == nil {
			return db, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil, err
}
