package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	*pgxpool.Pool

	// QueryTimeout bounds each statement issued through WithTimeout.
	QueryTimeout time.Duration
}

type Options struct {
	QueryTimeout    time.Duration
	ConnectAttempts int
}

func NewPostgreSQLDB(dsn string, opts Options) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	attempts := opts.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 1; ; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = pool.Ping(ctx)
		cancel()
		if err == nil {
			break
		}
		if i >= attempts {
			pool.Close()
			return nil, fmt.Errorf("ping database after %d attempts: %w", attempts, err)
		}
		time.Sleep(time.Duration(i) * time.Second)
	}

	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &DB{Pool: pool, QueryTimeout: timeout}, nil
}

func (db *DB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.Pool.Begin(ctx)
}

// WithTimeout derives a context bounded by the configured query timeout.
// An earlier parent deadline wins.
func (db *DB) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db == nil || db.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.QueryTimeout)
}

type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Transactor runs fn in a transaction. Repositories called with the ctx
// passed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
