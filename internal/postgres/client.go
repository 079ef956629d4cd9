package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
	"github.com/projectledger/projectledger/internal/config"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/logger"
	"github.com/projectledger/projectledger/internal/types"
)

// IClient is the transactional store contract the services depend on.
type IClient interface {
	// WithTx runs fn inside a transaction carried by the context passed to fn. A call made while a
	// transaction is already in ctx joins it. Serialization failures replay fn from scratch.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// LockKey takes a transaction-scoped advisory lock. Must be called inside WithTx.
	LockKey(ctx context.Context, req types.LockRequest) error
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Client struct {
	db         *sql.DB
	logger     *logger.Logger
	maxRetries uint64
}

// NewDB opens the lib/pq connection pool and verifies connectivity.
func NewDB(cfg *config.Configuration, log *logger.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to open postgres connection").
			Mark(ierr.ErrDatabase)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, ierr.WithError(err).
			WithHint("Failed to reach postgres").
			WithReportableDetails(map[string]interface{}{
				"host": cfg.Postgres.Host,
				"port": cfg.Postgres.Port,
			}).
			Mark(ierr.ErrDatabase)
	}

	log.Infow("connected to postgres",
		"host", cfg.Postgres.Host,
		"dbname", cfg.Postgres.DBName,
		"max_open_conns", cfg.Postgres.MaxOpenConns,
	)
	return db, nil
}

func NewClient(db *sql.DB, cfg *config.Configuration, log *logger.Logger) *Client {
	return &Client{
		db:         db,
		logger:     log,
		maxRetries: cfg.Postgres.MaxTxRetries,
	}
}

// TxFromContext returns the transaction carried by ctx, if any.
func (c *Client) TxFromContext(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(types.CtxDBTransaction).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// Querier returns the transaction in ctx, falling back to the pool.
func (c *Client) Querier(ctx context.Context) Querier {
	if tx := c.TxFromContext(ctx); tx != nil {
		return tx
	}
	return c.db
}

func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := c.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if isSerializationFailure(err) {
			c.logger.WithContext(ctx).Warnw("retrying transaction after serialization failure",
				"attempt", attempt,
				"error", err,
			)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(50*time.Millisecond),
			backoff.WithMaxElapsedTime(5*time.Second),
		), c.maxRetries),
		ctx,
	)

	return backoff.Retry(operation, policy)
}

func (c *Client) runTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to start transaction").
			Mark(ierr.ErrDatabase)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, types.CtxDBTransaction, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.WithContext(ctx).Errorw("failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to commit transaction").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// isSerializationFailure matches SQLSTATE 40001 (serialization_failure) and 40P01 (deadlock_detected).
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

// IsUniqueViolation matches SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (c *Client) Close() error {
	return c.db.Close()
}
