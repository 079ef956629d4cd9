package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
)

const sqlStateLockNotAvailable = "55P03"

// LockKey takes a transaction-scoped advisory lock on hashtext(req.Key). The lock is released on
// commit or rollback. A zero or negative timeout fails fast when the lock is held; otherwise the
// call waits up to the timeout (30s when unset). A lock that cannot be obtained is reported as
// an invalid operation so callers can retry.
func (c *Client) LockKey(ctx context.Context, req types.LockRequest) error {
	tx := c.TxFromContext(ctx)
	if tx == nil {
		return ierr.NewError("advisory lock requested outside a transaction").
			WithReportableDetails(map[string]interface{}{"lock_key": req.Key}).
			Mark(ierr.ErrInvalidOperation)
	}

	timeout := req.GetTimeout()
	if timeout <= 0 {
		return tryAdvisoryLock(ctx, tx, req.Key)
	}

	// SET LOCAL is scoped to the transaction
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", timeout.Milliseconds())); err != nil {
		return ierr.WithError(err).
			WithHint("Could not configure lock timeout").
			Mark(ierr.ErrDatabase)
	}

	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, req.Key)
	switch {
	case err == nil:
		return nil
	case isLockTimeoutError(err):
		return lockBusy(req.Key, err).
			WithHintf("Another operation held %s for more than %v, retry shortly", req.Key, timeout).
			Mark(ierr.ErrInvalidOperation)
	default:
		return ierr.WithError(err).
			WithHint("Could not acquire advisory lock").
			Mark(ierr.ErrDatabase)
	}
}

func tryAdvisoryLock(ctx context.Context, tx *sql.Tx, key string) error {
	var acquired bool
	if err := tx.QueryRowContext(ctx, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, key).Scan(&acquired); err != nil {
		return ierr.WithError(err).
			WithHint("Could not acquire advisory lock").
			Mark(ierr.ErrDatabase)
	}
	if !acquired {
		return lockBusy(key, errors.New("lock already held")).
			WithHintf("Another operation holds %s, retry shortly", key).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

func lockBusy(key string, cause error) *ierr.ErrorBuilder {
	return ierr.WithError(cause).
		WithReportableDetails(map[string]interface{}{"lock_key": key})
}

// isLockTimeoutError reports SQLSTATE 55P03 (lock_not_available).
func isLockTimeoutError(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == sqlStateLockNotAvailable
}
