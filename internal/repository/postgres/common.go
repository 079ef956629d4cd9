package postgres

import (
	"database/sql"
	"errors"

	ierr "github.com/projectledger/projectledger/internal/errors"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// notFoundOr maps sql.ErrNoRows to a not-found error for the entity and wraps anything else as a
// database error.
func notFoundOr(err error, entity string, details map[string]interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithHintf("Failed to load %s", entity).
		WithReportableDetails(details).
		Mark(ierr.ErrDatabase)
}

func dbError(err error, hint string) error {
	return ierr.WithError(err).
		WithHint(hint).
		Mark(ierr.ErrDatabase)
}

func checkAffected(res sql.Result, entity string, details map[string]interface{}) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err, "Failed to read affected rows")
	}
	if n == 0 {
		return ierr.NewErrorf("%s not found", entity).
			WithHintf("%s not found", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func alreadyExists(err error, hint string, details map[string]interface{}) error {
	return ierr.WithError(err).
		WithHint(hint).
		WithReportableDetails(details).
		Mark(ierr.ErrAlreadyExists)
}
