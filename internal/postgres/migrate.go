package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"io/fs"
	"sort"
	"strings"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationLockID guards against two migrators running at once.
const migrationLockID = 7462839

type migration struct {
	version  string
	filename string
	checksum string
	sql      string
}

// Migrate applies every embedded migration not yet recorded in schema_migrations. An applied
// migration whose file has changed since is an error.
func Migrate(ctx context.Context, db *sql.DB, log *logger.Logger) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return dbErr(err, "Failed to acquire connection for migrations")
	}
	defer conn.Close()

	var locked bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, migrationLockID).Scan(&locked); err != nil {
		return dbErr(err, "Failed to take migration lock")
	}
	if !locked {
		return ierr.NewError("another migrator is running").
			WithHint("Wait for the running migration to finish").
			Mark(ierr.ErrInvalidOperation)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID)
	}()

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return dbErr(err, "Failed to create schema_migrations")
	}

	migrations, err := loadMigrations(migrationFS)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		var existing string
		err := conn.QueryRowContext(ctx, `SELECT checksum FROM schema_migrations WHERE version = $1`, m.version).Scan(&existing)
		switch {
		case err == nil && existing == m.checksum:
			log.Debugw("migration already applied", "filename", m.filename)
			continue
		case err == nil:
			return ierr.NewErrorf("checksum mismatch for %s", m.filename).
				WithHint("Applied migrations must not be edited; add a new migration instead").
				WithReportableDetails(map[string]interface{}{
					"expected": existing,
					"actual":   m.checksum,
				}).
				Mark(ierr.ErrValidation)
		case !errors.Is(err, sql.ErrNoRows):
			return dbErr(err, "Failed to read schema_migrations")
		}

		if err := applyMigration(ctx, conn, m); err != nil {
			return err
		}
		log.Infow("applied migration", "filename", m.filename, "version", m.version)
	}

	return nil
}

func applyMigration(ctx context.Context, conn *sql.Conn, m migration) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return dbErr(err, "Failed to begin migration transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return dbErr(err, "Failed to execute migration "+m.filename)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)`,
		m.version, m.filename, m.checksum); err != nil {
		return dbErr(err, "Failed to record migration "+m.filename)
	}
	if err := tx.Commit(); err != nil {
		return dbErr(err, "Failed to commit migration "+m.filename)
	}
	return nil
}

// loadMigrations reads NNN_description.sql files sorted by name and rejects duplicate versions.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read embedded migrations").
			Mark(ierr.ErrSystem)
	}

	seen := make(map[string]bool)
	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		parts := strings.SplitN(entry.Name(), "_", 2)
		if len(parts) < 2 {
			return nil, ierr.NewErrorf("invalid migration filename %s", entry.Name()).
				WithHint("Expected format NNN_description.sql").
				Mark(ierr.ErrValidation)
		}
		if seen[parts[0]] {
			return nil, ierr.NewErrorf("duplicate migration version %s", parts[0]).
				Mark(ierr.ErrValidation)
		}
		seen[parts[0]] = true

		body, err := fs.ReadFile(fsys, "migrations/"+entry.Name())
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to read migration " + entry.Name()).
				Mark(ierr.ErrSystem)
		}
		sum := sha256.Sum256(body)

		out = append(out, migration{
			version:  parts[0],
			filename: entry.Name(),
			checksum: hex.EncodeToString(sum[:]),
			sql:      string(body),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].filename < out[j].filename })
	return out, nil
}

func dbErr(err error, hint string) error {
	return ierr.WithError(err).
		WithHint(hint).
		Mark(ierr.ErrDatabase)
}
