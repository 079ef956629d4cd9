package postgres

import (
	"testing"
	"testing/fstest"

	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedMigrations(t *testing.T) {
	migrations, err := loadMigrations(migrationFS)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "001", migrations[0].version)
	assert.Contains(t, migrations[0].sql, "CREATE TABLE IF NOT EXISTS project_milestones")
	assert.Len(t, migrations[0].checksum, 64)
}

func TestLoadMigrationsOrderingAndDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_b.sql":  {Data: []byte("SELECT 2;")},
		"migrations/001_a.sql":  {Data: []byte("SELECT 1;")},
		"migrations/readme.txt": {Data: []byte("ignored")},
	}
	migrations, err := loadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "001_a.sql", migrations[0].filename)
	assert.Equal(t, "002_b.sql", migrations[1].filename)

	fsys["migrations/002_c.sql"] = &fstest.MapFile{Data: []byte("SELECT 3;")}
	_, err = loadMigrations(fsys)
	assert.True(t, ierr.IsValidation(err))

	_, err = loadMigrations(fstest.MapFS{"migrations/bad.sql": {Data: []byte("x")}})
	assert.True(t, ierr.IsValidation(err))
}
