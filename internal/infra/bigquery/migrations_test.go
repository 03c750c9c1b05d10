package bigquery

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  string
		name     string
	}{
		{"0001_create_categories.sql", true, "0001", "create_categories"},
		{"001_invalid.sql", false, "", ""},
		{"0001_test", false, "", ""},
		{"0001.sql", false, "", ""},
		{"invalid_0001_test.sql", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			matches := migrationPattern.FindStringSubmatch(tt.filename)
			if !tt.valid {
				assert.Nil(t, matches)
				return
			}
			require.NotNil(t, matches)
			assert.Equal(t, tt.version, matches[1])
			assert.Equal(t, tt.name, matches[2])
		})
	}
}

func TestReadMigrations(t *testing.T) {
	create := "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.t2` (id INT64);"
	fsys := fstest.MapFS{
		"0002_second.sql": {Data: []byte(create)},
		"0001_first.sql":  {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("not a migration")},
	}

	migrations, err := ReadMigrations(fsys, "proj", "ds")
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, "CREATE TABLE `proj.ds.t2` (id INT64);", migrations[1].SQL)

	// The checksum is taken before placeholder substitution.
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256([]byte(create))), migrations[1].Checksum)

	other, err := ReadMigrations(fsys, "other-proj", "other_ds")
	require.NoError(t, err)
	assert.Equal(t, migrations[1].Checksum, other[1].Checksum)
	assert.NotEqual(t, migrations[1].SQL, other[1].SQL)
}

func TestEmbeddedMigrationsCoverTables(t *testing.T) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	require.NoError(t, err)

	migrations, err := ReadMigrations(sub, "proj", "ds")
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	var all strings.Builder
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "versions must be contiguous")
		assert.NotContains(t, m.SQL, "{{")
		all.WriteString(m.SQL)
	}
	for _, table := range []string{"proj.ds.categories", "proj.ds.transactions", "proj.ds.import_runs"} {
		assert.Contains(t, all.String(), table)
	}
}
