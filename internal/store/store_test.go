package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dvloznov/statement-importer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteSeedsCategories(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StoreConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "s.db"),
	})
	require.NoError(t, err)
	defer s.Close()

	cats, err := s.ListCategories(ctx, "default")
	require.NoError(t, err)
	assert.NotEmpty(t, cats)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "postgres"})
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestOpenBigQueryRequiresProject(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: config.DriverBigQuery, Dataset: "d"})
	assert.ErrorContains(t, err, "project id is required")
}
