package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jengzang/popquery-backend-go/internal/database"
	"github.com/jengzang/popquery-backend-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDatasetService(t *testing.T) *DatasetService {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrationManager(db, nil).Migrate())
	return NewDatasetService(repository.NewCensusRepository(db))
}

func TestImportFileThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "census.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"STATEFP,COUNTYFP,TRACTCE,BLKGRPCE,POPULATION,LATITUDE,LONGITUDE\n"+
			"01,001,020100,1,100,10,20\n"+
			"01,001,020100,2,50,10,40\n"), 0o644))

	s := newDatasetService(t)
	ctx := context.Background()
	imported, err := s.ImportFile(ctx, "example", path)
	require.NoError(t, err)

	loaded, err := s.Load(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, imported.Records(), loaded.Records())
	assert.Equal(t, int64(150), loaded.TotalPopulation())

	d, err := s.Get(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.RecordCount)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrDatasetNotFound)
	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrDatasetNotFound)
}
