package repository

import (
	"context"
	"testing"

	"github.com/jengzang/popquery-backend-go/internal/database"
	"github.com/jengzang/popquery-backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *CensusRepository {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrationManager(db, nil).Migrate())
	return NewCensusRepository(db)
}

var sample = []models.CensusRecord{
	{Population: 100, Latitude: 10, Longitude: 20},
	{Population: 50, Latitude: 10, Longitude: 40},
	{Population: 200, Latitude: 30, Longitude: 20},
}

func TestImportAndLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Import(ctx, "example", sample))
	got, err := repo.Load(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestImportReplacesDataset(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Import(ctx, "example", sample))
	require.NoError(t, repo.Import(ctx, "example", sample[:1]))
	require.NoError(t, repo.Import(ctx, "other", sample[1:]))

	got, err := repo.Load(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, sample[:1], got)

	datasets, err := repo.Datasets(ctx)
	require.NoError(t, err)
	require.Len(t, datasets, 2)
	assert.Equal(t, "example", datasets[0].Name)
	assert.Equal(t, int64(1), datasets[0].RecordCount)
	assert.Equal(t, int64(100), datasets[0].TotalPopulation)
	assert.Equal(t, "other", datasets[1].Name)
	assert.Equal(t, int64(2), datasets[1].RecordCount)
	assert.Equal(t, int64(250), datasets[1].TotalPopulation)
	assert.False(t, datasets[1].ImportedAt.IsZero())
}

func TestImportEmptyDataset(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Import(ctx, "empty", nil))
	got, err := repo.Load(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)

	datasets, err := repo.Datasets(ctx)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Zero(t, datasets[0].RecordCount)
}

func TestLoadMissingDataset(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestImportRejectsNegativePopulation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Import(ctx, "example", sample))

	bad := []models.CensusRecord{{Population: -1, Latitude: 1, Longitude: 1}}
	require.Error(t, repo.Import(ctx, "example", bad))

	// The failed import leaves the previous contents in place.
	got, err := repo.Load(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestDataset(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Import(ctx, "example", sample))
	require.NoError(t, repo.Import(ctx, "empty", nil))

	d, err := repo.Dataset(ctx, "example")
	require.NoError(t, err)
	assert.Equal(t, "example", d.Name)
	assert.Equal(t, int64(3), d.RecordCount)
	assert.Equal(t, int64(350), d.TotalPopulation)
	assert.False(t, d.ImportedAt.IsZero())

	d, err = repo.Dataset(ctx, "empty")
	require.NoError(t, err)
	assert.Zero(t, d.RecordCount)

	_, err = repo.Dataset(ctx, "nope")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}
