package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/popquery-backend-go/internal/database"
	"github.com/jengzang/popquery-backend-go/internal/models"
)

// ErrDatasetNotFound is returned by Load and Dataset for a dataset that was never imported
var ErrDatasetNotFound = errors.New("dataset not found")

// CensusRepository handles database operations for census records
type CensusRepository struct {
	db *sql.DB
}

// NewCensusRepository creates a new census repository
func NewCensusRepository(db *sql.DB) *CensusRepository {
	return &CensusRepository{db: db}
}

// Import replaces the contents of dataset with records in one transaction
func (r *CensusRepository) Import(ctx context.Context, dataset string, records []models.CensusRecord) error {
	if dataset == "" {
		return errors.New("dataset name is required")
	}
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM census_groups WHERE dataset = ?", dataset); err != nil {
			return fmt.Errorf("failed to clear dataset %s: %w", dataset, err)
		}

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO census_groups (dataset, population, latitude, longitude) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, rec := range records {
			if _, err := stmt.ExecContext(ctx, dataset, rec.Population, rec.Latitude, rec.Longitude); err != nil {
				return fmt.Errorf("failed to insert record %d: %w", i, err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO datasets (name, imported_at) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET imported_at = excluded.imported_at`,
			dataset, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("failed to record dataset %s: %w", dataset, err)
		}
		return nil
	})
}

// Load returns every record of dataset in insertion order
func (r *CensusRepository) Load(ctx context.Context, dataset string) ([]models.CensusRecord, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM datasets WHERE name = ?", dataset).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up dataset %s: %w", dataset, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, dataset)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT population, latitude, longitude FROM census_groups WHERE dataset = ? ORDER BY id", dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset %s: %w", dataset, err)
	}
	defer rows.Close()

	var records []models.CensusRecord
	for rows.Next() {
		var rec models.CensusRecord
		if err := rows.Scan(&rec.Population, &rec.Latitude, &rec.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan census record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", dataset, err)
	}
	return records, nil
}

const datasetQuery = `
	SELECT d.name, COUNT(g.id), COALESCE(SUM(g.population), 0), d.imported_at
	FROM datasets d
	LEFT JOIN census_groups g ON g.dataset = d.name`

func scanDataset(rows *sql.Rows) (models.CensusDataset, error) {
	var d models.CensusDataset
	var importedAt int64
	if err := rows.Scan(&d.Name, &d.RecordCount, &d.TotalPopulation, &importedAt); err != nil {
		return d, fmt.Errorf("failed to scan dataset: %w", err)
	}
	d.ImportedAt = time.Unix(importedAt, 0).UTC()
	return d, nil
}

// Datasets lists the imported datasets with their record counts and totals
func (r *CensusRepository) Datasets(ctx context.Context) ([]models.CensusDataset, error) {
	rows, err := r.db.QueryContext(ctx, datasetQuery+`
		GROUP BY d.name, d.imported_at
		ORDER BY d.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	datasets := []models.CensusDataset{}
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

// Dataset returns the summary of one imported dataset
func (r *CensusRepository) Dataset(ctx context.Context, name string) (*models.CensusDataset, error) {
	rows, err := r.db.QueryContext(ctx, datasetQuery+`
		WHERE d.name = ?
		GROUP BY d.name, d.imported_at`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset %s: %w", name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read dataset %s: %w", name, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
	}
	d, err := scanDataset(rows)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
