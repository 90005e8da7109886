package service

import (
	"context"

	"github.com/jengzang/popquery-backend-go/internal/census"
	"github.com/jengzang/popquery-backend-go/internal/models"
	"github.com/jengzang/popquery-backend-go/internal/repository"
)

// DatasetService handles census datasets stored in the database
type DatasetService struct {
	repo *repository.CensusRepository
}

// NewDatasetService creates a new dataset service
func NewDatasetService(repo *repository.CensusRepository) *DatasetService {
	return &DatasetService{repo: repo}
}

// List returns every imported dataset
func (s *DatasetService) List(ctx context.Context) ([]models.CensusDataset, error) {
	return s.repo.Datasets(ctx)
}

// Get returns one imported dataset
func (s *DatasetService) Get(ctx context.Context, name string) (*models.CensusDataset, error) {
	return s.repo.Dataset(ctx, name)
}

// ImportFile parses a census CSV file and stores it as dataset
func (s *DatasetService) ImportFile(ctx context.Context, dataset, path string) (*census.Store, error) {
	store, err := census.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Import(ctx, dataset, store.Records()); err != nil {
		return nil, err
	}
	return store, nil
}

// Load reads dataset into a Store
func (s *DatasetService) Load(ctx context.Context, dataset string) (*census.Store, error) {
	records, err := s.repo.Load(ctx, dataset)
	if err != nil {
		return nil, err
	}
	return census.NewStore(records), nil
}
