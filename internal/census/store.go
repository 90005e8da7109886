package census

import "github.com/jengzang/popquery-backend-go/internal/models"

// Store is the immutable, ordered set of census records that every
// preprocessing run reads from. It is safe for concurrent use because
// nothing mutates it after NewStore returns.
type Store struct {
	records []models.CensusRecord
	total   int64
}

// NewStore copies records into a new Store
func NewStore(records []models.CensusRecord) *Store {
	s := &Store{records: make([]models.CensusRecord, len(records))}
	copy(s.records, records)
	for _, r := range s.records {
		s.total += r.Population
	}
	return s
}

// Len returns the number of records
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns the backing slice. Callers must not modify it.
func (s *Store) Records() []models.CensusRecord {
	return s.records
}

// TotalPopulation returns the sum of all record populations
func (s *Store) TotalPopulation() int64 {
	return s.total
}
