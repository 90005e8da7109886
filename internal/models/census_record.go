package models

import "time"

// CensusRecord represents one census block group: a population count located at
// a single latitude/longitude point.
type CensusRecord struct {
	Population int64   `json:"population" db:"population"` // 人口，非负
	Latitude   float64 `json:"latitude" db:"latitude"`     // 纬度
	Longitude  float64 `json:"longitude" db:"longitude"`   // 经度
}

// CensusDataset describes a named set of census records stored in the database
type CensusDataset struct {
	Name            string    `json:"name" db:"dataset"`
	RecordCount     int64     `json:"recordCount" db:"record_count"`
	TotalPopulation int64     `json:"totalPopulation" db:"total_population"`
	ImportedAt      time.Time `json:"importedAt" db:"imported_at"`
}
