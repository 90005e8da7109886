package models

import "github.com/jengzang/popquery-backend-go/internal/stats"

// GridSummary describes how the population spreads over the current grid
type GridSummary struct {
	Grid         GridInfo      `json:"grid"`
	Distribution stats.Summary `json:"distribution"` // of per-cell population
	Densest      *GridCell     `json:"densest,omitempty"`
}
