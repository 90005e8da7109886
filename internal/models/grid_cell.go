package models

import "math"

// Rectangle is the boundary of one grid cell.
//
// Left/Right are longitudes (west/east edges) and Bottom/Top are latitudes
// (south/north edges). Invariant: Right >= Left and Top >= Bottom.
type Rectangle struct {
	Left   float64 `json:"left"`   // 西边界经度
	Right  float64 `json:"right"`  // 东边界经度
	Top    float64 `json:"top"`    // 北边界纬度
	Bottom float64 `json:"bottom"` // 南边界纬度

	Population int64 `json:"population"` // 单元格人口
}

// NewRectangle creates a rectangle with the given edges and no population
func NewRectangle(left, right, top, bottom float64) Rectangle {
	return Rectangle{Left: left, Right: right, Top: top, Bottom: bottom}
}

// Encompass returns the smallest rectangle containing r and o.
// The population of the result is zero.
func (r Rectangle) Encompass(o Rectangle) Rectangle {
	return NewRectangle(
		math.Min(r.Left, o.Left),
		math.Max(r.Right, o.Right),
		math.Max(r.Top, o.Top),
		math.Min(r.Bottom, o.Bottom),
	)
}

// AddPopulation adds n people to the rectangle
func (r *Rectangle) AddPopulation(n int64) {
	r.Population += n
}

// GridCell is a cell of the current grid as returned by the API
type GridCell struct {
	Row    int       `json:"row"` // 1-based, south to north
	Col    int       `json:"col"` // 1-based, west to east
	Bounds Rectangle `json:"bounds"`

	// Derived metrics
	AreaKm2      float64 `json:"areaKm2"`
	WidthKm      float64 `json:"widthKm"`
	HeightKm     float64 `json:"heightKm"`
	DensityPerKm float64 `json:"densityPerKm2"` // people / km², 0 for degenerate cells
	Percentage   float64 `json:"percentage"`    // share of the total population
}
