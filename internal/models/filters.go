package models

// QueryRect is a population query over grid cells. Bounds are 1-based and
// inclusive: 1 <= West <= East <= cols and 1 <= South <= North <= rows.
type QueryRect struct {
	West  int `form:"west" json:"west" binding:"required"`
	South int `form:"south" json:"south" binding:"required"`
	East  int `form:"east" json:"east" binding:"required"`
	North int `form:"north" json:"north" binding:"required"`
}

// QueryResult is the answer to a QueryRect
type QueryResult struct {
	Population int64   `json:"population"`
	Percentage float64 `json:"percentage"` // 0-100
}

// PreprocessRequest selects the grid dimensions and the implementation
// variant used to answer queries.
type PreprocessRequest struct {
	Rows    int    `json:"rows" binding:"required,min=1"`
	Cols    int    `json:"cols" binding:"required,min=1"`
	Variant string `json:"variant"` // v1-v5 or a variant name, default v4
}

// GridInfo summarizes the current preprocessing state
type GridInfo struct {
	Rows            int     `json:"rows"`
	Cols            int     `json:"cols"`
	Variant         string  `json:"variant"` // 预处理算法 v1-v5
	MinLat          float64 `json:"minLat"`
	MaxLat          float64 `json:"maxLat"`
	MinLon          float64 `json:"minLon"`
	MaxLon          float64 `json:"maxLon"`
	Records         int     `json:"records"`
	TotalPopulation int64   `json:"totalPopulation"`
	PreprocessMs    int64   `json:"preprocessMs"` // 预处理耗时（毫秒）
}
