// Package grid implements the preprocessing and range-query core: the extent
// reduction over census records, the cell boundary grid, per-cell population
// binning and the summed-area table that answers rectangle queries in
// constant time.
//
// Rows partition latitude (south to north) and columns partition longitude
// (west to east). A cell covers [Bottom, Top) x [Left, Right); cells on the
// northern and eastern edges of the grid also include their outer edge so
// that every record inside the extent lands in exactly one cell.
package grid
