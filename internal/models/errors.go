package models

import "errors"

var (
	// ErrInvalidConfiguration indicates a parameter outside its valid range
	// (sigma <= 0, k < 0, cellScale outside (0,1], empty center list, unknown option name).
	// It is reported before any pixel work starts.
	ErrInvalidConfiguration = errors.New("waterpixels: invalid configuration")

	// ErrEmptyImage indicates a raster with zero area.
	ErrEmptyImage = errors.New("waterpixels: image has zero area")

	// ErrDegenerateCell indicates a cell whose fallback marker could not be placed.
	// Ordinary degenerate cells are recovered locally and never produce this error.
	ErrDegenerateCell = errors.New("waterpixels: degenerate cell without a valid marker")
)
