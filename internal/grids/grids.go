// Package grids computes cell geometry for non-uniform vertical height
// grids: cell edges and widths from center heights, and synthetic padding
// heights above the real profile top.
package grids

import (
	"github.com/pkg/errors"
)

// FakeHeightSpacing is the spacing, in meters, between synthetic heights
// appended above the real grid top.
const FakeHeightSpacing = 1e6

// checkCenters verifies that center heights are strictly increasing.
func checkCenters(centers []float64) error {
	if len(centers) < 2 {
		return errors.Errorf("need at least 2 center heights, got %d", len(centers))
	}
	for i := 1; i < len(centers); i++ {
		if centers[i] <= centers[i-1] {
			return errors.Errorf(
				"center heights must be strictly increasing; found %f after %f at index %d",
				centers[i], centers[i-1], i,
			)
		}
	}
	return nil
}

// CellEdges returns the H+1 edge heights for H center heights. Interior
// edges are midpoints between consecutive centers; the outer edges mirror
// the adjacent interior edge about the first and last centers.
func CellEdges(centers []float64) ([]float64, error) {
	if err := checkCenters(centers); err != nil {
		return nil, err
	}

	n := len(centers)
	edges := make([]float64, n+1)
	for i := 0; i < n-1; i++ {
		edges[i+1] = 0.5 * (centers[i] + centers[i+1])
	}
	edges[0] = centers[0] - (edges[1] - centers[0])
	edges[n] = centers[n-1] + (centers[n-1] - edges[n-1])
	return edges, nil
}

// CellWidths returns the H cell widths for H+1 edge heights.
func CellWidths(edges []float64) ([]float64, error) {
	if len(edges) < 2 {
		return nil, errors.Errorf("need at least 2 edge heights, got %d", len(edges))
	}

	widths := make([]float64, len(edges)-1)
	for i := range widths {
		widths[i] = edges[i+1] - edges[i]
	}
	return widths, nil
}

// FakeHeights appends numPadding synthetic heights above the real grid
// top, so that downstream models always see a fixed-length height axis.
// The synthetic heights step FakeHeightSpacing meters, starting one
// spacing above the last real height.
func FakeHeights(realHeights []float64, numPadding int) ([]float64, error) {
	if err := checkCenters(realHeights); err != nil {
		return nil, err
	}
	if numPadding < 0 {
		return nil, errors.Errorf("number of padding heights must be non-negative, got %d", numPadding)
	}

	top := realHeights[len(realHeights)-1]
	padded := make([]float64, 0, len(realHeights)+numPadding)
	padded = append(padded, realHeights...)
	for k := 1; k <= numPadding; k++ {
		padded = append(padded, top+float64(k)*FakeHeightSpacing)
	}
	return padded, nil
}
