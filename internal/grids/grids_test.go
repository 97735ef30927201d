package grids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-6

var (
	centerHeightsMAGL = []float64{
		10, 20, 40, 60, 80, 100, 30000, 33000, 36000, 39000, 42000, 46000, 50000,
	}
	edgeHeightsMAGL = []float64{
		5, 15, 30, 50, 70, 90, 15050, 31500, 34500, 37500, 40500, 44000, 48000, 52000,
	}
	cellWidthsMetres = []float64{
		10, 15, 20, 20, 20, 14960, 16450, 3000, 3000, 3000, 3500, 4000, 4000,
	}
)

func TestCellEdges(t *testing.T) {
	edges, err := CellEdges(centerHeightsMAGL)
	require.NoError(t, err)
	assert.InDeltaSlice(t, edgeHeightsMAGL, edges, tolerance)
}

func TestCellEdgesBadInput(t *testing.T) {
	_, err := CellEdges([]float64{10})
	assert.Error(t, err)

	_, err = CellEdges([]float64{10, 20, 20, 40})
	assert.Error(t, err)
}

func TestCellWidths(t *testing.T) {
	widths, err := CellWidths(edgeHeightsMAGL)
	require.NoError(t, err)
	assert.InDeltaSlice(t, cellWidthsMetres, widths, tolerance)
}

func TestCellWidthsBadInput(t *testing.T) {
	_, err := CellWidths([]float64{5})
	assert.Error(t, err)
}

func TestFakeHeights(t *testing.T) {
	realHeights := []float64{10, 20, 40, 60, 80, 10000, 50000}
	want := []float64{
		10, 20, 40, 60, 80, 10000, 50000, 1050000, 2050000, 3050000, 4050000,
		5050000, 6050000, 7050000, 8050000, 9050000, 10050000,
	}

	padded, err := FakeHeights(realHeights, 10)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, padded, tolerance)
}

func TestFakeHeightsNoPadding(t *testing.T) {
	realHeights := []float64{10, 20, 40}
	padded, err := FakeHeights(realHeights, 0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, realHeights, padded, tolerance)
}

func TestFakeHeightsBadCount(t *testing.T) {
	_, err := FakeHeights([]float64{10, 20, 40}, -1)
	assert.Error(t, err)
}
