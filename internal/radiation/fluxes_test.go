package radiation

import (
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/ml4sw/internal/examples"
)

const tolerance = 1e-6

var (
	upFluxRowsWM02 = [][]float64{
		{100, 150, 200, 250, 300, 350},
		{400, 500, 600, 700, 800, 900},
		{0, 0, 0, 0, 0, 0},
	}
	downFluxRowsWM02 = [][]float64{
		{50, 125, 200, 275, 350, 425},
		{500, 550, 600, 650, 700, 750},
		{1000, 1000, 1000, 1000, 1000, 1000},
	}
	pressureRowsPa = [][]float64{
		{100000, 95000, 90000, 85000, 80000, 75000},
		{100000, 90000, 80000, 70000, 60000, 50000},
		{100000, 95000, 90000, 85000, 80000, 75000},
	}

	// Per-layer net-flux and pressure differences implied by the rows
	// above; the profile top reuses the last interior difference.
	netFluxDiffRowsWM02 = [][]float64{
		{25, 25, 25, 25, 25, 25},
		{-50, -50, -50, -50, -50, -50},
		{0, 0, 0, 0, 0, 0},
	}
	absPressureDiffRowsPa = [][]float64{
		{5000, 5000, 5000, 5000, 5000, 5000},
		{10000, 10000, 10000, 10000, 10000, 10000},
		{5000, 5000, 5000, 5000, 5000, 5000},
	}

	fluxHeightsMAGL  = []float64{25, 50, 100, 500, 1000, 5000}
	cellWidthsMetres = []float64{25, 37.5, 225, 450, 2250, 4000}
	validTimes       = []int64{300, 600, 900}
)

func matrixNH(rows [][]float64) *sparse.DenseArray {
	out := sparse.ZerosDense(len(rows), len(rows[0]))
	for i, row := range rows {
		for h, v := range row {
			out.Set(v, i, h)
		}
	}
	return out
}

func matrixNHC(channels ...[][]float64) *sparse.DenseArray {
	out := sparse.ZerosDense(len(channels[0]), len(channels[0][0]), len(channels))
	for c, rows := range channels {
		for i, row := range rows {
			for h, v := range row {
				out.Set(v, i, h, c)
			}
		}
	}
	return out
}

func fluxesOnlySet() *examples.ExampleSet {
	return &examples.ExampleSet{
		VectorPredictors: examples.FieldBlock{
			Names:  []string{examples.PressureName},
			Values: matrixNHC(pressureRowsPa),
		},
		VectorTargets: examples.FieldBlock{
			Names:  []string{examples.UpFluxName, examples.DownFluxName},
			Values: matrixNHC(upFluxRowsWM02, downFluxRowsWM02),
		},
		Heights:    append([]float64(nil), fluxHeightsMAGL...),
		ValidTimes: append([]int64(nil), validTimes...),
	}
}

func fieldMatrix(t *testing.T, set *examples.ExampleSet, name string) *sparse.DenseArray {
	t.Helper()
	values, err := set.Field(name)
	require.NoError(t, err)
	return values
}

func TestFluxesToHeatingRate(t *testing.T) {
	out, err := FluxesToHeatingRate(fluxesOnlySet())
	require.NoError(t, err)

	assert.Equal(
		t,
		[]string{examples.UpFluxName, examples.DownFluxName, examples.HeatingRateName},
		out.VectorTargets.Names,
	)

	coeff := DaysToSeconds * GravityMS02 / DryAirSpecificHeatJKg01K
	heatingRate := fieldMatrix(t, out, examples.HeatingRateName)
	for i := range netFluxDiffRowsWM02 {
		for h := range netFluxDiffRowsWM02[i] {
			want := coeff * netFluxDiffRowsWM02[i][h] / absPressureDiffRowsPa[i][h]
			assert.InDelta(t, want, heatingRate.Get(i, h), tolerance)
		}
	}

	// The flux fields themselves are untouched.
	assert.InDeltaSlice(
		t, matrixNH(upFluxRowsWM02).Elements,
		fieldMatrix(t, out, examples.UpFluxName).Elements, tolerance,
	)
}

func TestFluxesToHeatingRateMissingPressure(t *testing.T) {
	set := fluxesOnlySet()
	set.VectorPredictors = examples.FieldBlock{}

	_, err := FluxesToHeatingRate(set)
	assert.Error(t, err)
}

func TestFluxesActualToIncrements(t *testing.T) {
	out, err := FluxesActualToIncrements(fluxesOnlySet())
	require.NoError(t, err)

	assert.Equal(
		t,
		[]string{
			examples.UpFluxName, examples.DownFluxName,
			examples.DownFluxIncrementName, examples.UpFluxIncrementName,
		},
		out.VectorTargets.Names,
	)

	upIncRowsWM02 := [][]float64{
		{100, 50, 50, 50, 50, 50},
		{400, 100, 100, 100, 100, 100},
		{0, 0, 0, 0, 0, 0},
	}
	downIncRowsWM02 := [][]float64{
		{50, 75, 75, 75, 75, 75},
		{500, 50, 50, 50, 50, 50},
		{1000, 0, 0, 0, 0, 0},
	}

	upInc := fieldMatrix(t, out, examples.UpFluxIncrementName)
	downInc := fieldMatrix(t, out, examples.DownFluxIncrementName)
	for i := 0; i < 3; i++ {
		for h := 0; h < 6; h++ {
			assert.InDelta(t, upIncRowsWM02[i][h]/cellWidthsMetres[h], upInc.Get(i, h), tolerance)
			assert.InDelta(t, downIncRowsWM02[i][h]/cellWidthsMetres[h], downInc.Get(i, h), tolerance)
		}
	}
}

func TestFluxesIncrementsToActual(t *testing.T) {
	withIncrements, err := FluxesActualToIncrements(fluxesOnlySet())
	require.NoError(t, err)

	out, err := FluxesIncrementsToActual(withIncrements)
	require.NoError(t, err)

	// Same four fields, same values: the transform is the inverse of
	// FluxesActualToIncrements.
	assert.Equal(t, withIncrements.VectorTargets.Names, out.VectorTargets.Names)
	assert.InDeltaSlice(
		t, withIncrements.VectorTargets.Values.Elements,
		out.VectorTargets.Values.Elements, tolerance,
	)

	assert.InDeltaSlice(
		t, matrixNH(upFluxRowsWM02).Elements,
		fieldMatrix(t, out, examples.UpFluxName).Elements, tolerance,
	)
	assert.InDeltaSlice(
		t, matrixNH(downFluxRowsWM02).Elements,
		fieldMatrix(t, out, examples.DownFluxName).Elements, tolerance,
	)
}

func TestFluxesIncrementsMissingFields(t *testing.T) {
	_, err := FluxesIncrementsToActual(fluxesOnlySet())
	assert.Error(t, err)
}
