package main

import (
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/ml4sw/internal/examples"
)

// storedIDSet has example-ID strings but none of the fields IDs are
// derived from, so joining on it must treat the strings as opaque keys.
func storedIDSet() *examples.ExampleSet {
	values := sparse.ZerosDense(3, 1)
	for i := 0; i < 3; i++ {
		values.Set(float64(100*i), i, 0)
	}
	return &examples.ExampleSet{
		ScalarTargets: examples.FieldBlock{
			Names:  []string{examples.SurfaceDownFluxName},
			Values: values,
		},
		ExampleIDs: []string{"boulder", "nederland", "lyons"},
	}
}

func TestSubsetByIDsUsesStoredIDs(t *testing.T) {
	got, err := subsetByIDs(storedIDSet(), []string{"lyons", "boulder"})
	require.NoError(t, err)

	assert.Equal(t, []string{"lyons", "boulder"}, got.ExampleIDs)
	assert.InDeltaSlice(t, []float64{200, 0}, got.ScalarTargets.Values.Elements, 1e-6)
}

func TestSubsetByIDsMissingID(t *testing.T) {
	_, err := subsetByIDs(storedIDSet(), []string{"lyons", "ward"})
	assert.Error(t, err)
}

func TestSubsetByIDsDerivesWhenAbsent(t *testing.T) {
	scalars := sparse.ZerosDense(2, 3)
	for i, row := range [][]float64{{40, 255, 0.5}, {53.5, 246.5, 1}} {
		for c, v := range row {
			scalars.Set(v, i, c)
		}
	}
	temps := sparse.ZerosDense(2, 1, 1)
	temps.Set(230, 0, 0, 0)
	temps.Set(250, 1, 0, 0)

	set := &examples.ExampleSet{
		ScalarPredictors: examples.FieldBlock{
			Names:  []string{examples.LatitudeName, examples.LongitudeName, examples.ZenithAngleName},
			Values: scalars,
		},
		VectorPredictors: examples.FieldBlock{
			Names:  []string{examples.TemperatureName},
			Values: temps,
		},
		Heights:           []float64{10},
		ValidTimes:        []int64{0, 100000000},
		StandardAtmoFlags: []int{examples.MidlatitudeWinterAtmo, examples.SubarcticWinterAtmo},
	}

	got, err := subsetByIDs(set, []string{
		"lat=53.500000_long=246.500000_zenith-angle-rad=1.000000_time=0100000000_atmo=5_temp-10m-kelvins=250.000000",
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{100000000}, got.ValidTimes)
	assert.InDeltaSlice(t, []float64{53.5, 246.5, 1}, got.ScalarPredictors.Values.Elements, 1e-6)
}
