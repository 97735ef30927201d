// Package clouds detects cloud layers in example profiles from upward
// liquid- or ice-water-path fields.
package clouds

import (
	"math"

	"github.com/pkg/errors"

	"github.com/rtm0/ml4sw/internal/examples"
)

// Values closer to zero than this are treated as zero when detecting
// runs. Path differences are computed in floating point, so an exact
// comparison would be brittle.
const zeroTolerance = 1e-12

// NonzeroRuns returns the start and end indices (both inclusive) of
// every maximal run of nonzero values. A run is broken only by an
// actual zero-valued sample. All-zero input yields two empty slices.
func NonzeroRuns(values []float64) (startIndices, endIndices []int) {
	startIndices = []int{}
	endIndices = []int{}

	inRun := false
	for i, v := range values {
		nonzero := math.Abs(v) > zeroTolerance
		if nonzero && !inRun {
			startIndices = append(startIndices, i)
			inRun = true
		}
		if !nonzero && inRun {
			endIndices = append(endIndices, i-1)
			inRun = false
		}
	}
	if inRun {
		endIndices = append(endIndices, len(values)-1)
	}
	return startIndices, endIndices
}

// FindCloudLayers detects cloud layers in every example of the set. A
// candidate layer is a maximal run of grid levels with nonzero water
// content, found by differencing the upward liquid- (or, with forIce,
// ice-) water-path profile; the run counts as a cloud layer when the
// water path across it reaches minPathKgM02 (inclusive). It returns an
// N-by-H mask, true at every level belonging to a cloud layer, and the
// per-example layer counts.
func FindCloudLayers(set *examples.ExampleSet, minPathKgM02 float64, forIce bool) ([][]bool, []int, error) {
	if minPathKgM02 <= 0 {
		return nil, nil, errors.Errorf("minimum cloud path must be positive, got %f kg/m^2", minPathKgM02)
	}

	fieldName := examples.UpwardLiquidWaterPathName
	if forIce {
		fieldName = examples.UpwardIceWaterPathName
	}
	path, err := set.Field(fieldName)
	if err != nil {
		return nil, nil, err
	}

	numExamples, numHeights := path.Shape[0], path.Shape[1]
	mask := make([][]bool, numExamples)
	counts := make([]int, numExamples)
	content := make([]float64, numHeights)

	for i := 0; i < numExamples; i++ {
		mask[i] = make([]bool, numHeights)

		// Per-layer water path: difference of the upward cumulative
		// path, with the bottom value kept as is.
		prev := 0.
		for h := 0; h < numHeights; h++ {
			cur := path.Get(i, h)
			content[h] = cur - prev
			prev = cur
		}

		startIndices, endIndices := NonzeroRuns(content)
		for r := range startIndices {
			layerPath := 0.
			for h := startIndices[r]; h <= endIndices[r]; h++ {
				layerPath += content[h]
			}
			if layerPath < minPathKgM02 {
				continue
			}
			for h := startIndices[r]; h <= endIndices[r]; h++ {
				mask[i][h] = true
			}
			counts[i]++
		}
	}
	return mask, counts, nil
}
