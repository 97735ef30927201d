package examples

import (
	"sort"

	"github.com/ctessum/sparse"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultMaxPercentile is the usual percentile cap for
// probability-matched means.
const DefaultMaxPercentile = 99.

// Average collapses the set to a single composite example. Scalar
// fields are always arithmetic means over the example axis. Vector
// fields are arithmetic means too unless usePMM is set, in which case
// each height profile is a probability-matched mean: the profile keeps
// the shape (value ranking) of the arithmetic mean but draws its values
// from the pooled empirical distribution of all examples at all
// heights, capped at maxPercentile. Valid times, atmosphere flags and
// IDs have no meaningful mean and are dropped.
func (s *ExampleSet) Average(usePMM bool, maxPercentile float64) (*ExampleSet, error) {
	if s.NumExamples() == 0 {
		return nil, errors.New("cannot average an empty example set")
	}
	if maxPercentile <= 0 || maxPercentile > 100 {
		return nil, errors.Errorf("max percentile level must be in (0, 100], got %f", maxPercentile)
	}

	out := &ExampleSet{
		ScalarPredictors: meanScalarBlock(s.ScalarPredictors),
		ScalarTargets:    meanScalarBlock(s.ScalarTargets),
		VectorPredictors: meanVectorBlock(s.VectorPredictors, usePMM, maxPercentile),
		VectorTargets:    meanVectorBlock(s.VectorTargets, usePMM, maxPercentile),
	}
	if s.Heights != nil {
		out.Heights = append([]float64(nil), s.Heights...)
	}
	return out, nil
}

func meanScalarBlock(b FieldBlock) FieldBlock {
	if !b.Present() {
		return FieldBlock{}
	}
	n, numFields := b.Values.Shape[0], b.Values.Shape[1]
	out := sparse.ZerosDense(1, numFields)
	for c := 0; c < numFields; c++ {
		sum := 0.
		for i := 0; i < n; i++ {
			sum += b.Values.Get(i, c)
		}
		out.Set(sum/float64(n), 0, c)
	}
	return FieldBlock{Names: append([]string(nil), b.Names...), Values: out}
}

func meanVectorBlock(b FieldBlock, usePMM bool, maxPercentile float64) FieldBlock {
	if !b.Present() {
		return FieldBlock{}
	}
	n, numHeights, numFields := b.Values.Shape[0], b.Values.Shape[1], b.Values.Shape[2]
	out := sparse.ZerosDense(1, numHeights, numFields)

	for c := 0; c < numFields; c++ {
		profiles := make([][]float64, n)
		for i := 0; i < n; i++ {
			profiles[i] = make([]float64, numHeights)
			for h := 0; h < numHeights; h++ {
				profiles[i][h] = b.Values.Get(i, h, c)
			}
		}

		var mean []float64
		if usePMM {
			mean = probabilityMatchedMean(profiles, maxPercentile)
		} else {
			mean = arithmeticMeanProfile(profiles)
		}
		for h := 0; h < numHeights; h++ {
			out.Set(mean[h], 0, h, c)
		}
	}
	return FieldBlock{Names: append([]string(nil), b.Names...), Values: out}
}

func arithmeticMeanProfile(profiles [][]float64) []float64 {
	numHeights := len(profiles[0])
	mean := make([]float64, numHeights)
	for _, p := range profiles {
		floats.Add(mean, p)
	}
	floats.Scale(1/float64(len(profiles)), mean)
	return mean
}

// probabilityMatchedMean composites an ensemble of profiles. The
// arithmetic-mean profile supplies the ranking of heights; the value at
// each height is then the pooled-ensemble percentile matching that
// rank, so the output preserves the ensemble's value distribution
// rather than its pointwise average.
func probabilityMatchedMean(profiles [][]float64, maxPercentile float64) []float64 {
	mean := arithmeticMeanProfile(profiles)
	numHeights := len(mean)

	pooled := make([]float64, 0, len(profiles)*numHeights)
	for _, p := range profiles {
		pooled = append(pooled, p...)
	}
	sort.Float64s(pooled)

	// Rank each height by its arithmetic-mean value, ties broken by
	// level order.
	order := make([]int, numHeights)
	for h := range order {
		order[h] = h
	}
	sort.SliceStable(order, func(a, b int) bool {
		return mean[order[a]] < mean[order[b]]
	})

	out := make([]float64, numHeights)
	for rank, h := range order {
		q := (maxPercentile / 100) * float64(rank+1) / float64(numHeights)
		out[h] = stat.Quantile(q, stat.Empirical, pooled, nil)
	}
	return out
}
