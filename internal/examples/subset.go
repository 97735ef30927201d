package examples

import (
	"math"

	"github.com/ctessum/sparse"
	"github.com/pkg/errors"

	"github.com/rtm0/ml4sw/internal/grids"
)

// Concat concatenates several sets along the example axis. Every input
// must have the same height grid and, per category, the same field names
// in the same order; a mismatch is an error, never coerced.
func Concat(sets []*ExampleSet) (*ExampleSet, error) {
	if len(sets) == 0 {
		return nil, errors.New("no example sets to concatenate")
	}

	out := sets[0].Copy()
	for i, s := range sets[1:] {
		if err := compatible(sets[0], s); err != nil {
			return nil, errors.Wrapf(err, "example set %d", i+1)
		}

		out.ScalarPredictors.Values = concatLeading(out.ScalarPredictors.Values, s.ScalarPredictors.Values)
		out.VectorPredictors.Values = concatLeading(out.VectorPredictors.Values, s.VectorPredictors.Values)
		out.ScalarTargets.Values = concatLeading(out.ScalarTargets.Values, s.ScalarTargets.Values)
		out.VectorTargets.Values = concatLeading(out.VectorTargets.Values, s.VectorTargets.Values)
		out.ValidTimes = append(out.ValidTimes, s.ValidTimes...)
		out.StandardAtmoFlags = append(out.StandardAtmoFlags, s.StandardAtmoFlags...)
		out.ExampleIDs = append(out.ExampleIDs, s.ExampleIDs...)
	}
	return out, nil
}

func compatible(a, b *ExampleSet) error {
	if len(a.Heights) != len(b.Heights) {
		return errors.Errorf("height grids differ: %d vs %d levels", len(a.Heights), len(b.Heights))
	}
	for i := range a.Heights {
		if math.Abs(a.Heights[i]-b.Heights[i]) > HeightTolerance {
			return errors.Errorf(
				"height grids differ at level %d: %f vs %f m AGL",
				i, a.Heights[i], b.Heights[i],
			)
		}
	}

	pairs := []struct {
		category string
		first    FieldBlock
		second   FieldBlock
	}{
		{"scalar predictors", a.ScalarPredictors, b.ScalarPredictors},
		{"vector predictors", a.VectorPredictors, b.VectorPredictors},
		{"scalar targets", a.ScalarTargets, b.ScalarTargets},
		{"vector targets", a.VectorTargets, b.VectorTargets},
	}
	for _, p := range pairs {
		if p.first.Present() != p.second.Present() {
			return errors.Errorf("%s present in one set but not the other", p.category)
		}
		if len(p.first.Names) != len(p.second.Names) {
			return errors.Errorf(
				"%s field lists differ: %v vs %v", p.category, p.first.Names, p.second.Names,
			)
		}
		for i := range p.first.Names {
			if p.first.Names[i] != p.second.Names[i] {
				return errors.Errorf(
					"%s field lists differ: %v vs %v", p.category, p.first.Names, p.second.Names,
				)
			}
		}
	}

	if (len(a.ValidTimes) > 0) != (len(b.ValidTimes) > 0) {
		return errors.New("valid times present in one set but not the other")
	}
	if (len(a.StandardAtmoFlags) > 0) != (len(b.StandardAtmoFlags) > 0) {
		return errors.New("atmosphere flags present in one set but not the other")
	}
	if (len(a.ExampleIDs) > 0) != (len(b.ExampleIDs) > 0) {
		return errors.New("example IDs present in one set but not the other")
	}
	return nil
}

// concatLeading stacks b under a along the example axis. DenseArray
// storage is row-major, so this is a flat append of the elements.
func concatLeading(a, b *sparse.DenseArray) *sparse.DenseArray {
	if a == nil || b == nil {
		return a
	}
	shape := append([]int(nil), a.Shape...)
	shape[0] += b.Shape[0]
	out := sparse.ZerosDense(shape...)
	copy(out.Elements, a.Elements)
	copy(out.Elements[len(a.Elements):], b.Elements)
	return out
}

// SubsetByIndex selects examples by integer index, in the given order.
// Indices may repeat; each must be in [0, N).
func (s *ExampleSet) SubsetByIndex(indices []int) (*ExampleSet, error) {
	n := s.NumExamples()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, errors.Errorf("example index %d out of range [0, %d)", idx, n)
		}
	}

	out := &ExampleSet{
		ScalarPredictors: selectRowsBlock(s.ScalarPredictors, indices),
		VectorPredictors: selectRowsBlock(s.VectorPredictors, indices),
		ScalarTargets:    selectRowsBlock(s.ScalarTargets, indices),
		VectorTargets:    selectRowsBlock(s.VectorTargets, indices),
	}
	if s.Heights != nil {
		out.Heights = append([]float64(nil), s.Heights...)
	}
	if s.ValidTimes != nil {
		out.ValidTimes = make([]int64, len(indices))
		for i, idx := range indices {
			out.ValidTimes[i] = s.ValidTimes[idx]
		}
	}
	if s.StandardAtmoFlags != nil {
		out.StandardAtmoFlags = make([]int, len(indices))
		for i, idx := range indices {
			out.StandardAtmoFlags[i] = s.StandardAtmoFlags[idx]
		}
	}
	if s.ExampleIDs != nil {
		out.ExampleIDs = make([]string, len(indices))
		for i, idx := range indices {
			out.ExampleIDs[i] = s.ExampleIDs[idx]
		}
	}
	return out, nil
}

func selectRowsBlock(b FieldBlock, indices []int) FieldBlock {
	if !b.Present() {
		return FieldBlock{}
	}
	shape := append([]int(nil), b.Values.Shape...)
	shape[0] = len(indices)
	out := sparse.ZerosDense(shape...)

	rowSize := 1
	for _, d := range b.Values.Shape[1:] {
		rowSize *= d
	}
	for i, idx := range indices {
		copy(
			out.Elements[i*rowSize:(i+1)*rowSize],
			b.Values.Elements[idx*rowSize:(idx+1)*rowSize],
		)
	}
	return FieldBlock{Names: append([]string(nil), b.Names...), Values: out}
}

// SubsetByTime selects examples whose valid time lies in [first, last],
// inclusive. It returns the filtered set and the selected indices in
// original relative order.
func (s *ExampleSet) SubsetByTime(first, last int64) (*ExampleSet, []int, error) {
	if first > last {
		return nil, nil, errors.Errorf("first time %d is after last time %d", first, last)
	}
	if len(s.ValidTimes) == 0 {
		return nil, nil, errors.New("example set has no valid times")
	}

	indices := make([]int, 0, len(s.ValidTimes))
	for i, t := range s.ValidTimes {
		if t >= first && t <= last {
			indices = append(indices, i)
		}
	}
	out, err := s.SubsetByIndex(indices)
	if err != nil {
		return nil, nil, err
	}
	return out, indices, nil
}

// SubsetByStandardAtmo selects examples whose standard-atmosphere flag
// equals the given class. It returns the filtered set and the selected
// indices in original relative order.
func (s *ExampleSet) SubsetByStandardAtmo(atmoFlag int) (*ExampleSet, []int, error) {
	if len(s.StandardAtmoFlags) == 0 {
		return nil, nil, errors.New("example set has no standard-atmosphere flags")
	}

	indices := make([]int, 0, len(s.StandardAtmoFlags))
	for i, f := range s.StandardAtmoFlags {
		if f == atmoFlag {
			indices = append(indices, i)
		}
	}
	out, err := s.SubsetByIndex(indices)
	if err != nil {
		return nil, nil, err
	}
	return out, indices, nil
}

// SubsetByField projects the set onto exactly the requested fields.
// Within each category the surviving channels follow the order of the
// requested list, not the stored one. A requested field that exists in
// no category is an error.
func (s *ExampleSet) SubsetByField(fieldNames []string) (*ExampleSet, error) {
	out := s.Copy()

	blocks := []*FieldBlock{
		&out.ScalarPredictors, &out.VectorPredictors,
		&out.ScalarTargets, &out.VectorTargets,
	}
	for _, name := range fieldNames {
		found := false
		for _, b := range blocks {
			if b.index(name) >= 0 {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("field %q not found in example set", name)
		}
	}

	for _, b := range blocks {
		if !b.Present() {
			continue
		}
		var names []string
		var channels []int
		for _, name := range fieldNames {
			if c := b.index(name); c >= 0 {
				names = append(names, name)
				channels = append(channels, c)
			}
		}
		*b = selectChannelsBlock(*b, names, channels)
	}
	return out, nil
}

func selectChannelsBlock(b FieldBlock, names []string, channels []int) FieldBlock {
	shape := append([]int(nil), b.Values.Shape...)
	shape[len(shape)-1] = len(channels)
	out := sparse.ZerosDense(shape...)

	numRows := len(b.Values.Elements) / b.Values.Shape[len(b.Values.Shape)-1]
	oldStride := b.Values.Shape[len(b.Values.Shape)-1]
	for r := 0; r < numRows; r++ {
		for i, c := range channels {
			out.Elements[r*len(channels)+i] = b.Values.Elements[r*oldStride+c]
		}
	}
	if names == nil {
		names = []string{}
	}
	return FieldBlock{Names: names, Values: out}
}

// SubsetByHeight selects grid levels matching the desired heights, in
// the requested order. Desired heights above the real profile top are
// first synthesized with fake padding heights: vector predictors repeat
// their top value into the padding, vector targets are zero there (the
// top-of-atmosphere fill). A desired height that neither matches the
// grid nor is derivable by padding is an error.
func (s *ExampleSet) SubsetByHeight(heightsMAGL []float64) (*ExampleSet, error) {
	if len(heightsMAGL) == 0 {
		return nil, errors.New("no heights requested")
	}
	if s.NumHeights() == 0 {
		return nil, errors.New("example set has no height grid")
	}

	work := s
	if _, err := levelsFor(s, heightsMAGL); err != nil {
		maxDesired := heightsMAGL[0]
		for _, h := range heightsMAGL[1:] {
			maxDesired = math.Max(maxDesired, h)
		}
		top := s.Heights[s.NumHeights()-1]
		if maxDesired <= top {
			return nil, err
		}

		numPadding := int(math.Ceil((maxDesired - top) / grids.FakeHeightSpacing))
		padded, padErr := grids.FakeHeights(s.Heights, numPadding)
		if padErr != nil {
			return nil, padErr
		}
		work = padToHeights(s, padded)
	}

	levels, err := levelsFor(work, heightsMAGL)
	if err != nil {
		return nil, err
	}

	out := work.Copy()
	out.Heights = make([]float64, len(levels))
	for i, lev := range levels {
		out.Heights[i] = work.Heights[lev]
	}
	if out.VectorPredictors.Present() {
		out.VectorPredictors.Values = selectHeightLevels(work.VectorPredictors.Values, levels)
	}
	if out.VectorTargets.Present() {
		out.VectorTargets.Values = selectHeightLevels(work.VectorTargets.Values, levels)
	}
	return out, nil
}

func levelsFor(s *ExampleSet, heightsMAGL []float64) ([]int, error) {
	levels := make([]int, len(heightsMAGL))
	for i, h := range heightsMAGL {
		lev, err := s.HeightIndex(h)
		if err != nil {
			return nil, err
		}
		levels[i] = lev
	}
	return levels, nil
}

func selectHeightLevels(values *sparse.DenseArray, levels []int) *sparse.DenseArray {
	out := sparse.ZerosDense(values.Shape[0], len(levels), values.Shape[2])
	for i := 0; i < values.Shape[0]; i++ {
		for j, lev := range levels {
			for c := 0; c < values.Shape[2]; c++ {
				out.Set(values.Get(i, lev, c), i, j, c)
			}
		}
	}
	return out
}

// padToHeights extends the height axis of every vector block to the
// given padded grid. Predictor profiles repeat their topmost value into
// the padding; target profiles are zero there.
func padToHeights(s *ExampleSet, paddedHeights []float64) *ExampleSet {
	out := s.Copy()
	out.Heights = append([]float64(nil), paddedHeights...)
	if out.VectorPredictors.Present() {
		out.VectorPredictors.Values = padHeightAxis(
			s.VectorPredictors.Values, len(paddedHeights), true,
		)
	}
	if out.VectorTargets.Present() {
		out.VectorTargets.Values = padHeightAxis(
			s.VectorTargets.Values, len(paddedHeights), false,
		)
	}
	return out
}

func padHeightAxis(values *sparse.DenseArray, numHeights int, repeatEdge bool) *sparse.DenseArray {
	out := sparse.ZerosDense(values.Shape[0], numHeights, values.Shape[2])
	realHeights := values.Shape[1]
	for i := 0; i < values.Shape[0]; i++ {
		for c := 0; c < values.Shape[2]; c++ {
			for h := 0; h < realHeights; h++ {
				out.Set(values.Get(i, h, c), i, h, c)
			}
			if !repeatEdge {
				continue
			}
			top := values.Get(i, realHeights-1, c)
			for h := realHeights; h < numHeights; h++ {
				out.Set(top, i, h, c)
			}
		}
	}
	return out
}
