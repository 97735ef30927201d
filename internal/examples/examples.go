// Package examples defines the in-memory model for atmospheric learning
// examples: N profiles, each with scalar and height-resolved predictor
// and target fields, plus valid times, standard-atmosphere flags and
// canonical example IDs. All operations are pure; they deep-copy their
// input and never mutate a set in place.
package examples

import (
	"math"

	"github.com/ctessum/sparse"
	"github.com/pkg/errors"
)

// HeightTolerance is the maximum difference, in meters, for two height
// values to be considered the same grid level.
const HeightTolerance = 0.5

// FieldBlock binds an ordered field-name list to its value matrix. The
// matrix's last axis is the field channel, so name i always describes
// channel i; the two can only be updated together.
type FieldBlock struct {
	Names  []string
	Values *sparse.DenseArray
}

// Present reports whether the block carries any data. A set read from a
// targets-only or predictors-only file leaves the other blocks empty.
func (b FieldBlock) Present() bool {
	return b.Values != nil
}

// NumFields returns the number of field channels in the block.
func (b FieldBlock) NumFields() int {
	return len(b.Names)
}

func (b FieldBlock) index(name string) int {
	for i, n := range b.Names {
		if n == name {
			return i
		}
	}
	return -1
}

func (b FieldBlock) copy() FieldBlock {
	if !b.Present() {
		return FieldBlock{}
	}
	return FieldBlock{
		Names:  append([]string(nil), b.Names...),
		Values: b.Values.Copy(),
	}
}

func (b FieldBlock) validate(category string, numExamples, numHeights int) error {
	if !b.Present() {
		if len(b.Names) > 0 {
			return errors.Errorf("%s: %d field names but no value matrix", category, len(b.Names))
		}
		return nil
	}

	shape := b.Values.Shape
	wantDims := 2
	if numHeights >= 0 {
		wantDims = 3
	}
	if len(shape) != wantDims {
		return errors.Errorf("%s: want %d-dimensional matrix, got shape %v", category, wantDims, shape)
	}
	if shape[0] != numExamples {
		return errors.Errorf(
			"%s: matrix has %d examples, set has %d", category, shape[0], numExamples,
		)
	}
	if numHeights >= 0 && shape[1] != numHeights {
		return errors.Errorf(
			"%s: matrix has %d heights, set has %d", category, shape[1], numHeights,
		)
	}
	if shape[len(shape)-1] != len(b.Names) {
		return errors.Errorf(
			"%s: matrix has %d channels but %d field names",
			category, shape[len(shape)-1], len(b.Names),
		)
	}

	seen := make(map[string]bool, len(b.Names))
	for _, n := range b.Names {
		if seen[n] {
			return errors.Errorf("%s: duplicate field name %q", category, n)
		}
		seen[n] = true
	}
	return nil
}

// ExampleSet is a collection of N learning examples sharing one height
// grid. The four field blocks are optional; Heights must be present
// whenever a vector block is. ValidTimes, StandardAtmoFlags and
// ExampleIDs are optional per-example metadata.
type ExampleSet struct {
	ScalarPredictors FieldBlock // N x S
	VectorPredictors FieldBlock // N x H x V
	ScalarTargets    FieldBlock // N x T
	VectorTargets    FieldBlock // N x H x U

	Heights           []float64 // m AGL, one per grid level
	ValidTimes        []int64   // Unix seconds
	StandardAtmoFlags []int
	ExampleIDs        []string
}

// NumExamples returns N, the number of examples in the set.
func (s *ExampleSet) NumExamples() int {
	for _, b := range []FieldBlock{
		s.ScalarPredictors, s.VectorPredictors, s.ScalarTargets, s.VectorTargets,
	} {
		if b.Present() {
			return b.Values.Shape[0]
		}
	}
	return len(s.ValidTimes)
}

// NumHeights returns H, the number of levels in the height grid.
func (s *ExampleSet) NumHeights() int {
	return len(s.Heights)
}

// Validate checks the structural invariants: consistent leading and
// height dimensions, name lists matching channel counts with no
// duplicates, and a strictly increasing height grid. It is meant to be
// called when a set is first assembled; subsetting operations may
// produce height grids in caller-requested order.
func (s *ExampleSet) Validate() error {
	n := s.NumExamples()

	if err := s.ScalarPredictors.validate("scalar predictors", n, -1); err != nil {
		return err
	}
	if err := s.VectorPredictors.validate("vector predictors", n, s.NumHeights()); err != nil {
		return err
	}
	if err := s.ScalarTargets.validate("scalar targets", n, -1); err != nil {
		return err
	}
	if err := s.VectorTargets.validate("vector targets", n, s.NumHeights()); err != nil {
		return err
	}

	if (s.VectorPredictors.Present() || s.VectorTargets.Present()) && s.NumHeights() == 0 {
		return errors.New("vector fields present but no height grid")
	}
	for i := 1; i < len(s.Heights); i++ {
		if s.Heights[i] <= s.Heights[i-1] {
			return errors.Errorf(
				"heights must be strictly increasing; found %f after %f at level %d",
				s.Heights[i], s.Heights[i-1], i,
			)
		}
	}

	if len(s.ValidTimes) > 0 && len(s.ValidTimes) != n {
		return errors.Errorf("%d valid times for %d examples", len(s.ValidTimes), n)
	}
	if len(s.StandardAtmoFlags) > 0 && len(s.StandardAtmoFlags) != n {
		return errors.Errorf("%d atmosphere flags for %d examples", len(s.StandardAtmoFlags), n)
	}
	if len(s.ExampleIDs) > 0 && len(s.ExampleIDs) != n {
		return errors.Errorf("%d example IDs for %d examples", len(s.ExampleIDs), n)
	}
	return nil
}

// Copy returns a deep copy of the set. The copy shares no storage with
// the original.
func (s *ExampleSet) Copy() *ExampleSet {
	out := &ExampleSet{
		ScalarPredictors: s.ScalarPredictors.copy(),
		VectorPredictors: s.VectorPredictors.copy(),
		ScalarTargets:    s.ScalarTargets.copy(),
		VectorTargets:    s.VectorTargets.copy(),
	}
	if s.Heights != nil {
		out.Heights = append([]float64(nil), s.Heights...)
	}
	if s.ValidTimes != nil {
		out.ValidTimes = append([]int64(nil), s.ValidTimes...)
	}
	if s.StandardAtmoFlags != nil {
		out.StandardAtmoFlags = append([]int(nil), s.StandardAtmoFlags...)
	}
	if s.ExampleIDs != nil {
		out.ExampleIDs = append([]string(nil), s.ExampleIDs...)
	}
	return out
}

// HeightIndex returns the grid level whose height matches the given one
// within HeightTolerance.
func (s *ExampleSet) HeightIndex(heightMAGL float64) (int, error) {
	for i, h := range s.Heights {
		if math.Abs(h-heightMAGL) <= HeightTolerance {
			return i, nil
		}
	}
	return 0, errors.Errorf("height %f m AGL not found in grid", heightMAGL)
}

// Field returns the values of one field: a 1-D array of length N for a
// scalar field, or a 2-D N-by-H array for a vector field.
func (s *ExampleSet) Field(name string) (*sparse.DenseArray, error) {
	if c := s.ScalarPredictors.index(name); c >= 0 {
		return scalarColumn(s.ScalarPredictors.Values, c), nil
	}
	if c := s.ScalarTargets.index(name); c >= 0 {
		return scalarColumn(s.ScalarTargets.Values, c), nil
	}
	if c := s.VectorPredictors.index(name); c >= 0 {
		return vectorChannel(s.VectorPredictors.Values, c), nil
	}
	if c := s.VectorTargets.index(name); c >= 0 {
		return vectorChannel(s.VectorTargets.Values, c), nil
	}
	return nil, errors.Errorf("field %q not found in example set", name)
}

// FieldAtHeight returns one value per example for the given field. For a
// vector field the value is taken at the grid level matching
// heightMAGL; a scalar field has no height axis and is returned as is.
func (s *ExampleSet) FieldAtHeight(name string, heightMAGL float64) ([]float64, error) {
	values, err := s.Field(name)
	if err != nil {
		return nil, err
	}

	if len(values.Shape) == 1 {
		return append([]float64(nil), values.Elements...), nil
	}

	level, err := s.HeightIndex(heightMAGL)
	if err != nil {
		return nil, errors.Wrapf(err, "field %q", name)
	}
	out := make([]float64, values.Shape[0])
	for i := range out {
		out[i] = values.Get(i, level)
	}
	return out, nil
}

// SetVectorTarget returns a copy of the set with the named vector
// target replaced, or appended as a new channel if absent. The values
// must be an N-by-H array on the set's height grid.
func (s *ExampleSet) SetVectorTarget(name string, values *sparse.DenseArray) (*ExampleSet, error) {
	if len(values.Shape) != 2 {
		return nil, errors.Errorf("vector target %q: want 2-dimensional values, got shape %v", name, values.Shape)
	}
	n, numHeights := values.Shape[0], values.Shape[1]
	if s.VectorTargets.Present() && s.NumExamples() != n {
		return nil, errors.Errorf(
			"vector target %q: values have %d examples, set has %d", name, n, s.NumExamples(),
		)
	}
	if s.NumHeights() != numHeights {
		return nil, errors.Errorf(
			"vector target %q: values have %d heights, set has %d", name, numHeights, s.NumHeights(),
		)
	}

	out := s.Copy()
	if !out.VectorTargets.Present() {
		out.VectorTargets = FieldBlock{
			Names:  []string{name},
			Values: sparse.ZerosDense(n, numHeights, 1),
		}
		for i := 0; i < n; i++ {
			for h := 0; h < numHeights; h++ {
				out.VectorTargets.Values.Set(values.Get(i, h), i, h, 0)
			}
		}
		return out, nil
	}

	channel := out.VectorTargets.index(name)
	if channel < 0 {
		oldValues := out.VectorTargets.Values
		numFields := oldValues.Shape[2]
		grown := sparse.ZerosDense(n, numHeights, numFields+1)
		for i := 0; i < n; i++ {
			for h := 0; h < numHeights; h++ {
				for c := 0; c < numFields; c++ {
					grown.Set(oldValues.Get(i, h, c), i, h, c)
				}
			}
		}
		out.VectorTargets.Names = append(out.VectorTargets.Names, name)
		out.VectorTargets.Values = grown
		channel = numFields
	}
	for i := 0; i < n; i++ {
		for h := 0; h < numHeights; h++ {
			out.VectorTargets.Values.Set(values.Get(i, h), i, h, channel)
		}
	}
	return out, nil
}

func scalarColumn(values *sparse.DenseArray, channel int) *sparse.DenseArray {
	out := sparse.ZerosDense(values.Shape[0])
	for i := 0; i < values.Shape[0]; i++ {
		out.Elements[i] = values.Get(i, channel)
	}
	return out
}

func vectorChannel(values *sparse.DenseArray, channel int) *sparse.DenseArray {
	out := sparse.ZerosDense(values.Shape[0], values.Shape[1])
	for i := 0; i < values.Shape[0]; i++ {
		for h := 0; h < values.Shape[1]; h++ {
			out.Set(values.Get(i, h, channel), i, h)
		}
	}
	return out
}
