// Package exampleio reads and writes example sets as NetCDF files: one
// self-describing variable per field, dimensioned by example count and
// height-grid length.
package exampleio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/ctessum/sparse"
	"github.com/pkg/errors"

	"github.com/rtm0/ml4sw/internal/examples"
)

// Coordinate and metadata variable names. Everything else in a file
// must be a known predictor or target field.
const (
	heightsVar    = "height_m_agl"
	validTimesVar = "valid_time_unix_sec"
	atmoFlagsVar  = "standard_atmo_flag"
	exampleIDsVar = "example_id_strings"
)

// Dimension names.
const (
	exampleDim = "example"
	heightDim  = "height"
)

// Write writes the example set to a NetCDF file at the given path.
func Write(path string, set *examples.ExampleSet) error {
	if err := set.Validate(); err != nil {
		return errors.Wrap(err, "refusing to write inconsistent example set")
	}

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return err
	}
	if err := writeSet(cw, set); err != nil {
		cw.Close()
		return err
	}
	return cw.Close()
}

func writeSet(cw *cdf.CDFWriter, set *examples.ExampleSet) error {
	if len(set.Heights) > 0 {
		err := cw.AddVar(heightsVar, api.Variable{
			Values:     append([]float64(nil), set.Heights...),
			Dimensions: []string{heightDim},
		})
		if err != nil {
			return err
		}
	}
	if len(set.ValidTimes) > 0 {
		err := cw.AddVar(validTimesVar, api.Variable{
			Values:     append([]int64(nil), set.ValidTimes...),
			Dimensions: []string{exampleDim},
		})
		if err != nil {
			return err
		}
	}
	if len(set.StandardAtmoFlags) > 0 {
		flags := make([]int32, len(set.StandardAtmoFlags))
		for i, f := range set.StandardAtmoFlags {
			flags[i] = int32(f)
		}
		err := cw.AddVar(atmoFlagsVar, api.Variable{
			Values:     flags,
			Dimensions: []string{exampleDim},
		})
		if err != nil {
			return err
		}
	}
	if len(set.ExampleIDs) > 0 {
		err := cw.AddVar(exampleIDsVar, api.Variable{
			Values:     append([]string(nil), set.ExampleIDs...),
			Dimensions: []string{exampleDim},
		})
		if err != nil {
			return err
		}
	}

	if err := writeScalarBlock(cw, set.ScalarPredictors); err != nil {
		return err
	}
	if err := writeScalarBlock(cw, set.ScalarTargets); err != nil {
		return err
	}
	if err := writeVectorBlock(cw, set.VectorPredictors); err != nil {
		return err
	}
	if err := writeVectorBlock(cw, set.VectorTargets); err != nil {
		return err
	}
	return nil
}

func writeScalarBlock(cw *cdf.CDFWriter, block examples.FieldBlock) error {
	if !block.Present() {
		return nil
	}
	n := block.Values.Shape[0]
	for c, name := range block.Names {
		column := make([]float64, n)
		for i := 0; i < n; i++ {
			column[i] = block.Values.Get(i, c)
		}
		err := cw.AddVar(name, api.Variable{
			Values:     column,
			Dimensions: []string{exampleDim},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeVectorBlock(cw *cdf.CDFWriter, block examples.FieldBlock) error {
	if !block.Present() {
		return nil
	}
	n, numHeights := block.Values.Shape[0], block.Values.Shape[1]
	for c, name := range block.Names {
		profile := make([][]float64, n)
		for i := 0; i < n; i++ {
			profile[i] = make([]float64, numHeights)
			for h := 0; h < numHeights; h++ {
				profile[i][h] = block.Values.Get(i, h, c)
			}
		}
		err := cw.AddVar(name, api.Variable{
			Values:     profile,
			Dimensions: []string{exampleDim, heightDim},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Read reads an example set from a NetCDF file. Variables are
// classified into the four field categories by the known field-name
// registries; an unrecognized variable is an error.
func Read(path string) (*examples.ExampleSet, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	set := &examples.ExampleSet{}
	var scalarPredictors, vectorPredictors, scalarTargets, vectorTargets []string

	for _, name := range nc.ListVariables() {
		switch {
		case name == heightsVar:
			if set.Heights, err = varValues[[]float64](nc, name); err != nil {
				return nil, err
			}
		case name == validTimesVar:
			if set.ValidTimes, err = varValues[[]int64](nc, name); err != nil {
				return nil, err
			}
		case name == atmoFlagsVar:
			flags, err := varValues[[]int32](nc, name)
			if err != nil {
				return nil, err
			}
			set.StandardAtmoFlags = make([]int, len(flags))
			for i, f := range flags {
				set.StandardAtmoFlags[i] = int(f)
			}
		case name == exampleIDsVar:
			if set.ExampleIDs, err = varValues[[]string](nc, name); err != nil {
				return nil, err
			}
		case nameIn(name, examples.AllScalarPredictorNames):
			scalarPredictors = append(scalarPredictors, name)
		case nameIn(name, examples.AllVectorPredictorNames):
			vectorPredictors = append(vectorPredictors, name)
		case nameIn(name, examples.AllScalarTargetNames):
			scalarTargets = append(scalarTargets, name)
		case nameIn(name, examples.AllVectorTargetNames):
			vectorTargets = append(vectorTargets, name)
		default:
			return nil, errors.Errorf("unrecognized variable %q in %s", name, path)
		}
	}

	if set.ScalarPredictors, err = readScalarBlock(nc, scalarPredictors); err != nil {
		return nil, err
	}
	if set.ScalarTargets, err = readScalarBlock(nc, scalarTargets); err != nil {
		return nil, err
	}
	if set.VectorPredictors, err = readVectorBlock(nc, vectorPredictors); err != nil {
		return nil, err
	}
	if set.VectorTargets, err = readVectorBlock(nc, vectorTargets); err != nil {
		return nil, err
	}

	if err := set.Validate(); err != nil {
		return nil, errors.Wrapf(err, "inconsistent example set in %s", path)
	}
	return set, nil
}

func nameIn(name string, names []string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func varValues[T any](nc api.Group, name string) (T, error) {
	var zero T
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return zero, err
	}
	v, err := vg.Values()
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("variable %q has unexpected type %T", name, v)
	}
	return typed, nil
}

func readScalarBlock(nc api.Group, names []string) (examples.FieldBlock, error) {
	if len(names) == 0 {
		return examples.FieldBlock{}, nil
	}

	var values *sparse.DenseArray
	for c, name := range names {
		column, err := varValues[[]float64](nc, name)
		if err != nil {
			return examples.FieldBlock{}, err
		}
		if values == nil {
			values = sparse.ZerosDense(len(column), len(names))
		}
		if len(column) != values.Shape[0] {
			return examples.FieldBlock{}, errors.Errorf(
				"variable %q has %d examples, want %d", name, len(column), values.Shape[0],
			)
		}
		for i, v := range column {
			values.Set(v, i, c)
		}
	}
	return examples.FieldBlock{Names: names, Values: values}, nil
}

func readVectorBlock(nc api.Group, names []string) (examples.FieldBlock, error) {
	if len(names) == 0 {
		return examples.FieldBlock{}, nil
	}

	var values *sparse.DenseArray
	for c, name := range names {
		profile, err := varValues[[][]float64](nc, name)
		if err != nil {
			return examples.FieldBlock{}, err
		}
		if len(profile) == 0 {
			return examples.FieldBlock{}, errors.Errorf("variable %q has no examples", name)
		}
		if values == nil {
			values = sparse.ZerosDense(len(profile), len(profile[0]), len(names))
		}
		if len(profile) != values.Shape[0] || len(profile[0]) != values.Shape[1] {
			return examples.FieldBlock{}, errors.Errorf(
				"variable %q has shape %dx%d, want %dx%d",
				name, len(profile), len(profile[0]), values.Shape[0], values.Shape[1],
			)
		}
		for i, row := range profile {
			for h, v := range row {
				values.Set(v, i, h, c)
			}
		}
	}
	return examples.FieldBlock{Names: names, Values: values}, nil
}

// ReadIDs reads just the example-ID strings from a NetCDF file.
func ReadIDs(path string) ([]string, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()
	return varValues[[]string](nc, exampleIDsVar)
}

// FindMany returns the paths of yearly example files in dir covering
// the inclusive time range. Only files that exist are returned; an
// empty result is an error.
func FindMany(dir string, firstTime, lastTime int64) ([]string, error) {
	if firstTime > lastTime {
		return nil, errors.Errorf("first time %d is after last time %d", firstTime, lastTime)
	}

	firstYear := time.Unix(firstTime, 0).UTC().Year()
	lastYear := time.Unix(lastTime, 0).UTC().Year()

	var paths []string
	for year := firstYear; year <= lastYear; year++ {
		path := filepath.Join(dir, fmt.Sprintf("learning_examples_%04d.nc", year))
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil, errors.Errorf(
			"no example files in %s for years %04d-%04d", dir, firstYear, lastYear,
		)
	}
	return paths, nil
}
