// Package radiation converts between shortwave flux profiles and the
// derived quantities used as training targets: heating-rate profiles
// and per-grid-cell flux increments.
package radiation

import (
	"math"

	"github.com/ctessum/sparse"
	"github.com/pkg/errors"

	"github.com/rtm0/ml4sw/internal/examples"
	"github.com/rtm0/ml4sw/internal/grids"
)

// Physical constants.
const (
	GravityMS02              = 9.80665 // standard gravity
	DryAirSpecificHeatJKg01K = 1004.   // cp of dry air at constant pressure
	DaysToSeconds            = 86400.
)

// FluxesToHeatingRate derives the shortwave heating rate (K/day) from
// the up/down flux and pressure profiles and returns a copy of the set
// with the heating rate as an additional vector target. Net flux and
// pressure are linearly extrapolated one level above the profile top,
// so every layer, the topmost included, uses the same finite-difference
// rule:
//
//	rate = 86400 * g / cp * dNet / |dP|
func FluxesToHeatingRate(set *examples.ExampleSet) (*examples.ExampleSet, error) {
	downFlux, err := set.Field(examples.DownFluxName)
	if err != nil {
		return nil, err
	}
	upFlux, err := set.Field(examples.UpFluxName)
	if err != nil {
		return nil, err
	}
	pressure, err := set.Field(examples.PressureName)
	if err != nil {
		return nil, err
	}

	numExamples, numHeights := downFlux.Shape[0], downFlux.Shape[1]
	if numHeights < 2 {
		return nil, errors.Errorf("need at least 2 height levels to difference fluxes, got %d", numHeights)
	}

	coeff := DaysToSeconds * GravityMS02 / DryAirSpecificHeatJKg01K
	heatingRate := sparse.ZerosDense(numExamples, numHeights)
	netFlux := make([]float64, numHeights+1)
	pressureExt := make([]float64, numHeights+1)

	for i := 0; i < numExamples; i++ {
		for h := 0; h < numHeights; h++ {
			netFlux[h] = downFlux.Get(i, h) - upFlux.Get(i, h)
			pressureExt[h] = pressure.Get(i, h)
		}
		netFlux[numHeights] = 2*netFlux[numHeights-1] - netFlux[numHeights-2]
		pressureExt[numHeights] = 2*pressureExt[numHeights-1] - pressureExt[numHeights-2]

		for h := 0; h < numHeights; h++ {
			rate := coeff * (netFlux[h+1] - netFlux[h]) /
				math.Abs(pressureExt[h+1]-pressureExt[h])
			heatingRate.Set(rate, i, h)
		}
	}
	return set.SetVectorTarget(examples.HeatingRateName, heatingRate)
}

// FluxesActualToIncrements converts the actual up/down flux profiles
// (W/m2) to per-grid-cell, width-normalized increments (W/m3) and
// returns a copy of the set carrying both representations: the
// increment fields are appended as vector targets and the actual fields
// are retained.
func FluxesActualToIncrements(set *examples.ExampleSet) (*examples.ExampleSet, error) {
	downFlux, err := set.Field(examples.DownFluxName)
	if err != nil {
		return nil, err
	}
	upFlux, err := set.Field(examples.UpFluxName)
	if err != nil {
		return nil, err
	}
	widths, err := cellWidths(set.Heights)
	if err != nil {
		return nil, err
	}

	out, err := set.SetVectorTarget(
		examples.DownFluxIncrementName, fluxToIncrements(downFlux, widths),
	)
	if err != nil {
		return nil, err
	}
	return out.SetVectorTarget(
		examples.UpFluxIncrementName, fluxToIncrements(upFlux, widths),
	)
}

// FluxesIncrementsToActual rebuilds the actual up/down flux profiles
// (W/m2) from the increment fields (W/m3) by accumulating
// width-weighted increments from the surface up. The increment fields
// stay in place; the actual fields are replaced (or added) with the
// rebuilt values, making the transform the inverse of
// FluxesActualToIncrements.
func FluxesIncrementsToActual(set *examples.ExampleSet) (*examples.ExampleSet, error) {
	downInc, err := set.Field(examples.DownFluxIncrementName)
	if err != nil {
		return nil, err
	}
	upInc, err := set.Field(examples.UpFluxIncrementName)
	if err != nil {
		return nil, err
	}
	widths, err := cellWidths(set.Heights)
	if err != nil {
		return nil, err
	}

	out, err := set.SetVectorTarget(
		examples.DownFluxName, incrementsToFlux(downInc, widths),
	)
	if err != nil {
		return nil, err
	}
	return out.SetVectorTarget(
		examples.UpFluxName, incrementsToFlux(upInc, widths),
	)
}

func cellWidths(heights []float64) ([]float64, error) {
	edges, err := grids.CellEdges(heights)
	if err != nil {
		return nil, err
	}
	return grids.CellWidths(edges)
}

func fluxToIncrements(flux *sparse.DenseArray, widths []float64) *sparse.DenseArray {
	numExamples, numHeights := flux.Shape[0], flux.Shape[1]
	out := sparse.ZerosDense(numExamples, numHeights)
	for i := 0; i < numExamples; i++ {
		prev := 0.
		for h := 0; h < numHeights; h++ {
			cur := flux.Get(i, h)
			out.Set((cur-prev)/widths[h], i, h)
			prev = cur
		}
	}
	return out
}

func incrementsToFlux(increments *sparse.DenseArray, widths []float64) *sparse.DenseArray {
	numExamples, numHeights := increments.Shape[0], increments.Shape[1]
	out := sparse.ZerosDense(numExamples, numHeights)
	for i := 0; i < numExamples; i++ {
		total := 0.
		for h := 0; h < numHeights; h++ {
			total += increments.Get(i, h) * widths[h]
			out.Set(total, i, h)
		}
	}
	return out
}
