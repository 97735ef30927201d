package examples

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Height at which the near-surface temperature for example IDs is read.
const idTemperatureHeightMAGL = 10.

// IDMetadata holds the per-example fields recovered from example-ID
// strings by ParseExampleIDs.
type IDMetadata struct {
	Latitudes         []float64 // deg N
	Longitudes        []float64 // deg E
	ZenithAngles      []float64 // radians
	ValidTimes        []int64   // Unix seconds
	StandardAtmoFlags []int
	Temperatures10M   []float64 // Kelvins
}

// CreateExampleIDs derives the canonical ID string for each example
// from its latitude, longitude, zenith angle, valid time,
// standard-atmosphere flag and 10-m temperature. The strings sort by
// latitude and are stable under parse/format round trips at six decimal
// digits.
func (s *ExampleSet) CreateExampleIDs() ([]string, error) {
	latitudes, err := s.FieldAtHeight(LatitudeName, 0)
	if err != nil {
		return nil, err
	}
	longitudes, err := s.FieldAtHeight(LongitudeName, 0)
	if err != nil {
		return nil, err
	}
	zenithAngles, err := s.FieldAtHeight(ZenithAngleName, 0)
	if err != nil {
		return nil, err
	}
	temperatures, err := s.FieldAtHeight(TemperatureName, idTemperatureHeightMAGL)
	if err != nil {
		return nil, err
	}
	if len(s.ValidTimes) == 0 {
		return nil, errors.New("example set has no valid times")
	}
	if len(s.StandardAtmoFlags) == 0 {
		return nil, errors.New("example set has no standard-atmosphere flags")
	}

	ids := make([]string, s.NumExamples())
	for i := range ids {
		ids[i] = fmt.Sprintf(
			"lat=%.6f_long=%.6f_zenith-angle-rad=%.6f_time=%010d_atmo=%d_temp-10m-kelvins=%.6f",
			latitudes[i], longitudes[i], zenithAngles[i],
			s.ValidTimes[i], s.StandardAtmoFlags[i], temperatures[i],
		)
	}
	return ids, nil
}

// ParseExampleIDs is the exact inverse of CreateExampleIDs.
func ParseExampleIDs(idStrings []string) (*IDMetadata, error) {
	n := len(idStrings)
	meta := &IDMetadata{
		Latitudes:         make([]float64, n),
		Longitudes:        make([]float64, n),
		ZenithAngles:      make([]float64, n),
		ValidTimes:        make([]int64, n),
		StandardAtmoFlags: make([]int, n),
		Temperatures10M:   make([]float64, n),
	}

	for i, id := range idStrings {
		words := strings.Split(id, "_")
		if len(words) != 6 {
			return nil, errors.Errorf("malformed example ID %q: want 6 fields, got %d", id, len(words))
		}

		var err error
		if meta.Latitudes[i], err = idFloat(words[0], "lat"); err != nil {
			return nil, errors.Wrapf(err, "example ID %q", id)
		}
		if meta.Longitudes[i], err = idFloat(words[1], "long"); err != nil {
			return nil, errors.Wrapf(err, "example ID %q", id)
		}
		if meta.ZenithAngles[i], err = idFloat(words[2], "zenith-angle-rad"); err != nil {
			return nil, errors.Wrapf(err, "example ID %q", id)
		}
		if meta.ValidTimes[i], err = idInt(words[3], "time"); err != nil {
			return nil, errors.Wrapf(err, "example ID %q", id)
		}
		atmoFlag, err := idInt(words[4], "atmo")
		if err != nil {
			return nil, errors.Wrapf(err, "example ID %q", id)
		}
		meta.StandardAtmoFlags[i] = int(atmoFlag)
		if meta.Temperatures10M[i], err = idFloat(words[5], "temp-10m-kelvins"); err != nil {
			return nil, errors.Wrapf(err, "example ID %q", id)
		}
	}
	return meta, nil
}

func idValue(word, key string) (string, error) {
	prefix := key + "="
	if !strings.HasPrefix(word, prefix) {
		return "", errors.Errorf("want field %q, got %q", key, word)
	}
	return word[len(prefix):], nil
}

func idFloat(word, key string) (float64, error) {
	v, err := idValue(word, key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "field %q", key)
	}
	return f, nil
}

func idInt(word, key string) (int64, error) {
	v, err := idValue(word, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "field %q", key)
	}
	return n, nil
}

// FindExamples locates each desired ID in allIDs, returning one index
// per desired ID in the desired order. Duplicate IDs resolve to the
// first occurrence. A missing ID yields -1 when allowMissing is set and
// an error otherwise.
func FindExamples(allIDs, desiredIDs []string, allowMissing bool) ([]int, error) {
	position := make(map[string]int, len(allIDs))
	for i, id := range allIDs {
		if _, ok := position[id]; !ok {
			position[id] = i
		}
	}

	indices := make([]int, len(desiredIDs))
	var missing []string
	for i, id := range desiredIDs {
		pos, ok := position[id]
		if !ok {
			indices[i] = -1
			missing = append(missing, id)
			continue
		}
		indices[i] = pos
	}
	if len(missing) > 0 && !allowMissing {
		return nil, errors.Errorf(
			"%d of %d desired examples not found (first missing ID: %q)",
			len(missing), len(desiredIDs), missing[0],
		)
	}
	return indices, nil
}
