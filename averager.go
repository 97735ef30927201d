// Command averager composites many learning examples into one: it reads
// examples from NetCDF files, optionally restricts them to a desired
// set of example IDs or a random sample, averages them (arithmetically
// or with probability matching), and writes the one-example result.
package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/rtm0/ml4sw/internal/examples"
	"github.com/rtm0/ml4sw/internal/exampleio"
)

var (
	inputFile = flag.String("inputFile", "", "path to a NetCDF example file (single-file mode)")
	numKeep   = flag.Int("numExamples", -1, "number of examples to sample in single-file mode; non-positive keeps all")

	exampleDir = flag.String("exampleDir", "", "directory with learning_examples_<year>.nc files (specific-ID mode)")
	idFile     = flag.String("idFile", "", "path to a NetCDF file with the desired example IDs (specific-ID mode)")

	usePMM        = flag.Bool("usePMM", false, "use probability-matched means for vertical profiles")
	maxPercentile = flag.Float64("maxPercentile", examples.DefaultMaxPercentile, "max percentile level for probability-matched means")
	outputFile    = flag.String("outputFile", "", "path to the output NetCDF file")
	concurrency   = flag.Int("concurrency", runtime.NumCPU(), "number of example files read concurrently")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *outputFile == "" {
		logger.Error("-outputFile is required")
		os.Exit(1)
	}
	if (*inputFile == "") == (*exampleDir == "" || *idFile == "") {
		logger.Error("Use either -inputFile or both -exampleDir and -idFile")
		os.Exit(1)
	}

	var set *examples.ExampleSet
	var err error
	if *inputFile != "" {
		set, err = readSingleFile(logger)
	} else {
		set, err = readByIDs(logger)
	}
	if err != nil {
		logger.Error("Could not read examples", "err", err)
		os.Exit(1)
	}

	logger.Info("Averaging examples", "count", set.NumExamples(), "usePMM", *usePMM)
	mean, err := set.Average(*usePMM, *maxPercentile)
	if err != nil {
		logger.Error("Could not average examples", "err", err)
		os.Exit(1)
	}

	if err := exampleio.Write(*outputFile, mean); err != nil {
		logger.Error("Could not write mean example", "file", *outputFile, "err", err)
		os.Exit(1)
	}
	logger.Info("Wrote mean example", "file", *outputFile)
}

// readSingleFile reads one example file and, when requested, keeps a
// random sample of its examples.
func readSingleFile(logger *slog.Logger) (*examples.ExampleSet, error) {
	logger.Info("Reading examples", "file", *inputFile)
	set, err := exampleio.Read(*inputFile)
	if err != nil {
		return nil, err
	}

	n := set.NumExamples()
	if *numKeep <= 0 || *numKeep >= n {
		return set, nil
	}
	return set.SubsetByIndex(rand.Perm(n)[:*numKeep])
}

// readByIDs joins examples across yearly files: the desired IDs' valid
// times bound the file search, the files are read concurrently, and the
// concatenated set is subset to exactly the desired IDs.
func readByIDs(logger *slog.Logger) (*examples.ExampleSet, error) {
	logger.Info("Reading desired example IDs", "file", *idFile)
	desiredIDs, err := exampleio.ReadIDs(*idFile)
	if err != nil {
		return nil, err
	}
	if len(desiredIDs) == 0 {
		return nil, errors.Errorf("no example IDs in %s", *idFile)
	}
	meta, err := examples.ParseExampleIDs(desiredIDs)
	if err != nil {
		return nil, err
	}

	firstTime, lastTime := meta.ValidTimes[0], meta.ValidTimes[0]
	for _, t := range meta.ValidTimes[1:] {
		if t < firstTime {
			firstTime = t
		}
		if t > lastTime {
			lastTime = t
		}
	}
	paths, err := exampleio.FindMany(*exampleDir, firstTime, lastTime)
	if err != nil {
		return nil, err
	}

	sets := make([]*examples.ExampleSet, len(paths))
	readErrs := make([]error, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				logger.Info("Reading examples", "file", paths[i])
				sets[i], readErrs[i] = exampleio.Read(paths[i])
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	for _, err := range readErrs {
		if err != nil {
			return nil, err
		}
	}

	set, err := examples.Concat(sets)
	if err != nil {
		return nil, err
	}
	return subsetByIDs(set, desiredIDs)
}

// subsetByIDs restricts the set to the desired example IDs, in the
// desired order. The ID strings stored in the files are the join keys;
// they are rederived from the metadata fields only when the files carry
// none.
func subsetByIDs(set *examples.ExampleSet, desiredIDs []string) (*examples.ExampleSet, error) {
	allIDs := set.ExampleIDs
	if len(allIDs) == 0 {
		var err error
		if allIDs, err = set.CreateExampleIDs(); err != nil {
			return nil, err
		}
	}
	indices, err := examples.FindExamples(allIDs, desiredIDs, false)
	if err != nil {
		return nil, err
	}
	return set.SubsetByIndex(indices)
}
