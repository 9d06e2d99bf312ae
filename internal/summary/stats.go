// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package summary

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/524D/tparty/internal/bioml"
)

// ScoreStats collects the scores of emitted records.
// Expectation values are kept as log10.
type ScoreStats struct {
	hyperscores []float64
	logExpects  []float64
}

// ScoreSummary describes the score distribution of a set of records
type ScoreSummary struct {
	N                int
	HyperscoreMean   float64
	HyperscoreStdDev float64
	HyperscoreMedian float64
	LogExpectMean    float64
	LogExpectMedian  float64
}

// Add records the scores of rec
func (s *ScoreStats) Add(rec bioml.MatchRecord) {
	s.hyperscores = append(s.hyperscores, rec.Hyperscore)
	if rec.Expect > 0 {
		s.logExpects = append(s.logExpects, math.Log10(rec.Expect))
	}
}

// Len returns the number of records added
func (s *ScoreStats) Len() int {
	return len(s.hyperscores)
}

// Summary computes the statistics. Fields are NaN when there is no data.
func (s *ScoreStats) Summary() ScoreSummary {
	sum := ScoreSummary{
		N:                s.Len(),
		HyperscoreMean:   math.NaN(),
		HyperscoreStdDev: math.NaN(),
		HyperscoreMedian: math.NaN(),
		LogExpectMean:    math.NaN(),
		LogExpectMedian:  math.NaN(),
	}
	if len(s.hyperscores) > 0 {
		sum.HyperscoreMean, sum.HyperscoreStdDev = stat.MeanStdDev(s.hyperscores, nil)
		sum.HyperscoreMedian = median(s.hyperscores)
	}
	if len(s.logExpects) > 0 {
		sum.LogExpectMean = stat.Mean(s.logExpects, nil)
		sum.LogExpectMedian = median(s.logExpects)
	}
	return sum
}

func median(v []float64) float64 {
	sorted := make([]float64, len(v))
	copy(sorted, v)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
