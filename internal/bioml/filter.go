// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package bioml

import "math"

// Thresholds is the score filter applied to match records.
// Both bounds are inclusive.
type Thresholds struct {
	MaxExpect     float64
	MinHyperscore float64
}

// DefaultThresholds accepts every record with a non-negative hyperscore
func DefaultThresholds() Thresholds {
	return Thresholds{MaxExpect: math.MaxFloat64, MinHyperscore: 0}
}

// Pass reports whether rec satisfies both thresholds
func (t Thresholds) Pass(rec MatchRecord) bool {
	return rec.Expect <= t.MaxExpect && rec.Hyperscore >= t.MinHyperscore
}
