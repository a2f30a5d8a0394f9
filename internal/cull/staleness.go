// Package cull identifies old, inactive, poorly refined backlog issues that
// are candidates for removal.
package cull

import (
	"math"

	"github.com/refinekit/refine/internal/config"
)

// Staleness combines issue age, inactivity, and readiness into a score in
// [0, 100]; higher means more stale. The score rises monotonically with age
// and inactivity and falls with readiness: a fresh, active, fully ready
// issue scores 0.
//
// Each input is normalized against a configured ceiling and contributes a
// fixed weight; readiness contributes its weight scaled by how unready the
// issue is.
func Staleness(ageDays, inactivityDays, dorPercentage int, w config.StalenessConfig) int {
	age := normalize(ageDays, w.AgeCeilingDays) * w.AgeWeight
	inactivity := normalize(inactivityDays, w.InactivityCeilingDays) * w.InactivityWeight
	unready := float64(clamp(100-dorPercentage, 0, 100)) / 100 * w.RefinementWeight

	return clamp(int(math.Round(age+inactivity+unready)), 0, 100)
}

func normalize(value, ceiling int) float64 {
	if value <= 0 {
		return 0
	}
	if ceiling <= 0 || value >= ceiling {
		return 1
	}
	return float64(value) / float64(ceiling)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
