package cull

import (
	"testing"

	"github.com/refinekit/refine/internal/config"
)

func defaultWeights() config.StalenessConfig {
	return config.StalenessConfig{
		AgeCeilingDays:        365,
		InactivityCeilingDays: 180,
		AgeWeight:             40,
		InactivityWeight:      40,
		RefinementWeight:      20,
	}
}

func TestStalenessFreshReadyIssueIsZero(t *testing.T) {
	if got := Staleness(0, 0, 100, defaultWeights()); got != 0 {
		t.Errorf("Staleness(0, 0, 100) = %d, want 0", got)
	}
}

func TestStalenessBounds(t *testing.T) {
	tests := []struct {
		name                        string
		age, inactivity, refinement int
	}{
		{"All maxed", 10000, 10000, 0},
		{"Way past ceilings", 100000, 100000, 0},
		{"Negative inputs clamp", -5, -5, 100},
		{"Refinement above 100", 0, 0, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Staleness(tt.age, tt.inactivity, tt.refinement, defaultWeights())
			if got < 0 || got > 100 {
				t.Errorf("Staleness(%d, %d, %d) = %d, out of [0,100]",
					tt.age, tt.inactivity, tt.refinement, got)
			}
		})
	}
}

func TestStalenessMonotonic(t *testing.T) {
	w := defaultWeights()

	// Non-decreasing in age.
	prev := -1
	for age := 0; age <= 400; age += 40 {
		got := Staleness(age, 30, 50, w)
		if got < prev {
			t.Fatalf("staleness decreased with age: age=%d score=%d prev=%d", age, got, prev)
		}
		prev = got
	}

	// Non-decreasing in inactivity.
	prev = -1
	for inactivity := 0; inactivity <= 200; inactivity += 20 {
		got := Staleness(100, inactivity, 50, w)
		if got < prev {
			t.Fatalf("staleness decreased with inactivity: inactivity=%d score=%d prev=%d", inactivity, got, prev)
		}
		prev = got
	}

	// Non-increasing in readiness.
	prev = 101
	for dor := 0; dor <= 100; dor += 10 {
		got := Staleness(100, 30, dor, w)
		if got > prev {
			t.Fatalf("staleness increased with readiness: dor=%d score=%d prev=%d", dor, got, prev)
		}
		prev = got
	}
}

func TestStalenessFullyStale(t *testing.T) {
	// At or past every ceiling with zero readiness the score is the weight
	// total, clamped to 100.
	if got := Staleness(365, 180, 0, defaultWeights()); got != 100 {
		t.Errorf("Staleness(365, 180, 0) = %d, want 100", got)
	}
}
