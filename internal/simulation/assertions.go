package simulation

import (
	"testing"

	"github.com/nvandessel/virusnet/internal/epidemic"
)

// AssertConserved asserts that every snapshot accounts for exactly n agents.
func AssertConserved(t *testing.T, history []epidemic.Snapshot, n int) {
	t.Helper()
	for _, s := range history {
		if s.Total() != n {
			t.Errorf("AssertConserved: step %d: I+S+R = %d, want %d", s.Step, s.Total(), n)
		}
	}
}

// AssertConsecutiveSteps asserts the history starts at step 0 and has no gaps.
func AssertConsecutiveSteps(t *testing.T, history []epidemic.Snapshot) {
	t.Helper()
	for i, s := range history {
		if s.Step != i {
			t.Errorf("AssertConsecutiveSteps: entry %d has step %d", i, s.Step)
		}
	}
}

// AssertInfectedNonIncreasing asserts the infected count never rises.
func AssertInfectedNonIncreasing(t *testing.T, history []epidemic.Snapshot) {
	t.Helper()
	for i := 1; i < len(history); i++ {
		if history[i].Infected > history[i-1].Infected {
			t.Errorf("AssertInfectedNonIncreasing: step %d: infected rose %d -> %d",
				history[i].Step, history[i-1].Infected, history[i].Infected)
		}
	}
}

// AssertResistantNonDecreasing asserts the resistant count never falls.
func AssertResistantNonDecreasing(t *testing.T, history []epidemic.Snapshot) {
	t.Helper()
	for i := 1; i < len(history); i++ {
		if history[i].Resistant < history[i-1].Resistant {
			t.Errorf("AssertResistantNonDecreasing: step %d: resistant fell %d -> %d",
				history[i].Step, history[i-1].Resistant, history[i].Resistant)
		}
	}
}

// AssertRatioSentinel asserts the ratio is +Inf exactly when no agent is
// susceptible and a finite nonnegative value otherwise.
func AssertRatioSentinel(t *testing.T, history []epidemic.Snapshot) {
	t.Helper()
	for _, s := range history {
		if s.Susceptible == 0 {
			if !s.Ratio.IsInf() {
				t.Errorf("AssertRatioSentinel: step %d: ratio %v with no susceptibles, want +Inf", s.Step, s.Ratio)
			}
			continue
		}
		if s.Ratio.IsInf() || s.Ratio < 0 {
			t.Errorf("AssertRatioSentinel: step %d: ratio %v with %d susceptibles, want finite >= 0", s.Step, s.Ratio, s.Susceptible)
		}
	}
}

// AssertMonotoneTransitions asserts no agent moved from resistant to another
// state or from susceptible straight to resistant between two state vectors.
func AssertMonotoneTransitions(t *testing.T, before, after []epidemic.State) {
	t.Helper()
	if len(before) != len(after) {
		t.Fatalf("AssertMonotoneTransitions: %d states before, %d after", len(before), len(after))
	}
	for i := range before {
		switch {
		case before[i] == epidemic.Resistant && after[i] != epidemic.Resistant:
			t.Errorf("AssertMonotoneTransitions: node %d left resistant for %v", i, after[i])
		case before[i] == epidemic.Susceptible && after[i] == epidemic.Resistant:
			t.Errorf("AssertMonotoneTransitions: node %d went susceptible -> resistant", i)
		}
	}
}

// AssertSameHistory asserts two runs produced identical series.
func AssertSameHistory(t *testing.T, a, b []epidemic.Snapshot) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("AssertSameHistory: lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("AssertSameHistory: entry %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
