package epidemic

import (
	"encoding/json"
	"math"
	"math/rand"
	"strings"
	"testing"
)

func TestPopulation_Counts(t *testing.T) {
	pop := NewPopulation(6, Params{})
	mustInfect(t, pop, 1, 2)
	pop.agents[5].state = Resistant

	if got := pop.Infected(); got != 2 {
		t.Errorf("Infected() = %d, want 2", got)
	}
	if got := pop.Susceptible(); got != 3 {
		t.Errorf("Susceptible() = %d, want 3", got)
	}
	if got := pop.Resistant(); got != 1 {
		t.Errorf("Resistant() = %d, want 1", got)
	}
	if got := pop.ResistantSusceptibleRatio(); math.Abs(got-1.0/3.0) > 1e-12 {
		t.Errorf("ResistantSusceptibleRatio() = %v, want 1/3", got)
	}

	snap := pop.Snapshot(4)
	want := Snapshot{Step: 4, Infected: 2, Susceptible: 3, Resistant: 1, Ratio: Ratio(1.0 / 3.0)}
	if snap != want {
		t.Errorf("Snapshot(4) = %+v, want %+v", snap, want)
	}
	if snap.Total() != 6 {
		t.Errorf("Total() = %d, want 6", snap.Total())
	}
}

func TestPopulation_RatioSentinel(t *testing.T) {
	tests := []struct {
		name     string
		infect   []int
		resist   []int
		wantInf  bool
		wantRate float64
	}{
		{"all susceptible", nil, nil, false, 0},
		{"some resistant", []int{0}, []int{1}, false, 0.5},
		{"all infected", []int{0, 1, 2, 3}, nil, true, 0},
		{"infected and resistant only", []int{0, 1}, []int{2, 3}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pop := NewPopulation(4, Params{})
			mustInfect(t, pop, tt.infect...)
			for _, id := range tt.resist {
				pop.agents[id].state = Resistant
			}

			got := pop.ResistantSusceptibleRatio()
			if tt.wantInf != math.IsInf(got, 1) {
				t.Fatalf("ratio = %v, want +Inf: %v", got, tt.wantInf)
			}
			if tt.wantInf != (pop.Susceptible() == 0) {
				t.Errorf("+Inf must coincide with zero susceptibles")
			}
			if !tt.wantInf && got != tt.wantRate {
				t.Errorf("ratio = %v, want %v", got, tt.wantRate)
			}
			if !tt.wantInf && got < 0 {
				t.Errorf("finite ratio must be nonnegative, got %v", got)
			}
		})
	}
}

func TestRatio_JSONInfinity(t *testing.T) {
	data, err := json.Marshal(Snapshot{Step: 3, Infected: 2, Ratio: Ratio(math.Inf(1))})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"r_over_s":"+Inf"`) {
		t.Errorf("marshalled %s, want +Inf sentinel string", data)
	}

	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Ratio.IsInf() {
		t.Errorf("ratio after decode = %v, want +Inf", back.Ratio)
	}
	if Ratio(0.25).String() != "0.2500" || Ratio(math.Inf(1)).String() != "+Inf" {
		t.Errorf("unexpected Ratio.String output")
	}
}

func TestPopulation_FilterAndShuffle(t *testing.T) {
	pop := NewPopulation(10, Params{})
	mustInfect(t, pop, 2, 5, 7)

	infected := pop.Filter(IsInfected)
	if len(infected) != 3 {
		t.Fatalf("Filter(IsInfected) returned %d agents, want 3", len(infected))
	}
	for i, id := range []int{2, 5, 7} {
		if infected[i].NodeID() != id {
			t.Errorf("infected[%d] = node %d, want %d", i, infected[i].NodeID(), id)
		}
	}

	a := Shuffle(pop.Agents(), rand.New(rand.NewSource(5)))
	b := Shuffle(pop.Agents(), rand.New(rand.NewSource(5)))
	seen := make(map[int]bool)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different orders at %d", i)
		}
		seen[a[i].NodeID()] = true
	}
	if len(seen) != 10 {
		t.Errorf("shuffle lost agents: %d distinct", len(seen))
	}
	if pop.Agent(3).NodeID() != 3 {
		t.Errorf("shuffling a copy must not reorder the population")
	}
}

func TestPopulation_Infect(t *testing.T) {
	pop := NewPopulation(3, Params{})
	if err := pop.Infect(0, 3); err == nil {
		t.Fatal("expected error for out-of-range node")
	}
	if pop.Infected() != 0 {
		t.Errorf("a rejected Infect call must not change any state")
	}
	if pop.Agent(-1) != nil || pop.Agent(3) != nil {
		t.Errorf("Agent() out of range should return nil")
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr string
	}{
		{"defaults", Params{SpreadChance: 0.15, CheckFrequency: 1, RecoveryChance: 0.1, GainResistanceChance: 1}, ""},
		{"spread above one", Params{SpreadChance: 1.1}, "virus_spread_chance"},
		{"negative check", Params{CheckFrequency: -0.1}, "virus_check_frequency"},
		{"NaN recovery", Params{RecoveryChance: math.NaN()}, "recovery_chance"},
		{"resistance above one", Params{GainResistanceChance: 2}, "gain_resistance_chance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	if Susceptible.String() != "susceptible" || Infected.String() != "infected" || Resistant.String() != "resistant" {
		t.Error("unexpected state names")
	}
	if State(9).String() != "state(9)" {
		t.Errorf("State(9).String() = %q", State(9).String())
	}
}
