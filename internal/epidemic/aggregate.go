package epidemic

import (
	"encoding/json"
	"fmt"
	"math"
)

// Count returns the number of agents in state s.
func (p *Population) Count(s State) int {
	n := 0
	for _, a := range p.agents {
		if a.state == s {
			n++
		}
	}
	return n
}

// Infected returns the number of infected agents.
func (p *Population) Infected() int { return p.Count(Infected) }

// Susceptible returns the number of susceptible agents.
func (p *Population) Susceptible() int { return p.Count(Susceptible) }

// Resistant returns the number of resistant agents.
func (p *Population) Resistant() int { return p.Count(Resistant) }

// ResistantSusceptibleRatio returns resistant/susceptible, or +Inf when no
// agent is susceptible.
func (p *Population) ResistantSusceptibleRatio() float64 {
	return ratio(p.Resistant(), p.Susceptible())
}

func ratio(resistant, susceptible int) float64 {
	if susceptible == 0 {
		return math.Inf(1)
	}
	return float64(resistant) / float64(susceptible)
}

// Ratio is a resistant/susceptible ratio. +Inf encodes as the JSON string
// "+Inf" since JSON numbers cannot represent it.
type Ratio float64

// IsInf reports whether r is the no-susceptibles sentinel.
func (r Ratio) IsInf() bool { return math.IsInf(float64(r), 1) }

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.IsInf() {
		return []byte(`"+Inf"`), nil
	}
	return json.Marshal(float64(r))
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == `"+Inf"` {
		*r = Ratio(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding ratio: %w", err)
	}
	*r = Ratio(f)
	return nil
}

// String formats the ratio with four decimals, or "+Inf".
func (r Ratio) String() string {
	if r.IsInf() {
		return "+Inf"
	}
	return fmt.Sprintf("%.4f", float64(r))
}

// Snapshot is one row of a run's time series.
type Snapshot struct {
	Step        int   `json:"step"`
	Infected    int   `json:"infected"`
	Susceptible int   `json:"susceptible"`
	Resistant   int   `json:"resistant"`
	Ratio       Ratio `json:"r_over_s"`
}

// Total returns infected + susceptible + resistant.
func (s Snapshot) Total() int { return s.Infected + s.Susceptible + s.Resistant }

// Snapshot aggregates the current population in a single pass and labels
// it with step.
func (p *Population) Snapshot(step int) Snapshot {
	var counts [3]int
	for _, a := range p.agents {
		counts[a.state]++
	}
	return Snapshot{
		Step:        step,
		Infected:    counts[Infected],
		Susceptible: counts[Susceptible],
		Resistant:   counts[Resistant],
		Ratio:       Ratio(ratio(counts[Resistant], counts[Susceptible])),
	}
}
