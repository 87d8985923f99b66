// Package epidemic implements the SIR transition model over a contact
// network: agents bound one-to-one to graph nodes, a two-phase step that
// spreads infection and then lets infected agents check their situation, and
// the aggregate counts derived from a population snapshot.
package epidemic

import (
	"fmt"
)

// State is an agent's epidemic compartment.
type State int

const (
	Susceptible State = iota
	Infected
	Resistant
)

// String returns the lowercase compartment name.
func (s State) String() string {
	switch s {
	case Susceptible:
		return "susceptible"
	case Infected:
		return "infected"
	case Resistant:
		return "resistant"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Params are the static per-agent probabilities, each in [0,1].
type Params struct {
	// SpreadChance is the chance an infected agent infects one susceptible
	// neighbor in one attempt.
	SpreadChance float64 `json:"virus_spread_chance" yaml:"virus_spread_chance"`

	// CheckFrequency is the per-step chance an infected agent checks its
	// situation at all.
	CheckFrequency float64 `json:"virus_check_frequency" yaml:"virus_check_frequency"`

	// RecoveryChance is the chance a check ends the infection.
	RecoveryChance float64 `json:"recovery_chance" yaml:"recovery_chance"`

	// GainResistanceChance is the chance a recovering agent becomes
	// resistant instead of susceptible again.
	GainResistanceChance float64 `json:"gain_resistance_chance" yaml:"gain_resistance_chance"`
}

// Validate checks that every probability lies in [0,1].
func (p Params) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"virus_spread_chance", p.SpreadChance},
		{"virus_check_frequency", p.CheckFrequency},
		{"recovery_chance", p.RecoveryChance},
		{"gain_resistance_chance", p.GainResistanceChance},
	}
	for _, c := range checks {
		// Written as a negated range test so NaN is rejected too.
		if !(c.value >= 0 && c.value <= 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %v", c.name, c.value)
		}
	}
	return nil
}

// Agent is the epidemic record bound to one graph node. Only its state
// changes during a run.
type Agent struct {
	nodeID int
	state  State
	params Params
}

// NodeID returns the graph node this agent occupies.
func (a *Agent) NodeID() int { return a.nodeID }

// State returns the agent's current compartment.
func (a *Agent) State() State { return a.state }

// Params returns the agent's static probabilities.
func (a *Agent) Params() Params { return a.params }

// IsInfected reports whether a is currently infected. It is the predicate
// the infection phase filters on.
func IsInfected(a *Agent) bool { return a.state == Infected }
