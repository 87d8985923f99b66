package epidemic

// Source supplies every random draw of a step: uniform floats in [0,1) and
// shuffles. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// Graph is the adjacency lookup the engine needs. Node ids must match
// population indices.
type Graph interface {
	Neighbors(id int) []int
}

// Step advances the population by one discrete time step.
//
// The infection phase runs first over a shuffled snapshot of the agents that
// were infected when the step began, so agents infected during the phase do
// not spread in the same step. The recovery phase then visits the whole
// population in a fresh shuffled order; agents infected earlier in the step
// are eligible to check their situation.
//
// Later agents in either phase observe states changed by earlier ones.
// Given the same population, graph and draw sequence, Step is deterministic.
func Step(pop *Population, g Graph, rng Source) {
	spreadInfection(pop, g, rng)
	checkSituations(pop, rng)
}

// spreadInfection gives every susceptible neighbor of each infector one
// independent infection attempt at the infector's spread chance. Neighbors
// already infected are skipped without consuming a draw.
func spreadInfection(pop *Population, g Graph, rng Source) {
	infectors := Shuffle(pop.Filter(IsInfected), rng)
	for _, infector := range infectors {
		for _, id := range g.Neighbors(infector.nodeID) {
			target := pop.agents[id]
			if target.state != Susceptible {
				continue
			}
			if rng.Float64() < infector.params.SpreadChance {
				target.state = Infected
			}
		}
	}
}

// checkSituations lets each infected agent, with probability CheckFrequency,
// try to recover; a recovery ends resistant with probability
// GainResistanceChance and susceptible otherwise.
func checkSituations(pop *Population, rng Source) {
	order := Shuffle(pop.Agents(), rng)
	for _, a := range order {
		if a.state != Infected {
			continue
		}
		if rng.Float64() >= a.params.CheckFrequency {
			continue
		}
		if rng.Float64() >= a.params.RecoveryChance {
			continue
		}
		if rng.Float64() < a.params.GainResistanceChance {
			a.state = Resistant
		} else {
			a.state = Susceptible
		}
	}
}
