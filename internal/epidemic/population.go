package epidemic

import (
	"fmt"
)

// Population holds exactly one Agent per graph node; agent i sits on node i.
type Population struct {
	agents []*Agent
}

// NewPopulation creates n susceptible agents sharing the same params.
func NewPopulation(n int, p Params) *Population {
	agents := make([]*Agent, n)
	for i := range agents {
		agents[i] = &Agent{nodeID: i, state: Susceptible, params: p}
	}
	return &Population{agents: agents}
}

// NewHeterogeneousPopulation creates one susceptible agent per entry of
// params, allowing probabilities to differ between agents.
func NewHeterogeneousPopulation(params []Params) *Population {
	agents := make([]*Agent, len(params))
	for i, p := range params {
		agents[i] = &Agent{nodeID: i, state: Susceptible, params: p}
	}
	return &Population{agents: agents}
}

// Len returns the number of agents.
func (p *Population) Len() int { return len(p.agents) }

// Agent returns the agent on node id, or nil if id is out of range.
func (p *Population) Agent(id int) *Agent {
	if id < 0 || id >= len(p.agents) {
		return nil
	}
	return p.agents[id]
}

// Agents returns the agents in node order. The slice is a copy; the agents
// are shared.
func (p *Population) Agents() []*Agent {
	return append([]*Agent(nil), p.agents...)
}

// Filter returns the agents matching pred, in node order.
func (p *Population) Filter(pred func(*Agent) bool) []*Agent {
	out := make([]*Agent, 0)
	for _, a := range p.agents {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out
}

// States returns every agent's state indexed by node id.
func (p *Population) States() []State {
	out := make([]State, len(p.agents))
	for i, a := range p.agents {
		out[i] = a.state
	}
	return out
}

// Infect forces the agents on the given nodes into the infected state. It is
// used for outbreak seeding only; the transition engine never calls it.
func (p *Population) Infect(ids ...int) error {
	for _, id := range ids {
		if id < 0 || id >= len(p.agents) {
			return fmt.Errorf("infect node %d: population has %d agents", id, len(p.agents))
		}
	}
	for _, id := range ids {
		p.agents[id].state = Infected
	}
	return nil
}

// Shuffle permutes list in place using rng and returns it.
func Shuffle(list []*Agent, rng Source) []*Agent {
	rng.Shuffle(len(list), func(i, j int) {
		list[i], list[j] = list[j], list[i]
	})
	return list
}
