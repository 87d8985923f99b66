// Package simulation drives SIR epidemics over a contact network.
//
// A Model binds one agent to every node of an immutable graph, seeds the
// initial outbreak, and records one Snapshot after seeding (step 0) and one
// after every step. All randomness (outbreak sampling, visit-order shuffles
// and probability draws) comes from a single seeded *rand.Rand, so a fixed
// seed reproduces a run exactly.
//
// Usage:
//
//	g, _ := network.Ring(5)
//	m, err := simulation.New(g, simulation.Settings{
//	    InitialOutbreakSize: 1,
//	    Agent:               epidemic.Params{SpreadChance: 1},
//	    Seed:                42,
//	})
//	if err != nil { ... }
//	_ = m.Run(ctx, 10)
//	for _, s := range m.History() { ... }
//
// The package also exports Assert* helpers used by tests to check the
// population-level properties every run must satisfy.
package simulation
