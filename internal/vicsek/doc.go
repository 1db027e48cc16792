// Package vicsek implements the Vicsek alignment model on a periodic
// two-dimensional domain.
//
// A [Simulation] owns an ordered set of self-propelled point particles and
// advances them in discrete steps. Every step runs three strictly ordered
// phases over all particles:
//
//   - neighbor discovery within the interaction radius ([FindNeighbors])
//   - synchronous heading update: mean direction of self and neighbors plus
//     uniform angular noise
//   - position update along the new heading, wrapped onto the torus
//
// followed by the order-parameter statistics ([OrderParameter], [Tracker]).
//
// # Example
//
//	sim := vicsek.New()
//	if err := sim.Reset(vicsek.DefaultConfig(), torus.Domain{Width: 160, Height: 100}); err != nil {
//	    return err
//	}
//	for i := 0; i < 300; i++ {
//	    sim.Step()
//	}
//	st := sim.State()
//	fmt.Println(st.CurrentPhi, st.AvgPhi)
//
// # Reproducibility
//
// All randomness comes from one [rng.Source] seeded by [Config.Seed]. The
// same configuration and domain always produce the same trajectory, also
// when [Config.Workers] enables parallel phases: noise is drawn in particle
// index order before any parallel work starts.
//
// # Thread Safety
//
// Simulation instances are NOT thread-safe. Independent simulations can run
// concurrently.
package vicsek
