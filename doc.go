// Package creatures evolves walking mass-spring creatures with NEAT
// (NeuroEvolution of Augmenting Topologies).
//
// Each creature is a body of point masses joined by spring muscles, built
// from a shared blueprint, and a layered neural network that reads the
// velocity and force of every node and decides which muscles contract. A
// generation walks until every creature has stalled or collapsed; the
// population is then divided into species by genetic distance, culled,
// and bred into the next generation.
//
// The packages are:
//
//	neat        genes, innovation ledger, brains, compatibility distance, config
//	neat/nn     compiled layered feed-forward networks
//	physics     vectors, nodes, joints, bodies and blueprints
//	sim         creatures, species and the population state machine
//	telemetry   CSV and Prometheus reporters
//
// Basic usage:
//
//	// Load configuration
//	config, err := sim.LoadConfig("path/to/config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	bp, err := physics.LoadBlueprint("path/to/blueprint.yaml")
//	if err != nil {
//		log.Fatalf("Error loading blueprint: %v", err)
//	}
//
//	// Create a new population
//	pop, err := sim.NewPopulation(config, bp)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	// Drive the simulation from the host loop
//	for pop.Generation() <= 100 {
//		if err := pop.SimulationTick(16); err != nil {
//			log.Fatalf("Error running tick: %v", err)
//		}
//	}
package creatures
