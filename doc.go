// Package neat documents the neatcore module: a Go implementation of the
// evolutionary core of NeuroEvolution of Augmenting Topologies (NEAT).
//
// NEAT is a genetic algorithm for evolving artificial neural networks. It
// alters both the weights and the structure of networks, balancing the
// fitness of evolved solutions against the diversity of the population
// through speciation and fitness sharing.
//
// This implementation follows the innovation-tracking, speciation, and
// phased/novelty search design of Peter Chervenski's MultiNEAT C++ engine,
// wired into an idiomatic Go module. The evolutionary core lives in
// package neat and consumes an opaque neat.Genome interface; a concrete,
// runnable genome implementation lives in neat/genome, phenotype
// construction in neat/nn.
//
// Basic usage:
//
//	// Load core parameters.
//	params, err := neat.LoadParameters("path/to/params.ini")
//	if err != nil {
//		log.Fatalf("Error loading parameters: %v", err)
//	}
//
//	// Build a seed genome and a population around it.
//	db := neat.NewInnovationDatabase(0, int64(params.PopulationSize))
//	rng := rand.New(rand.NewSource(0))
//	pop, err := neat.NewPopulation(seed, params, db, rng)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	// Run generations with your fitness function.
//	for i := 0; i < 100; i++ {
//		evaluate(pop.Genomes)
//		if err := pop.Epoch(); err != nil {
//			log.Fatalf("Error running epoch: %v", err)
//		}
//		if pop.BestFitnessEver >= threshold {
//			fmt.Println("Solution found!")
//			break
//		}
//	}
package neat
