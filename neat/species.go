package neat

import (
	"math/rand"
	"sort"
)

// Species is a cluster of compatible genomes, along with the age,
// stagnation, and reproduction bookkeeping described in spec §4.2.
type Species struct {
	ID int64

	Age               int
	GensNoImprovement int
	BestFitness       float64
	IsBestSpecies     bool

	Representative Genome
	BestGenome     Genome

	OffspringRequired int

	Individuals []Genome
}

// NewSpecies creates a species around a founding genome, snapshotting it
// as both the representative and best genome.
func NewSpecies(id int64, founder Genome) *Species {
	return &Species{
		ID:             id,
		Representative: founder,
		BestGenome:     founder,
		BestFitness:    founder.Fitness(),
		Individuals:    []Genome{founder},
	}
}

// AddIndividual appends g to the species.
func (s *Species) AddIndividual(g Genome) {
	s.Individuals = append(s.Individuals, g)
}

// RemoveIndividual erases the member at index i.
func (s *Species) RemoveIndividual(i int) {
	s.Individuals = append(s.Individuals[:i], s.Individuals[i+1:]...)
}

// RemoveGenome removes the first occurrence of g, if present.
func (s *Species) RemoveGenome(g Genome) bool {
	for i, m := range s.Individuals {
		if m == g {
			s.RemoveIndividual(i)
			return true
		}
	}
	return false
}

// GetRepresentative returns the snapshot used for compatibility tests.
func (s *Species) GetRepresentative() Genome {
	return s.Representative
}

// SetRepresentative snapshots g as the representative for the next
// round of speciation.
func (s *Species) SetRepresentative(g Genome) {
	s.Representative = g
}

// SortIndividuals orders members by raw fitness descending, breaking
// ties by insertion order (sort.SliceStable).
func (s *Species) SortIndividuals() {
	sort.SliceStable(s.Individuals, func(i, j int) bool {
		return s.Individuals[i].Fitness() > s.Individuals[j].Fitness()
	})
}

// AdjustFitness applies explicit fitness sharing plus age and stagnation
// modifiers, per spec §4.2.
func (s *Species) AdjustFitness(p *Parameters) {
	n := len(s.Individuals)
	if n == 0 {
		return
	}
	for _, g := range s.Individuals {
		adj := g.Fitness() / float64(n)
		if s.Age < p.YoungAgeTreshold {
			adj *= p.YoungAgeFitnessBoost
		}
		if s.Age > p.OldAgeTreshold {
			adj *= p.OldAgeFitnessPenalty
		}
		if s.GensNoImprovement > p.SpeciesDropoffAge && !s.IsBestSpecies {
			adj *= p.StagnationPenalty
		}
		g.SetAdjFitness(adj)
	}
}

// CountOffspring sums each member's offspring_amount, rounding to the
// nearest integer, and stores it as OffspringRequired.
func (s *Species) CountOffspring() int {
	var total float64
	for _, g := range s.Individuals {
		total += g.OffspringAmount()
	}
	s.OffspringRequired = int(total + 0.5)
	return s.OffspringRequired
}

// KillWorst drops the bottom (1 - SurvivalRate) fraction of evaluated
// members, retaining at least one. Individuals must already be sorted
// descending by fitness.
func (s *Species) KillWorst(survivalRate float64) {
	evaluated := 0
	for _, g := range s.Individuals {
		if g.Evaluated() {
			evaluated++
		}
	}
	if evaluated <= 1 {
		return
	}
	keep := int(float64(evaluated)*survivalRate + 0.5)
	if keep < 1 {
		keep = 1
	}
	if keep >= evaluated {
		return
	}
	// Individuals are sorted descending; the worst are at the tail among
	// the evaluated ones. Unevaluated members (newly created) are left
	// untouched since they haven't had a chance to compete yet.
	kept := make([]Genome, 0, len(s.Individuals))
	seen := 0
	for _, g := range s.Individuals {
		if !g.Evaluated() {
			kept = append(kept, g)
			continue
		}
		seen++
		if seen <= keep {
			kept = append(kept, g)
		}
	}
	s.Individuals = kept
}

// IncreaseAge, ResetAge, IncreaseGensNoImprovement mutate the species'
// selection-state fields per spec §4.2.
func (s *Species) IncreaseAge()              { s.Age++ }
func (s *Species) ResetAge()                 { s.Age = 0 }
func (s *Species) IncreaseGensNoImprovement() { s.GensNoImprovement++ }

// choosePartner picks a mate for crossover via roulette-wheel selection
// over adjusted fitness, or tournament selection when
// Parameters.RouletteWheelSelection is false, per spec's reproduce() rule.
func (s *Species) choosePartner(pop *Population, rng *rand.Rand, exclude Genome) Genome {
	if len(s.Individuals) == 1 {
		return s.Individuals[0]
	}
	candidates := s.Individuals
	if exclude != nil && len(s.Individuals) > 1 {
		candidates = make([]Genome, 0, len(s.Individuals)-1)
		for _, g := range s.Individuals {
			if g != exclude {
				candidates = append(candidates, g)
			}
		}
	}
	if pop.Parameters.RouletteWheelSelection {
		return rouletteSelect(candidates, rng)
	}
	return tournamentSelect(candidates, rng)
}

func rouletteSelect(candidates []Genome, rng *rand.Rand) Genome {
	total := 0.0
	for _, g := range candidates {
		total += g.AdjFitness()
	}
	if total <= 0 {
		return candidates[rng.Intn(len(candidates))]
	}
	pick := rng.Float64() * total
	acc := 0.0
	for _, g := range candidates {
		acc += g.AdjFitness()
		if acc >= pick {
			return g
		}
	}
	return candidates[len(candidates)-1]
}

// tournamentSelect picks the fitter of two uniformly-chosen candidates.
func tournamentSelect(candidates []Genome, rng *rand.Rand) Genome {
	a := candidates[rng.Intn(len(candidates))]
	b := candidates[rng.Intn(len(candidates))]
	if b.AdjFitness() > a.AdjFitness() {
		return b
	}
	return a
}

// Reproduce emits OffspringRequired new genomes, applying the elitism,
// crossover, and mutation rules of spec §4.2, appending them to dest (the
// corresponding temp_species entry). The caller replaces s's membership
// with dest's wholesale — survivors that fed reproduction are not carried
// forward, so population size tracks OffspringRequired exactly.
func (s *Species) Reproduce(pop *Population, dest *Species) {
	if len(s.Individuals) == 0 || s.OffspringRequired == 0 {
		return
	}

	babiesNeeded := s.OffspringRequired
	if pop.Parameters.Elitism >= 1 && len(s.Individuals) > 0 {
		elite := s.Individuals[0].Clone()
		elite.SetID(pop.nextGenomeID())
		dest.AddIndividual(elite)
		babiesNeeded--
	}

	for i := 0; i < babiesNeeded; i++ {
		baby := s.spawnOne(pop)
		dest.AddIndividual(baby)
	}
}

// ReproduceOne is the single-baby variant used by Tick.
func (s *Species) ReproduceOne(pop *Population) Genome {
	return s.spawnOne(pop)
}

func (s *Species) spawnOne(pop *Population) Genome {
	rng := pop.RNG
	var baby Genome
	if rng.Float64() < pop.Parameters.CrossoverRate && len(s.Individuals) > 1 {
		mom := s.choosePartner(pop, rng, nil)
		dad := s.choosePartner(pop, rng, mom)
		if mom.Fitness() < dad.Fitness() {
			mom, dad = dad, mom
		}
		baby = mom.Crossover(dad, rng)
	} else {
		parent := s.choosePartner(pop, rng, nil)
		baby = parent.Clone()
	}
	baby.SetID(pop.nextGenomeID())
	baby.SetEvaluated(false)
	baby.Mutate(pop.InnovationDB, pop.SearchMode, rng)
	return baby
}
