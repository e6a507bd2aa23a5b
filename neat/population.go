package neat

import (
	"fmt"
	"math"
	"math/rand"
)

// Population owns every genome and species, and drives speciation,
// fitness adjustment, offspring allocation, and the two evolution loops
// (spec §3, §4.3-§4.6).
type Population struct {
	Parameters   *Parameters
	InnovationDB *InnovationDatabase
	RNG          *rand.Rand

	Genomes     []Genome
	SpeciesList []*Species

	Generation      int
	NumEvaluations  int

	BestFitnessEver   float64
	BestGenomeEver    Genome
	CurrentBestGenome Genome

	nextGenomeIDCounter  int64
	nextSpeciesIDCounter int64

	SearchMode              SearchMode
	BaseMPC                 float64
	OldMPC                  float64
	CurrentMPC              float64
	GensSinceMPCLastChanged int

	GensSinceBestFitnessLastChanged int

	// Novelty search state (spec §4.7).
	BehaviorArchive        []PhenotypeBehavior
	GensSinceLastArchiving int
	QuickAddCounter        int
	NoveltyPmin            float64
}

// NewPopulation builds a population of Parameters.PopulationSize genomes
// around a single founding seed genome, following the teacher's founding
// step: clone the seed, randomize each clone's link weights, then
// speciate. The seed itself is not included among the clones.
func NewPopulation(seed Genome, params *Parameters, db *InnovationDatabase, rng *rand.Rand) (*Population, error) {
	if params.PopulationSize <= 0 {
		return nil, fmt.Errorf("neat: population size must be positive")
	}

	p := &Population{
		Parameters:   params,
		InnovationDB: db,
		RNG:          rng,
		NoveltyPmin:  params.NoveltySearchPmin,
	}

	p.Genomes = make([]Genome, 0, params.PopulationSize)
	for i := 0; i < params.PopulationSize; i++ {
		clone := seed.Clone()
		clone.SetID(p.nextGenomeID())
		clone.RandomizeLinkWeights(1.0, rng)
		p.Genomes = append(p.Genomes, clone)
	}

	founder := p.Genomes[0]
	sp := NewSpecies(p.nextSpeciesID(), founder)
	sp.Individuals = p.Genomes[:1:1]
	p.SpeciesList = []*Species{sp}
	p.Speciate()
	p.Sort()

	p.CurrentMPC = p.CalculateMPC()
	p.BaseMPC = p.CurrentMPC
	if params.PhasedSearching {
		p.SearchMode = Complexifying
	} else {
		p.SearchMode = Blended
	}

	return p, nil
}

func (p *Population) nextGenomeID() int64 {
	id := p.nextGenomeIDCounter
	p.nextGenomeIDCounter++
	return id
}

func (p *Population) nextSpeciesID() int64 {
	id := p.nextSpeciesIDCounter
	p.nextSpeciesIDCounter++
	return id
}

// CalculateMPC returns the mean link count across the whole population
// (mean population complexity).
func (p *Population) CalculateMPC() float64 {
	if len(p.Genomes) == 0 {
		return 0
	}
	total := 0
	for _, g := range p.Genomes {
		total += g.NumLinks()
	}
	return float64(total) / float64(len(p.Genomes))
}

// CalculateMedianComplexity returns the median link count across the
// population, a complexity statistic less sensitive than CalculateMPC to
// the handful of outlier genomes phased search tends to produce.
func (p *Population) CalculateMedianComplexity() float64 {
	if len(p.Genomes) == 0 {
		return 0
	}
	counts := make([]float64, len(p.Genomes))
	for i, g := range p.Genomes {
		counts[i] = float64(g.NumLinks())
	}
	return median(counts)
}

// Speciate partitions every genome into species using each species'
// current representative, per spec §4.3. Order is deterministic:
// species are tried in list order, genomes in list order; ties go to the
// earliest compatible species.
func (p *Population) Speciate() {
	for _, s := range p.SpeciesList {
		s.Individuals = s.Individuals[:0]
	}

	for _, g := range p.Genomes {
		placed := false
		for _, s := range p.SpeciesList {
			if g.IsCompatibleWith(s.GetRepresentative(), p.Parameters.CompatTreshold) {
				s.AddIndividual(g)
				placed = true
				break
			}
		}
		if !placed {
			ns := NewSpecies(p.nextSpeciesID(), g)
			ns.Individuals = []Genome{g}
			p.SpeciesList = append(p.SpeciesList, ns)
		}
	}

	p.removeEmptySpecies()
}

func (p *Population) removeEmptySpecies() {
	kept := p.SpeciesList[:0]
	for _, s := range p.SpeciesList {
		if len(s.Individuals) > 0 {
			kept = append(kept, s)
		}
	}
	p.SpeciesList = kept
}

// Sort orders members within each species descending by fitness, then
// orders the species list descending by best member fitness.
func (p *Population) Sort() {
	for _, s := range p.SpeciesList {
		s.SortIndividuals()
	}
	sortSpeciesByBestFitness(p.SpeciesList)
}

func sortSpeciesByBestFitness(species []*Species) {
	for i := 1; i < len(species); i++ {
		j := i
		for j > 0 && speciesBestFitness(species[j-1]) < speciesBestFitness(species[j]) {
			species[j-1], species[j] = species[j], species[j-1]
			j--
		}
	}
}

func speciesBestFitness(s *Species) float64 {
	if len(s.Individuals) == 0 {
		return math.Inf(-1)
	}
	return s.Individuals[0].Fitness()
}

// updateSpecies clears is_best_species, ages every species, and flags
// the first species whose best fitness meets or exceeds the all-time
// record, per spec §4.4 step 2.
func (p *Population) updateSpecies() {
	var previousBest *Species
	for _, s := range p.SpeciesList {
		if s.IsBestSpecies {
			previousBest = s
		}
		s.IsBestSpecies = false
		s.IncreaseAge()
		s.IncreaseGensNoImprovement()
		s.OffspringRequired = 0
	}

	var newBest *Species
	for _, s := range p.SpeciesList {
		if len(s.Individuals) == 0 {
			continue
		}
		best := s.Individuals[0].Fitness()
		if best > s.BestFitness {
			s.BestFitness = best
			s.GensNoImprovement = 0
		}
		if s.BestFitness >= p.BestFitnessEver {
			newBest = s
			break
		}
	}
	if newBest != nil {
		newBest.IsBestSpecies = true
		if previousBest != nil && previousBest != newBest {
			previousBest.ResetAge()
		}
	}
}

// AdjustFitness delegates to each species.
func (p *Population) AdjustFitness() {
	for _, s := range p.SpeciesList {
		s.AdjustFitness(p.Parameters)
	}
}

// CountOffspring computes per-individual offspring_amount = adj_fit /
// mean_adj_fit, then per-species totals, per spec §4.4 step 4.
func (p *Population) CountOffspring() error {
	var totalAdj float64
	for _, g := range p.Genomes {
		totalAdj += g.AdjFitness()
	}
	if totalAdj <= 0 {
		return fmt.Errorf("neat: total adjusted fitness must be positive to allocate offspring")
	}
	meanAdj := totalAdj / float64(len(p.Genomes))

	for _, g := range p.Genomes {
		g.SetOffspringAmount(g.AdjFitness() / meanAdj)
	}
	for _, s := range p.SpeciesList {
		s.CountOffspring()
	}
	return nil
}

// dynamicCompatibility implements the shared threshold-adjustment logic
// used by both Epoch (generation cadence) and Tick (evaluation cadence).
func (p *Population) dynamicCompatibility() bool {
	if !p.Parameters.DynamicCompatibility {
		return false
	}
	before := p.Parameters.CompatTreshold
	n := len(p.SpeciesList)
	if n > p.Parameters.MaxSpecies {
		p.Parameters.CompatTreshold += p.Parameters.CompatTresholdModifier
	} else if n < p.Parameters.MinSpecies {
		p.Parameters.CompatTreshold -= p.Parameters.CompatTresholdModifier
	}
	if p.Parameters.CompatTreshold < p.Parameters.MinCompatTreshold {
		p.Parameters.CompatTreshold = p.Parameters.MinCompatTreshold
	}
	return p.Parameters.CompatTreshold != before
}

// deltaCoding narrows offspring allocation to the top two species under
// prolonged global stagnation, per spec §4.4 step 8.
func (p *Population) deltaCoding() {
	if !p.Parameters.DeltaCoding {
		return
	}
	if p.GensSinceBestFitnessLastChanged <= p.Parameters.SpeciesDropoffAge+10 {
		return
	}
	if len(p.SpeciesList) <= 2 {
		return
	}
	half := p.Parameters.PopulationSize / 2
	for i, s := range p.SpeciesList {
		if i < 2 {
			s.OffspringRequired = half
			s.ResetAge()
		} else {
			s.OffspringRequired = 0
		}
	}
	p.GensSinceBestFitnessLastChanged = 0
}

// Epoch runs one full generational cycle, per spec §4.4. Every member
// must already be evaluated; Epoch also defensively marks every member
// evaluated before it starts.
func (p *Population) Epoch() error {
	if len(p.Genomes) == 0 {
		return fmt.Errorf("neat: cannot run Epoch on an empty population")
	}
	for _, g := range p.Genomes {
		g.SetEvaluated(true)
	}

	// 1. sort
	p.Sort()

	// 2. update species
	p.updateSpecies()

	// 3. adjust fitness
	p.AdjustFitness()

	// 4. count offspring
	if err := p.CountOffspring(); err != nil {
		return err
	}

	// 5. increment stagnation counter
	p.GensSinceBestFitnessLastChanged++

	// 6. track best-ever and current-best
	p.CurrentBestGenome = nil
	for _, g := range p.Genomes {
		if p.BestGenomeEver == nil || g.Fitness() > p.BestFitnessEver+p.Parameters.StagnationDelta {
			p.BestFitnessEver = g.Fitness()
			p.BestGenomeEver = g
			p.GensSinceBestFitnessLastChanged = 0
		}
		if p.CurrentBestGenome == nil || g.Fitness() > p.CurrentBestGenome.Fitness() {
			p.CurrentBestGenome = g
		}
	}

	// 7. dynamic compatibility (generation cadence)
	if p.Parameters.CompatTreshChangeIntervalGenerations > 0 &&
		p.Generation%p.Parameters.CompatTreshChangeIntervalGenerations == 0 {
		p.dynamicCompatibility()
	}

	// 8. delta coding
	p.deltaCoding()

	// 9. phased search
	p.CurrentMPC = p.CalculateMPC()
	p.updatePhasedSearch()

	// 10. kill worst per species
	for _, s := range p.SpeciesList {
		s.KillWorst(p.Parameters.SurvivalRate)
	}

	// 11. reproduce against a frozen snapshot. Every pre-reproduction
	// member (survivor or not) is replaced by its species' offspring —
	// a species' post-reproduction membership is exactly its
	// OffspringRequired babies, never survivors plus babies, or the
	// population would grow without bound across generations.
	tempSpecies := make([]*Species, len(p.SpeciesList))
	for i, s := range p.SpeciesList {
		tempSpecies[i] = &Species{ID: s.ID}
	}
	for i, s := range p.SpeciesList {
		s.Reproduce(p, tempSpecies[i])
	}
	for i, s := range p.SpeciesList {
		s.Individuals = tempSpecies[i].Individuals
	}

	// 12. remove empty species (e.g. delta-coding's non-top-2 species,
	// which receive OffspringRequired == 0 and so produce nothing)
	p.removeEmptySpecies()

	// 13. reassign representatives to the new leaders
	for _, s := range p.SpeciesList {
		s.SortIndividuals()
		if len(s.Individuals) > 0 {
			s.SetRepresentative(s.Individuals[0])
		}
	}

	// rebuild the flat genome mirror
	p.rebuildGenomeMirror()

	// 14. equalize to PopulationSize exactly. CountOffspring's
	// per-genome rounding rarely lands the sum of OffspringRequired
	// exactly on target, so top up by cloning the leading species'
	// leader, or trim from the tail of the weakest species, as needed.
	for len(p.Genomes) < p.Parameters.PopulationSize {
		if len(p.SpeciesList) == 0 {
			return fmt.Errorf("neat: cannot top up an empty species list")
		}
		clone := p.SpeciesList[0].Individuals[0].Clone()
		clone.SetID(p.nextGenomeID())
		p.SpeciesList[0].AddIndividual(clone)
		p.Genomes = append(p.Genomes, clone)
	}
	for len(p.Genomes) > p.Parameters.PopulationSize {
		if len(p.SpeciesList) == 0 {
			return fmt.Errorf("neat: cannot trim an empty species list")
		}
		last := p.SpeciesList[len(p.SpeciesList)-1]
		if len(last.Individuals) == 0 {
			p.SpeciesList = p.SpeciesList[:len(p.SpeciesList)-1]
			continue
		}
		last.RemoveIndividual(len(last.Individuals) - 1)
		p.Genomes = p.Genomes[:len(p.Genomes)-1]
	}

	// 15. advance generation, optionally flush innovations
	p.Generation++
	if !p.Parameters.InnovationsForever {
		p.InnovationDB.Flush()
	}

	fmt.Printf("Generation %d: %d species, best fitness ever %.6f, mean complexity %.2f, median complexity %.2f\n",
		p.Generation, len(p.SpeciesList), p.BestFitnessEver, p.CurrentMPC, p.CalculateMedianComplexity())

	return nil
}

func (p *Population) rebuildGenomeMirror() {
	total := 0
	for _, s := range p.SpeciesList {
		total += len(s.Individuals)
	}
	p.Genomes = make([]Genome, 0, total)
	for _, s := range p.SpeciesList {
		p.Genomes = append(p.Genomes, s.Individuals...)
	}
}

// Tick runs one steady-state birth+death cycle, per spec §4.6. It
// returns the newly born genome so the caller can evaluate it before
// the next Tick.
func (p *Population) Tick() (Genome, error) {
	if len(p.Genomes) == 0 {
		return nil, fmt.Errorf("neat: cannot Tick an empty population")
	}

	// 1. bookkeeping + best-fitness-ever tracking
	p.NumEvaluations++
	for _, g := range p.Genomes {
		if g.Fitness() <= 0 {
			g.SetFitness(1e-5)
		}
		if p.BestGenomeEver == nil || g.Fitness() > p.BestFitnessEver+p.Parameters.StagnationDelta {
			p.BestFitnessEver = g.Fitness()
			p.BestGenomeEver = g
		}
	}

	// 2. update each species' best_fitness / gens_no_improvement
	for _, s := range p.SpeciesList {
		if len(s.Individuals) == 0 {
			continue
		}
		fitnesses := make([]float64, len(s.Individuals))
		for i, g := range s.Individuals {
			fitnesses[i] = g.Fitness()
		}
		best := maxFloat(fitnesses)
		if best > s.BestFitness {
			s.BestFitness = best
			s.GensNoImprovement = 0
		} else {
			s.GensNoImprovement++
		}
	}

	// 3. dynamic compatibility (evaluation cadence)
	if p.Parameters.CompatTreshChangeIntervalEvaluations > 0 &&
		p.NumEvaluations%p.Parameters.CompatTreshChangeIntervalEvaluations == 0 {
		if p.dynamicCompatibility() {
			p.reassignAllSpecies()
		}
	}

	// 4. sort
	p.Sort()

	// 5. remove the worst individual
	deleted := p.RemoveWorstIndividual()
	if deleted == nil {
		return nil, fmt.Errorf("neat: no evaluated individual available to remove")
	}

	// 6. recompute average fitness per species
	avgFitness := make(map[*Species]float64, len(p.SpeciesList))
	for _, s := range p.SpeciesList {
		if len(s.Individuals) == 0 {
			continue
		}
		var total float64
		for _, g := range s.Individuals {
			total += g.Fitness()
		}
		avgFitness[s] = total / float64(len(s.Individuals))
	}

	// 7. choose a parent species by roulette over average fitness
	parentSpecies := p.chooseParentSpecies(avgFitness)

	// 8. reproduce one baby. Unlike Epoch, Tick never removes the
	// parents: in steady state they remain candidates for the next
	// worst-removal.
	baby := parentSpecies.ReproduceOne(p)
	if baby.NumInputs() <= 0 || baby.NumOutputs() <= 0 {
		return nil, fmt.Errorf("neat: reproduced genome has no inputs or outputs")
	}

	// 9. insert into first compatible species, or found a new one
	p.insertIntoSpecies(baby)
	p.rebuildGenomeMirror()

	return baby, nil
}

// chooseParentSpecies picks a species by roulette wheel over average
// fitness, loosely following original_source/Population.cpp's
// ChooseParentSpecies. The original retries the spin until it lands on a
// species with nonzero average fitness, which can loop forever if every
// species has gone to zero (possible right after RemoveWorstIndividual
// empties one out); this falls back to a uniform pick in that case
// instead, to guarantee Tick always makes progress.
func (p *Population) chooseParentSpecies(avgFitness map[*Species]float64) *Species {
	var total float64
	for _, v := range avgFitness {
		total += v
	}
	if total <= 0 {
		return p.SpeciesList[p.RNG.Intn(len(p.SpeciesList))]
	}

	pick := p.RNG.Float64() * total
	var acc float64
	for _, s := range p.SpeciesList {
		acc += avgFitness[s]
		if acc >= pick {
			return s
		}
	}
	return p.SpeciesList[len(p.SpeciesList)-1]
}

// RemoveWorstIndividual scans all evaluated members for the smallest
// fitness/species_size and removes it, erasing the species if it
// becomes empty. Returns the removed genome, or nil if none qualify.
func (p *Population) RemoveWorstIndividual() Genome {
	var worstGenome Genome
	var worstSpecies *Species
	worstScore := math.Inf(1)

	for _, s := range p.SpeciesList {
		size := float64(len(s.Individuals))
		for _, g := range s.Individuals {
			if !g.Evaluated() {
				continue
			}
			score := g.Fitness() / size
			if score < worstScore {
				worstScore = score
				worstGenome = g
				worstSpecies = s
			}
		}
	}
	if worstGenome == nil {
		return nil
	}
	worstSpecies.RemoveGenome(worstGenome)
	p.removeEmptySpecies()
	return worstGenome
}

// reassignAllSpecies re-speciates every genome from scratch, used after
// the compatibility threshold changes mid-run in Tick.
func (p *Population) reassignAllSpecies() {
	genomes := make([]Genome, len(p.Genomes))
	copy(genomes, p.Genomes)
	for _, s := range p.SpeciesList {
		s.Individuals = nil
	}
	for _, g := range genomes {
		p.insertIntoSpecies(g)
	}
	p.removeEmptySpecies()
}

// insertIntoSpecies places g into the first compatible existing species
// (by representative distance), or founds a new one.
func (p *Population) insertIntoSpecies(g Genome) {
	for _, s := range p.SpeciesList {
		if len(s.Individuals) == 0 {
			continue
		}
		if g.IsCompatibleWith(s.GetRepresentative(), p.Parameters.CompatTreshold) {
			s.AddIndividual(g)
			return
		}
	}
	ns := NewSpecies(p.nextSpeciesID(), g)
	p.SpeciesList = append(p.SpeciesList, ns)
}
