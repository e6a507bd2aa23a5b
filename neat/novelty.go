package neat

import (
	"math"
	"sort"
)

// ComputeSparseness measures how far g's behavior sits from its
// K-nearest neighbors across the current population and the behavior
// archive, per spec §4.7. It requires g and every population member to
// carry a non-nil PhenotypeBehavior.
func (p *Population) ComputeSparseness(g Genome) float64 {
	behavior := g.PhenotypeBehavior()
	if behavior == nil {
		return 0
	}

	distances := make([]float64, 0, len(p.Genomes)+len(p.BehaviorArchive))
	for _, other := range p.Genomes {
		if other == g {
			continue
		}
		ob := other.PhenotypeBehavior()
		if ob == nil {
			continue
		}
		distances = append(distances, behavior.DistanceTo(ob))
	}
	for _, ab := range p.BehaviorArchive {
		distances = append(distances, behavior.DistanceTo(ab))
	}

	if len(distances) == 0 {
		return 0
	}
	sort.Float64s(distances)

	k := p.Parameters.NoveltySearchK
	if k > len(distances) {
		k = len(distances)
	}
	return mean(distances[:k])
}

// NoveltySearchTick performs one novelty-driven Tick: it periodically
// re-scores the whole population by sparseness, produces one baby via
// Tick, evaluates the baby's behavior, conditionally archives it, and
// adjusts the dynamic P_min, per spec §4.7. It returns the baby and
// whether its behavior met the search's success criterion.
func (p *Population) NoveltySearchTick(deadBehaviorSlot PhenotypeBehavior) (Genome, bool, error) {
	if p.Parameters.NoveltySearchRecomputeSparsenessEach > 0 &&
		p.NumEvaluations%p.Parameters.NoveltySearchRecomputeSparsenessEach == 0 {
		for _, g := range p.Genomes {
			g.SetFitness(p.ComputeSparseness(g))
		}
	}

	baby, err := p.Tick()
	if err != nil {
		return nil, false, err
	}

	if baby.PhenotypeBehavior() == nil && deadBehaviorSlot != nil {
		baby.SetPhenotypeBehavior(deadBehaviorSlot)
	}

	behavior := baby.PhenotypeBehavior()
	if behavior != nil && behavior.Acquire(baby) {
		baby.SetFitness(p.ComputeSparseness(baby))
		baby.SetEvaluated(true)
		return baby, true, nil
	}

	sparseness := p.ComputeSparseness(baby)
	if sparseness > p.NoveltyPmin {
		p.BehaviorArchive = append(p.BehaviorArchive, behavior)
		p.GensSinceLastArchiving = 0
		p.QuickAddCounter++
	} else {
		p.QuickAddCounter = 0
	}

	if p.Parameters.NoveltySearchDynamicPmin {
		p.GensSinceLastArchiving++
		if p.GensSinceLastArchiving > p.Parameters.NoveltySearchNoArchivingStagnationTreshold {
			p.NoveltyPmin = clamp(p.NoveltyPmin*p.Parameters.NoveltySearchPminLoweringMultiplier, p.Parameters.NoveltySearchPminMin, math.Inf(1))
		}
		if p.QuickAddCounter > p.Parameters.NoveltySearchQuickArchivingMinEvaluations {
			p.NoveltyPmin *= p.Parameters.NoveltySearchPminRaisingMultiplier
		}
	}

	baby.SetFitness(sparseness)
	baby.SetEvaluated(true)

	successful := false
	if behavior != nil {
		successful = behavior.Successful()
	}
	return baby, successful, nil
}
