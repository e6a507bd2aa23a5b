package neat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortIndividualsDescendingByFitness(t *testing.T) {
	s := NewSpecies(0, newMockGenome(0, 1.0))
	s.Individuals = []Genome{
		newMockGenome(1, 3.0),
		newMockGenome(2, 5.0),
		newMockGenome(3, 1.0),
	}
	s.SortIndividuals()

	require.Equal(t, 5.0, s.Individuals[0].Fitness())
	require.Equal(t, 3.0, s.Individuals[1].Fitness())
	require.Equal(t, 1.0, s.Individuals[2].Fitness())
}

func TestAdjustFitnessAppliesSharingAndAgeModifiers(t *testing.T) {
	params := DefaultParameters()
	s := NewSpecies(0, newMockGenome(0, 10.0))
	s.Individuals = []Genome{newMockGenome(0, 10.0), newMockGenome(1, 10.0)}
	s.Age = 1 // younger than YoungAgeTreshold

	s.AdjustFitness(params)

	expected := (10.0 / 2.0) * params.YoungAgeFitnessBoost
	require.InDelta(t, expected, s.Individuals[0].AdjFitness(), 1e-9)
}

func TestAdjustFitnessAppliesStagnationPenaltyUnlessBestSpecies(t *testing.T) {
	params := DefaultParameters()
	s := NewSpecies(0, newMockGenome(0, 10.0))
	s.Individuals = []Genome{newMockGenome(0, 10.0)}
	s.Age = params.OldAgeTreshold + 1
	s.GensNoImprovement = params.SpeciesDropoffAge + 1
	s.IsBestSpecies = false

	s.AdjustFitness(params)
	penalized := s.Individuals[0].AdjFitness()

	s.IsBestSpecies = true
	s.AdjustFitness(params)
	protected := s.Individuals[0].AdjFitness()

	require.Less(t, penalized, protected, "the best species must be immune to the stagnation penalty")
}

func TestKillWorstRetainsAtLeastOne(t *testing.T) {
	s := NewSpecies(0, newMockGenome(0, 1.0))
	s.Individuals = []Genome{newMockGenome(0, 1.0)}
	for _, g := range s.Individuals {
		g.SetEvaluated(true)
	}
	s.KillWorst(0.0)
	require.Len(t, s.Individuals, 1)
}

func TestKillWorstDropsBottomFraction(t *testing.T) {
	s := NewSpecies(0, newMockGenome(0, 1.0))
	s.Individuals = nil
	for i := int64(0); i < 4; i++ {
		g := newMockGenome(i, float64(4-i))
		g.SetEvaluated(true)
		s.Individuals = append(s.Individuals, g)
	}
	s.SortIndividuals()
	s.KillWorst(0.5)
	require.Len(t, s.Individuals, 2)
	require.Equal(t, 4.0, s.Individuals[0].Fitness())
	require.Equal(t, 3.0, s.Individuals[1].Fitness())
}

func TestCountOffspringRoundsToNearestInteger(t *testing.T) {
	s := NewSpecies(0, newMockGenome(0, 1.0))
	s.Individuals = []Genome{newMockGenome(0, 1.0), newMockGenome(1, 1.0)}
	s.Individuals[0].SetOffspringAmount(1.6)
	s.Individuals[1].SetOffspringAmount(1.2)

	got := s.CountOffspring()
	require.Equal(t, 3, got)
}
