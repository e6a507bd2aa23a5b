package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPopulation(t *testing.T, size int) *Population {
	t.Helper()
	params := DefaultParameters()
	params.PopulationSize = size
	params.MinSpecies = 1
	params.MaxSpecies = size

	p := &Population{
		Parameters:   params,
		InnovationDB: NewInnovationDatabase(0, 0),
		RNG:          rand.New(rand.NewSource(1)),
	}
	for i := 0; i < size; i++ {
		g := newMockGenome(int64(i), float64(i+1))
		g.SetEvaluated(true)
		p.Genomes = append(p.Genomes, g)
	}
	founder := p.Genomes[0]
	sp := NewSpecies(p.nextSpeciesID(), founder)
	sp.Individuals = p.Genomes[:1:1]
	p.SpeciesList = []*Species{sp}
	p.nextGenomeIDCounter = int64(size)
	p.Speciate()
	return p
}

func TestSpeciateAssignsEveryGenomeToExactlyOneSpecies(t *testing.T) {
	p := newTestPopulation(t, 10)

	seen := make(map[int64]int)
	for _, s := range p.SpeciesList {
		for _, g := range s.Individuals {
			seen[g.ID()]++
		}
	}
	require.Len(t, seen, 10)
	for id, count := range seen {
		require.Equal(t, 1, count, "genome %d must belong to exactly one species", id)
	}
}

func TestSortOrdersSpeciesAndMembersDescending(t *testing.T) {
	p := newTestPopulation(t, 5)
	// Force everyone into one species to test member ordering.
	p.SpeciesList[0].Individuals = append([]Genome(nil), p.Genomes...)
	p.SpeciesList = p.SpeciesList[:1]

	p.Sort()

	members := p.SpeciesList[0].Individuals
	for i := 1; i < len(members); i++ {
		require.GreaterOrEqual(t, members[i-1].Fitness(), members[i].Fitness())
	}
}

func TestUpdateSpeciesFlagsAtMostOneBestSpecies(t *testing.T) {
	p := newTestPopulation(t, 6)
	p.Sort()
	p.updateSpecies()

	best := 0
	for _, s := range p.SpeciesList {
		if s.IsBestSpecies {
			best++
		}
	}
	require.LessOrEqual(t, best, 1)
}

func TestEpochConservesPopulationSize(t *testing.T) {
	p := newTestPopulation(t, 20)
	err := p.Epoch()
	require.NoError(t, err)

	total := 0
	for _, s := range p.SpeciesList {
		total += len(s.Individuals)
	}
	require.Equal(t, p.Parameters.PopulationSize, total)
	require.Equal(t, p.Parameters.PopulationSize, len(p.Genomes))
}

// TestEpochConservesPopulationSizeOverManyGenerations guards against the
// reproduction pass silently growing the population: a leak that only
// carrying survivors never selected as mates forward would compound over
// successive generations instead of showing up after a single Epoch.
func TestEpochConservesPopulationSizeOverManyGenerations(t *testing.T) {
	p := newTestPopulation(t, 20)
	for gen := 0; gen < 25; gen++ {
		require.NoError(t, p.Epoch())
		require.Equal(t, p.Parameters.PopulationSize, len(p.Genomes), "generation %d", gen)

		total := 0
		for _, s := range p.SpeciesList {
			total += len(s.Individuals)
		}
		require.Equal(t, p.Parameters.PopulationSize, total, "generation %d", gen)

		for _, g := range p.Genomes {
			g.SetEvaluated(true)
		}
	}
}

func TestEpochRemovesEmptySpecies(t *testing.T) {
	p := newTestPopulation(t, 10)
	p.SpeciesList = append(p.SpeciesList, &Species{ID: 99})
	before := len(p.SpeciesList)

	require.NoError(t, p.Epoch())

	for _, s := range p.SpeciesList {
		require.NotZero(t, len(s.Individuals))
	}
	require.Less(t, len(p.SpeciesList), before+1)
}

func TestBestFitnessEverIsMonotonic(t *testing.T) {
	p := newTestPopulation(t, 15)
	last := p.BestFitnessEver
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Epoch())
		require.GreaterOrEqual(t, p.BestFitnessEver, last)
		last = p.BestFitnessEver
		for _, g := range p.Genomes {
			g.SetEvaluated(true)
		}
	}
}

func TestTickConservesPopulationSize(t *testing.T) {
	p := newTestPopulation(t, 15)
	for _, g := range p.Genomes {
		g.SetAdjFitness(g.Fitness())
	}

	before := len(p.Genomes)
	baby, err := p.Tick()
	require.NoError(t, err)
	require.NotNil(t, baby)

	after := 0
	for _, s := range p.SpeciesList {
		after += len(s.Individuals)
	}
	require.Equal(t, before, after)
}
