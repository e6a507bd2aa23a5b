package neat

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"
)

// checkpointData is the on-disk shape of a whole-population snapshot,
// adapted from the teacher's PopulationSaveData. It does not hold the RNG
// or Parameters (apart from CompatTreshold), which the caller supplies
// fresh (Parameters can differ intentionally between runs; the RNG
// cannot be gob-encoded meaningfully across process boundaries). It
// also holds no novelty-search state: BehaviorArchive,
// GensSinceLastArchiving, QuickAddCounter and NoveltyPmin are not saved.
type checkpointData struct {
	Genomes     []Genome
	Generation  int
	NumEvaluations int

	BestFitnessEver   float64
	BestGenomeEver    Genome
	CurrentBestGenome Genome

	NextGenomeID  int64
	NextSpeciesID int64

	CompatTreshold float64

	SearchMode              SearchMode
	BaseMPC                 float64
	OldMPC                  float64
	CurrentMPC              float64
	GensSinceMPCLastChanged int

	GensSinceBestFitnessLastChanged int

	InnovationNextNodeID       int64
	InnovationNextInnovationID int64

	SpeciesSnapshots []speciesSnapshot
}

type speciesSnapshot struct {
	ID                int64
	Age               int
	GensNoImprovement int
	BestFitness       float64
	IsBestSpecies     bool
	MemberIDs         []int64
}

// RegisterGenomeType must be called once (with a pointer to a zero
// value of the caller's concrete genome type) before SaveCheckpoint or
// LoadCheckpoint, exactly like the teacher's gob.Register calls for its
// map value types.
func RegisterGenomeType(concrete interface{}) {
	gob.Register(concrete)
}

// SaveCheckpoint gzip+gob encodes the full population state to path, the
// same envelope shape the teacher used for its own checkpoints, adapted
// to snapshot species membership and phased search state instead of a
// bare genome map. Novelty-search state is not written, and
// LoadCheckpoint leaves those fields at their zero values.
func (p *Population) SaveCheckpoint(path string) error {
	data := checkpointData{
		Genomes:                          p.Genomes,
		Generation:                       p.Generation,
		NumEvaluations:                   p.NumEvaluations,
		BestFitnessEver:                  p.BestFitnessEver,
		BestGenomeEver:                   p.BestGenomeEver,
		CurrentBestGenome:                p.CurrentBestGenome,
		NextGenomeID:                     p.nextGenomeIDCounter,
		NextSpeciesID:                    p.nextSpeciesIDCounter,
		CompatTreshold:                   p.Parameters.CompatTreshold,
		SearchMode:                       p.SearchMode,
		BaseMPC:                          p.BaseMPC,
		OldMPC:                           p.OldMPC,
		CurrentMPC:                       p.CurrentMPC,
		GensSinceMPCLastChanged:          p.GensSinceMPCLastChanged,
		GensSinceBestFitnessLastChanged:  p.GensSinceBestFitnessLastChanged,
	}
	data.InnovationNextNodeID, data.InnovationNextInnovationID = p.InnovationDB.Counts()

	for _, s := range p.SpeciesList {
		snap := speciesSnapshot{
			ID:                s.ID,
			Age:               s.Age,
			GensNoImprovement: s.GensNoImprovement,
			BestFitness:       s.BestFitness,
			IsBestSpecies:     s.IsBestSpecies,
		}
		for _, g := range s.Individuals {
			snap.MemberIDs = append(snap.MemberIDs, g.ID())
		}
		data.SpeciesSnapshots = append(data.SpeciesSnapshots, snap)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gw).Encode(data); err != nil {
		return fmt.Errorf("neat: encoding checkpoint: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("neat: closing checkpoint gzip stream: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("neat: writing checkpoint file '%s': %w", path, err)
	}
	return nil
}

// LoadCheckpoint reverses SaveCheckpoint, relinking the loaded genomes
// back into species by the recorded membership order and reattaching
// params (params is supplied by the caller rather than serialized, the
// same relinking step the teacher's LoadCheckpoint performs).
func LoadCheckpoint(path string, params *Parameters, rng *rand.Rand) (*Population, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("neat: reading checkpoint file '%s': %w", path, err)
	}

	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("neat: opening checkpoint gzip stream: %w", err)
	}
	defer gr.Close()

	var data checkpointData
	if err := gob.NewDecoder(gr).Decode(&data); err != nil {
		return nil, fmt.Errorf("neat: decoding checkpoint: %w", err)
	}

	params.CompatTreshold = data.CompatTreshold

	p := &Population{
		Parameters:                      params,
		InnovationDB:                    NewInnovationDatabase(data.InnovationNextInnovationID, data.InnovationNextNodeID),
		RNG:                             rng,
		Genomes:                         data.Genomes,
		Generation:                      data.Generation,
		NumEvaluations:                  data.NumEvaluations,
		BestFitnessEver:                 data.BestFitnessEver,
		BestGenomeEver:                  data.BestGenomeEver,
		CurrentBestGenome:               data.CurrentBestGenome,
		nextGenomeIDCounter:             data.NextGenomeID,
		nextSpeciesIDCounter:            data.NextSpeciesID,
		SearchMode:                      data.SearchMode,
		BaseMPC:                         data.BaseMPC,
		OldMPC:                          data.OldMPC,
		CurrentMPC:                      data.CurrentMPC,
		GensSinceMPCLastChanged:         data.GensSinceMPCLastChanged,
		GensSinceBestFitnessLastChanged: data.GensSinceBestFitnessLastChanged,
	}

	byID := make(map[int64]Genome, len(p.Genomes))
	for _, g := range p.Genomes {
		byID[g.ID()] = g
	}

	for _, snap := range data.SpeciesSnapshots {
		s := &Species{
			ID:                snap.ID,
			Age:               snap.Age,
			GensNoImprovement: snap.GensNoImprovement,
			BestFitness:       snap.BestFitness,
			IsBestSpecies:     snap.IsBestSpecies,
		}
		for _, id := range snap.MemberIDs {
			if g, ok := byID[id]; ok {
				s.Individuals = append(s.Individuals, g)
			}
		}
		if len(s.Individuals) > 0 {
			s.Representative = s.Individuals[0]
			s.BestGenome = s.Individuals[0]
		}
		p.SpeciesList = append(p.SpeciesList, s)
	}

	return p, nil
}
