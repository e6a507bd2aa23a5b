package neat

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// GenomeCodec lets the core serialize and deserialize opaque genomes
// without inspecting their internal structure, per spec §6.3. A
// concrete implementation lives alongside the concrete Genome type
// (package genome).
type GenomeCodec interface {
	Encode(w io.Writer, g Genome) error
	Decode(r *bufio.Reader) (Genome, error)
}

// Save writes the population in the line-oriented text format of
// spec §6.3: a genome count, the current compatibility threshold, the
// innovation database block, then one genome block per member in
// species-major, member-major order.
func (p *Population) Save(w io.Writer, codec GenomeCodec) error {
	if _, err := fmt.Fprintf(w, "Genomes: %d\n", len(p.Genomes)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Compatibility: %3.5f\n\n", p.Parameters.CompatTreshold); err != nil {
		return err
	}

	nextNodeID, nextInnovationID := p.InnovationDB.Counts()
	if _, err := fmt.Fprintf(w, "InnovationDatabase: %d %d\n\n", nextNodeID, nextInnovationID); err != nil {
		return err
	}

	for _, s := range p.SpeciesList {
		for _, g := range s.Individuals {
			if err := codec.Encode(w, g); err != nil {
				return fmt.Errorf("neat: encoding genome %d: %w", g.ID(), err)
			}
		}
	}
	return nil
}

// LoadPopulation reads back a population saved with Save. next_genome_id
// is reinitialized to max(genome_id)+1 as spec §6.3 requires.
func LoadPopulation(r io.Reader, params *Parameters, codec GenomeCodec) (*Population, error) {
	br := bufio.NewReader(r)

	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("neat: reading genome count: %w", err)
	}
	var count int
	if _, err := fmt.Sscanf(strings.TrimSpace(header), "Genomes: %d", &count); err != nil {
		return nil, fmt.Errorf("neat: malformed genome count line %q: %w", header, err)
	}

	compatLine, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("neat: reading compatibility line: %w", err)
	}
	var compat float64
	if _, err := fmt.Sscanf(strings.TrimSpace(compatLine), "Compatibility: %f", &compat); err != nil {
		return nil, fmt.Errorf("neat: malformed compatibility line %q: %w", compatLine, err)
	}

	if _, err := br.ReadString('\n'); err != nil { // blank line
		return nil, err
	}

	dbLine, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("neat: reading innovation database line: %w", err)
	}
	var nextNodeID, nextInnovationID int64
	if _, err := fmt.Sscanf(strings.TrimSpace(dbLine), "InnovationDatabase: %d %d", &nextNodeID, &nextInnovationID); err != nil {
		return nil, fmt.Errorf("neat: malformed innovation database line %q: %w", dbLine, err)
	}
	if _, err := br.ReadString('\n'); err != nil { // blank line
		return nil, err
	}

	p := &Population{
		Parameters:   params,
		InnovationDB: NewInnovationDatabase(nextInnovationID, nextNodeID),
	}
	p.Parameters.CompatTreshold = compat

	var maxGenomeID int64 = -1
	for i := 0; i < count; i++ {
		g, err := codec.Decode(br)
		if err != nil {
			return nil, fmt.Errorf("neat: decoding genome %d: %w", i, err)
		}
		if g.ID() > maxGenomeID {
			maxGenomeID = g.ID()
		}
		p.Genomes = append(p.Genomes, g)
	}
	p.nextGenomeIDCounter = maxGenomeID + 1

	founder := p.Genomes[0]
	sp := NewSpecies(0, founder)
	sp.Individuals = p.Genomes[:1:1]
	p.SpeciesList = []*Species{sp}
	p.nextSpeciesIDCounter = 1
	p.Speciate()

	return p, nil
}
