package genome

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/baldhumanity/neatcore/neat"
)

// Codec implements neat.GenomeCodec for the concrete Genome type. The
// evolutionary core never inspects this format; it only calls Encode and
// Decode around it.
type Codec struct {
	Config *Config
}

// Encode writes one genome block:
//
//	Genome <id> fitness=<f> nodes=<n> conns=<c>
//	node <id> <role> <bias> <response> <activation> <aggregation>
//	...
//	conn <from> <to> <innovation> <weight> <enabled>
//	...
//	<blank line>
func (codec Codec) Encode(w io.Writer, genome neat.Genome) error {
	g := genome.(*Genome)
	if _, err := fmt.Fprintf(w, "Genome %d fitness=%.10f nodes=%d conns=%d\n",
		g.ID(), g.Fitness(), len(g.nodeOrder), len(g.connOrder)); err != nil {
		return err
	}
	for _, id := range g.nodeOrder {
		n := g.Nodes[id]
		if _, err := fmt.Fprintf(w, "node %d %d %.10f %.10f %s %s\n",
			id, g.Roles[id], n.Bias, n.Response, n.Activation, n.Aggregation); err != nil {
			return err
		}
	}
	for _, key := range g.connOrder {
		c := g.Connections[key]
		if _, err := fmt.Fprintf(w, "conn %d %d %d %.10f %t\n", key.FromID, key.ToID, c.InnovationID, c.Weight, c.Enabled); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, "\n"); err != nil {
		return err
	}
	return nil
}

// Decode reads back one genome block written by Encode.
func (codec Codec) Decode(r *bufio.Reader) (neat.Genome, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("genome: reading header: %w", err)
	}
	fields := strings.Fields(header)
	if len(fields) < 5 || fields[0] != "Genome" {
		return nil, fmt.Errorf("genome: malformed header %q", header)
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("genome: parsing id: %w", err)
	}
	var fitness float64
	if _, err := fmt.Sscanf(fields[2], "fitness=%f", &fitness); err != nil {
		return nil, fmt.Errorf("genome: parsing fitness: %w", err)
	}
	var numNodes, numConns int
	if _, err := fmt.Sscanf(fields[3], "nodes=%d", &numNodes); err != nil {
		return nil, fmt.Errorf("genome: parsing node count: %w", err)
	}
	if _, err := fmt.Sscanf(fields[4], "conns=%d", &numConns); err != nil {
		return nil, fmt.Errorf("genome: parsing conn count: %w", err)
	}

	g := &Genome{
		id:          id,
		Config:      codec.Config,
		Nodes:       make(map[int64]*NodeGene, numNodes),
		Roles:       make(map[int64]NodeRole, numNodes),
		Connections: make(map[LinkKey]*ConnectionGene, numConns),
	}
	g.SetFitness(fitness)

	for i := 0; i < numNodes; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("genome: reading node line: %w", err)
		}
		f := strings.Fields(line)
		if len(f) < 7 || f[0] != "node" {
			return nil, fmt.Errorf("genome: malformed node line %q", line)
		}
		nodeID, _ := strconv.ParseInt(f[1], 10, 64)
		role, _ := strconv.Atoi(f[2])
		bias, _ := strconv.ParseFloat(f[3], 64)
		response, _ := strconv.ParseFloat(f[4], 64)
		g.Nodes[nodeID] = &NodeGene{ID: nodeID, Bias: bias, Response: response, Activation: f[5], Aggregation: f[6]}
		g.Roles[nodeID] = NodeRole(role)
		g.nodeOrder = append(g.nodeOrder, nodeID)
	}

	for i := 0; i < numConns; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("genome: reading conn line: %w", err)
		}
		f := strings.Fields(line)
		if len(f) < 6 || f[0] != "conn" {
			return nil, fmt.Errorf("genome: malformed conn line %q", line)
		}
		from, _ := strconv.ParseInt(f[1], 10, 64)
		to, _ := strconv.ParseInt(f[2], 10, 64)
		innovationID, _ := strconv.ParseInt(f[3], 10, 64)
		weight, _ := strconv.ParseFloat(f[4], 64)
		enabled := f[5] == "true"
		key := LinkKey{FromID: from, ToID: to}
		g.Connections[key] = &ConnectionGene{Key: key, InnovationID: innovationID, Weight: weight, Enabled: enabled}
		g.connOrder = append(g.connOrder, key)
	}

	if _, err := r.ReadString('\n'); err != nil { // trailing blank line
		return nil, err
	}

	return g, nil
}
