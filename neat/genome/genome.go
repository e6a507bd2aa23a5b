// Package genome provides a concrete, runnable implementation of the
// neat.Genome interface: NEAT-style nodes and connections, structural
// and attribute mutation, crossover, and compatibility distance.
package genome

import (
	"fmt"
	"math/rand"

	"github.com/baldhumanity/neatcore/neat"
)

// NodeRole distinguishes input/output nodes (whose count and identity
// are fixed at genome creation) from hidden nodes (created by
// structural mutation).
type NodeRole int

const (
	Input NodeRole = iota
	Output
	Hidden
)

// Genome is a NEAT genotype: a set of node genes and connection genes,
// satisfying neat.Genome.
type Genome struct {
	id int64

	Config *Config

	Nodes       map[int64]*NodeGene
	Roles       map[int64]NodeRole
	Connections map[LinkKey]*ConnectionGene

	// nodeOrder and connOrder record insertion order for deterministic
	// iteration (map iteration order in Go is randomized).
	nodeOrder []int64
	connOrder []LinkKey

	fitness         float64
	adjFitness      float64
	offspringAmount float64
	evaluated       bool

	behavior neat.PhenotypeBehavior
}

// NewSeedGenome builds the founding genome for a run: cfg.NumInputs
// input nodes, cfg.NumOutputs output nodes, and initial connections laid
// out according to cfg.InitialConnection, per the teacher's
// ConfigureNew + setupInitialConnections.
func NewSeedGenome(cfg *Config, db *neat.InnovationDatabase, rng *rand.Rand) *Genome {
	g := &Genome{
		Config:      cfg,
		Nodes:       make(map[int64]*NodeGene),
		Roles:       make(map[int64]NodeRole),
		Connections: make(map[LinkKey]*ConnectionGene),
	}

	inputIDs := make([]int64, cfg.NumInputs)
	for i := 0; i < cfg.NumInputs; i++ {
		id := db.NextNodeID()
		inputIDs[i] = id
		g.addNode(id, Input, cfg, rng)
	}

	outputIDs := make([]int64, cfg.NumOutputs)
	for i := 0; i < cfg.NumOutputs; i++ {
		id := db.NextNodeID()
		outputIDs[i] = id
		g.addNode(id, Output, cfg, rng)
	}

	g.setupInitialConnections(cfg, db, rng, inputIDs, outputIDs)
	return g
}

func (g *Genome) addNode(id int64, role NodeRole, cfg *Config, rng *rand.Rand) {
	g.Nodes[id] = &NodeGene{
		ID:          id,
		Bias:        initGaussian(rng, cfg.BiasInitMean, cfg.BiasInitStdev, cfg.BiasMinValue, cfg.BiasMaxValue),
		Response:    initGaussian(rng, cfg.ResponseInitMean, cfg.ResponseInitStdev, cfg.ResponseMinValue, cfg.ResponseMaxValue),
		Activation:  cfg.ActivationDefault,
		Aggregation: cfg.AggregationDefault,
	}
	g.Roles[id] = role
	g.nodeOrder = append(g.nodeOrder, id)
}

func (g *Genome) setupInitialConnections(cfg *Config, db *neat.InnovationDatabase, rng *rand.Rand, inputIDs, outputIDs []int64) {
	switch cfg.InitialConnection {
	case Unconnected:
		return
	case FSNeat, FSNeatNoHidden:
		out := outputIDs[rng.Intn(len(outputIDs))]
		in := inputIDs[rng.Intn(len(inputIDs))]
		g.addInitialConnection(in, out, cfg, db, rng)
	case Full, FullNoDirect:
		for _, in := range inputIDs {
			for _, out := range outputIDs {
				g.addInitialConnection(in, out, cfg, db, rng)
			}
		}
	case Partial, PartialNoDirect:
		for _, in := range inputIDs {
			for _, out := range outputIDs {
				if rng.Float64() < cfg.ConnectionFraction {
					g.addInitialConnection(in, out, cfg, db, rng)
				}
			}
		}
	default:
		panic(fmt.Sprintf("genome: unhandled initial_connection %q", cfg.InitialConnection))
	}
}

func (g *Genome) addInitialConnection(in, out int64, cfg *Config, db *neat.InnovationDatabase, rng *rand.Rand) {
	innovationID := db.RegisterLink(in, out)
	key := LinkKey{FromID: in, ToID: out}
	g.Connections[key] = &ConnectionGene{
		Key:          key,
		InnovationID: innovationID,
		Weight:       initGaussian(rng, cfg.WeightInitMean, cfg.WeightInitStdev, cfg.WeightMinValue, cfg.WeightMaxValue),
		Enabled:      true,
	}
	g.connOrder = append(g.connOrder, key)
}

// --- neat.Genome interface ---

func (g *Genome) ID() int64      { return g.id }
func (g *Genome) SetID(id int64) { g.id = id }

func (g *Genome) Fitness() float64      { return g.fitness }
func (g *Genome) SetFitness(f float64)  { g.fitness = f }

func (g *Genome) AdjFitness() float64     { return g.adjFitness }
func (g *Genome) SetAdjFitness(f float64) { g.adjFitness = f }

func (g *Genome) OffspringAmount() float64     { return g.offspringAmount }
func (g *Genome) SetOffspringAmount(a float64) { g.offspringAmount = a }

func (g *Genome) Evaluated() bool     { return g.evaluated }
func (g *Genome) SetEvaluated(v bool) { g.evaluated = v }

// NumLinks returns the number of enabled connections, the unit of
// complexity used by mean population complexity.
func (g *Genome) NumLinks() int {
	n := 0
	for _, c := range g.Connections {
		if c.Enabled {
			n++
		}
	}
	return n
}

func (g *Genome) NumInputs() int  { return g.countRole(Input) }
func (g *Genome) NumOutputs() int { return g.countRole(Output) }

func (g *Genome) countRole(role NodeRole) int {
	n := 0
	for _, r := range g.Roles {
		if r == role {
			n++
		}
	}
	return n
}

// CompatibilityDistance computes c1*disjoint/N + c2*avgWeightDiff over
// matching genes, the teacher's simplified Distance formula. Genes align
// by Key (endpoint node IDs) rather than InnovationID, since Key stays
// stable across an InnovationDatabase Flush while a raw innovation ID
// would not.
func (g *Genome) CompatibilityDistance(otherGenome neat.Genome) float64 {
	other := otherGenome.(*Genome)

	matching := 0
	disjoint := 0
	var weightDiffSum float64

	seen := make(map[LinkKey]bool, len(g.Connections))
	for key, c := range g.Connections {
		seen[key] = true
		if oc, ok := other.Connections[key]; ok {
			matching++
			weightDiffSum += absFloat(c.Weight - oc.Weight)
		} else {
			disjoint++
		}
	}
	for key := range other.Connections {
		if !seen[key] {
			disjoint++
		}
	}

	n := len(g.Connections)
	if len(other.Connections) > n {
		n = len(other.Connections)
	}
	if n < 20 {
		n = 1
	}

	avgWeightDiff := 0.0
	if matching > 0 {
		avgWeightDiff = weightDiffSum / float64(matching)
	}

	c1 := g.Config.CompatibilityDisjointCoefficient
	c2 := g.Config.CompatibilityWeightCoefficient
	return c1*float64(disjoint)/float64(n) + c2*avgWeightDiff
}

func (g *Genome) IsCompatibleWith(other neat.Genome, treshold float64) bool {
	return g.CompatibilityDistance(other) <= treshold
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// RandomizeLinkWeights redraws every connection weight uniformly in
// [-rnge, rnge].
func (g *Genome) RandomizeLinkWeights(rnge float64, rng *rand.Rand) {
	for _, c := range g.Connections {
		c.Weight = (rng.Float64()*2 - 1) * rnge
	}
}

// Clone returns a deep, independent copy of the genome. The
// PhenotypeBehavior slot is not copied: the clone starts with none.
func (g *Genome) Clone() neat.Genome {
	cp := &Genome{
		id:              g.id,
		Config:          g.Config,
		Nodes:           make(map[int64]*NodeGene, len(g.Nodes)),
		Roles:           make(map[int64]NodeRole, len(g.Roles)),
		Connections:     make(map[LinkKey]*ConnectionGene, len(g.Connections)),
		nodeOrder:       append([]int64(nil), g.nodeOrder...),
		connOrder:       append([]LinkKey(nil), g.connOrder...),
		fitness:         g.fitness,
		adjFitness:      g.adjFitness,
		offspringAmount: g.offspringAmount,
		evaluated:       g.evaluated,
	}
	for id, n := range g.Nodes {
		cp.Nodes[id] = n.clone()
	}
	for id, r := range g.Roles {
		cp.Roles[id] = r
	}
	for key, c := range g.Connections {
		cp.Connections[key] = c.clone()
	}
	return cp
}

func (g *Genome) PhenotypeBehavior() neat.PhenotypeBehavior { return g.behavior }
func (g *Genome) SetPhenotypeBehavior(b neat.PhenotypeBehavior) { g.behavior = b }

// Mutate applies structural mutation (add node / add connection / delete
// connection, gated by SearchMode) then attribute mutation, per the
// teacher's Genome.Mutate.
func (g *Genome) Mutate(db *neat.InnovationDatabase, mode neat.SearchMode, rng *rand.Rand) {
	cfg := g.Config

	nodeAddProb := cfg.NodeAddProb
	connAddProb := cfg.ConnAddProb
	connDeleteProb := cfg.ConnDeleteProb
	nodeDeleteProb := cfg.NodeDeleteProb

	if mode == neat.Simplifying {
		nodeAddProb = 0
		connAddProb = 0
		connDeleteProb *= 2
		nodeDeleteProb *= 2
	}

	if cfg.SingleStructuralMutation {
		roll := rng.Float64()
		total := nodeAddProb + connAddProb + connDeleteProb + nodeDeleteProb
		if total > 0 {
			switch {
			case roll < nodeAddProb/total:
				g.mutateAddNode(db, rng)
			case roll < (nodeAddProb+connAddProb)/total:
				g.mutateAddConnection(db, rng)
			case roll < (nodeAddProb+connAddProb+connDeleteProb)/total:
				g.mutateDeleteConnection(rng)
			default:
				g.mutateDeleteNode(rng)
			}
		}
	} else {
		if rng.Float64() < nodeAddProb {
			g.mutateAddNode(db, rng)
		}
		if rng.Float64() < connAddProb {
			g.mutateAddConnection(db, rng)
		}
		if rng.Float64() < connDeleteProb {
			g.mutateDeleteConnection(rng)
		}
		if rng.Float64() < nodeDeleteProb {
			g.mutateDeleteNode(rng)
		}
	}

	g.mutateAttributes(rng)
}

func (g *Genome) mutateAddNode(db *neat.InnovationDatabase, rng *rand.Rand) {
	if len(g.connOrder) == 0 {
		return
	}
	key := g.connOrder[rng.Intn(len(g.connOrder))]
	conn, ok := g.Connections[key]
	if !ok || !conn.Enabled {
		return
	}

	newNodeID, inInnov, outInnov := db.RegisterNeuronSplit(key.FromID, key.ToID)

	conn.Enabled = false

	g.addNode(newNodeID, Hidden, g.Config, rng)

	inKey := LinkKey{FromID: key.FromID, ToID: newNodeID}
	g.Connections[inKey] = &ConnectionGene{Key: inKey, InnovationID: inInnov, Weight: 1.0, Enabled: true}
	g.connOrder = append(g.connOrder, inKey)

	outKey := LinkKey{FromID: newNodeID, ToID: key.ToID}
	g.Connections[outKey] = &ConnectionGene{Key: outKey, InnovationID: outInnov, Weight: conn.Weight, Enabled: true}
	g.connOrder = append(g.connOrder, outKey)
}

func (g *Genome) mutateAddConnection(db *neat.InnovationDatabase, rng *rand.Rand) {
	for attempt := 0; attempt < g.Config.MaxAddConnectionAttempts; attempt++ {
		from := g.nodeOrder[rng.Intn(len(g.nodeOrder))]
		to := g.nodeOrder[rng.Intn(len(g.nodeOrder))]

		if g.Roles[to] == Input {
			continue
		}
		if from == to {
			continue
		}
		key := LinkKey{FromID: from, ToID: to}
		if _, exists := g.Connections[key]; exists {
			continue
		}
		if g.Config.FeedForwardOnly && g.createsCycle(from, to) {
			continue
		}

		innovationID := db.RegisterLink(from, to)
		g.Connections[key] = &ConnectionGene{
			Key:          key,
			InnovationID: innovationID,
			Weight:       initGaussian(rng, g.Config.WeightInitMean, g.Config.WeightInitStdev, g.Config.WeightMinValue, g.Config.WeightMaxValue),
			Enabled:      true,
		}
		g.connOrder = append(g.connOrder, key)
		return
	}
}

func (g *Genome) mutateDeleteConnection(rng *rand.Rand) {
	if len(g.connOrder) == 0 {
		return
	}
	idx := rng.Intn(len(g.connOrder))
	key := g.connOrder[idx]
	delete(g.Connections, key)
	g.connOrder = append(g.connOrder[:idx], g.connOrder[idx+1:]...)
}

func (g *Genome) mutateDeleteNode(rng *rand.Rand) {
	hidden := make([]int64, 0)
	for _, id := range g.nodeOrder {
		if g.Roles[id] == Hidden {
			hidden = append(hidden, id)
		}
	}
	if len(hidden) == 0 {
		return
	}
	victim := hidden[rng.Intn(len(hidden))]

	remainingConns := g.connOrder[:0:0]
	for _, key := range g.connOrder {
		if key.FromID == victim || key.ToID == victim {
			delete(g.Connections, key)
			continue
		}
		remainingConns = append(remainingConns, key)
	}
	g.connOrder = remainingConns

	delete(g.Nodes, victim)
	delete(g.Roles, victim)
	for i, id := range g.nodeOrder {
		if id == victim {
			g.nodeOrder = append(g.nodeOrder[:i], g.nodeOrder[i+1:]...)
			break
		}
	}
}

// createsCycle reports whether adding from->to would create a directed
// cycle, via BFS reachability from `to` back to `from`.
func (g *Genome) createsCycle(from, to int64) bool {
	if from == to {
		return true
	}
	visited := map[int64]bool{to: true}
	queue := []int64{to}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == from {
			return true
		}
		for _, key := range g.connOrder {
			if key.FromID != cur {
				continue
			}
			if !visited[key.ToID] {
				visited[key.ToID] = true
				queue = append(queue, key.ToID)
			}
		}
	}
	return false
}

func (g *Genome) mutateAttributes(rng *rand.Rand) {
	cfg := g.Config
	activationOpts := cfg.activationOptionsList()
	aggregationOpts := cfg.aggregationOptionsList()

	for _, n := range g.Nodes {
		n.Bias = mutateGaussian(rng, n.Bias, cfg.BiasMutatePower, cfg.BiasMutateRate, cfg.BiasReplaceRate, cfg.BiasInitMean, cfg.BiasInitStdev, cfg.BiasMinValue, cfg.BiasMaxValue)
		n.Response = mutateGaussian(rng, n.Response, cfg.ResponseMutatePower, cfg.ResponseMutateRate, cfg.ResponseReplaceRate, cfg.ResponseInitMean, cfg.ResponseInitStdev, cfg.ResponseMinValue, cfg.ResponseMaxValue)
		n.Activation = mutateStringAttribute(rng, n.Activation, activationOpts, cfg.ActivationMutateRate)
		n.Aggregation = mutateStringAttribute(rng, n.Aggregation, aggregationOpts, cfg.AggregationMutateRate)
	}
	for _, c := range g.Connections {
		c.Weight = mutateGaussian(rng, c.Weight, cfg.WeightMutatePower, cfg.WeightMutateRate, cfg.WeightReplaceRate, cfg.WeightInitMean, cfg.WeightInitStdev, cfg.WeightMinValue, cfg.WeightMaxValue)
		c.Enabled = mutateBoolAttribute(rng, c.Enabled, cfg.EnabledMutateRate)
	}
}

// Crossover combines g (assumed the fitter parent by convention) with
// other, aligning homologous genes by key and inheriting disjoint/excess
// genes from g only, per the teacher's ConfigureCrossover.
func (g *Genome) Crossover(otherGenome neat.Genome, rng *rand.Rand) neat.Genome {
	other := otherGenome.(*Genome)

	child := &Genome{
		Config:      g.Config,
		Nodes:       make(map[int64]*NodeGene, len(g.Nodes)),
		Roles:       make(map[int64]NodeRole, len(g.Roles)),
		Connections: make(map[LinkKey]*ConnectionGene, len(g.Connections)),
	}

	for _, id := range g.nodeOrder {
		child.Nodes[id] = g.Nodes[id].clone()
		child.Roles[id] = g.Roles[id]
		child.nodeOrder = append(child.nodeOrder, id)
	}

	for _, key := range g.connOrder {
		gc := g.Connections[key]
		var inherited *ConnectionGene
		if oc, ok := other.Connections[key]; ok {
			if rng.Float64() < 0.5 {
				inherited = gc.clone()
			} else {
				inherited = oc.clone()
			}
			if !gc.Enabled || !oc.Enabled {
				inherited.Enabled = rng.Float64() >= 0.75
			}
		} else {
			inherited = gc.clone()
		}
		child.Connections[key] = inherited
		child.connOrder = append(child.connOrder, key)
	}

	return child
}

// SortedNodeIDs returns node IDs in stable insertion order, used by
// package nn to build a deterministic phenotype network.
func (g *Genome) SortedNodeIDs() []int64 {
	return append([]int64(nil), g.nodeOrder...)
}

// SortedConnectionKeys returns connection keys in stable insertion order.
func (g *Genome) SortedConnectionKeys() []LinkKey {
	return append([]LinkKey(nil), g.connOrder...)
}

// Role reports whether id is an input, output, or hidden node.
func (g *Genome) Role(id int64) NodeRole { return g.Roles[id] }
