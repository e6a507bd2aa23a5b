package genome

import (
	"bytes"
	"encoding/gob"
)

// gobShadow mirrors Genome's unexported fields with exported ones so
// gob (which only sees exported fields) can round-trip a Genome. The
// Config pointer is deliberately excluded — it is relinked by the
// caller after decode, the same relinking step the teacher's
// checkpoint.go performs for its own Config.
type gobShadow struct {
	ID              int64
	Nodes           map[int64]*NodeGene
	Roles           map[int64]NodeRole
	Connections     map[LinkKey]*ConnectionGene
	NodeOrder       []int64
	ConnOrder       []LinkKey
	Fitness         float64
	AdjFitness      float64
	OffspringAmount float64
	Evaluated       bool
}

// GobEncode implements gob.GobEncoder.
func (g *Genome) GobEncode() ([]byte, error) {
	shadow := gobShadow{
		ID:              g.id,
		Nodes:           g.Nodes,
		Roles:           g.Roles,
		Connections:     g.Connections,
		NodeOrder:       g.nodeOrder,
		ConnOrder:       g.connOrder,
		Fitness:         g.fitness,
		AdjFitness:      g.adjFitness,
		OffspringAmount: g.offspringAmount,
		Evaluated:       g.evaluated,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(shadow); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder. The behavior slot and Config are
// left nil/unset; callers relink Config after decode.
func (g *Genome) GobDecode(data []byte) error {
	var shadow gobShadow
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&shadow); err != nil {
		return err
	}
	g.id = shadow.ID
	g.Nodes = shadow.Nodes
	g.Roles = shadow.Roles
	g.Connections = shadow.Connections
	g.nodeOrder = shadow.NodeOrder
	g.connOrder = shadow.ConnOrder
	g.fitness = shadow.Fitness
	g.adjFitness = shadow.AdjFitness
	g.offspringAmount = shadow.OffspringAmount
	g.evaluated = shadow.Evaluated
	return nil
}
