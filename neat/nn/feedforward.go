// Package nn builds runnable feed-forward phenotype networks from a
// genome.Genome, via topological sort of its enabled connections.
package nn

import (
	"fmt"
	"sort"

	"github.com/baldhumanity/neatcore/neat/genome"
)

// neuralNode holds pre-fetched activation/aggregation functions and node
// properties for one node during network activation.
type neuralNode struct {
	Key           int64
	Bias          float64
	Response      float64
	ActivationFn  genome.ActivationFunc
	AggregationFn genome.AggregationFunc
	InputKeys     []genome.LinkKey
}

// FeedForwardNetwork is a runnable phenotype network with no cycles.
type FeedForwardNetwork struct {
	InputKeys     []int64
	OutputKeys    []int64
	NodeEvalOrder []int64
	Nodes         map[int64]neuralNode
	Connections   map[genome.LinkKey]genome.ConnectionGene
}

// CreateFeedForwardNetwork builds a runnable network from g. g's
// Config.FeedForwardOnly must be true; a recurrent network builder would
// be a different constructor.
func CreateFeedForwardNetwork(g *genome.Genome) (*FeedForwardNetwork, error) {
	if !g.Config.FeedForwardOnly {
		return nil, fmt.Errorf("cannot create FeedForwardNetwork for a genome configured with FeedForwardOnly=false")
	}

	nodes := make(map[int64]neuralNode)
	connections := make(map[genome.LinkKey]genome.ConnectionGene)
	incoming := make(map[int64][]genome.LinkKey)
	nodeKeys := make(map[int64]bool)

	for _, key := range g.SortedNodeIDs() {
		gn := g.Nodes[key]
		nodes[key] = neuralNode{
			Key:           key,
			Bias:          gn.Bias,
			Response:      gn.Response,
			ActivationFn:  genome.Activation(gn.Activation),
			AggregationFn: genome.Aggregation(gn.Aggregation),
		}
		nodeKeys[key] = true
	}

	for _, key := range g.SortedConnectionKeys() {
		gc, ok := g.Connections[key]
		if !ok || !gc.Enabled {
			continue
		}
		connections[key] = *gc
		incoming[key.ToID] = append(incoming[key.ToID], key)
		nodeKeys[key.FromID] = true
		nodeKeys[key.ToID] = true
	}

	for key, node := range nodes {
		if in, ok := incoming[key]; ok {
			node.InputKeys = in
			nodes[key] = node
		}
	}

	var inputKeys, outputKeys []int64
	for _, key := range g.SortedNodeIDs() {
		switch g.Role(key) {
		case genome.Input:
			inputKeys = append(inputKeys, key)
		case genome.Output:
			outputKeys = append(outputKeys, key)
		}
	}
	for _, ik := range inputKeys {
		nodeKeys[ik] = true
	}

	evalOrder, err := topoSort(nodeKeys, connections)
	if err != nil {
		return nil, err
	}

	inputSet := make(map[int64]bool, len(inputKeys))
	for _, ik := range inputKeys {
		inputSet[ik] = true
	}
	filtered := make([]int64, 0, len(evalOrder))
	for _, nk := range evalOrder {
		if !inputSet[nk] {
			filtered = append(filtered, nk)
		}
	}

	return &FeedForwardNetwork{
		InputKeys:     inputKeys,
		OutputKeys:    outputKeys,
		NodeEvalOrder: filtered,
		Nodes:         nodes,
		Connections:   connections,
	}, nil
}

func topoSort(nodeKeys map[int64]bool, connections map[genome.LinkKey]genome.ConnectionGene) ([]int64, error) {
	inDegree := make(map[int64]int, len(nodeKeys))
	graph := make(map[int64][]int64, len(nodeKeys))
	all := make([]int64, 0, len(nodeKeys))

	for nk := range nodeKeys {
		all = append(all, nk)
		inDegree[nk] = 0
	}
	for key := range connections {
		graph[key.FromID] = append(graph[key.FromID], key.ToID)
		inDegree[key.ToID]++
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	queue := make([]int64, 0)
	for _, nk := range all {
		if inDegree[nk] == 0 {
			queue = append(queue, nk)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i] < queue[j] })

	evalOrder := make([]int64, 0, len(nodeKeys))
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		evalOrder = append(evalOrder, u)

		neighbors := append([]int64(nil), graph[u]...)
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
		for _, v := range neighbors {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
		sort.Slice(queue, func(i, j int) bool { return queue[i] < queue[j] })
	}

	if len(evalOrder) != len(nodeKeys) {
		return nil, fmt.Errorf("failed topological sort: cycle detected or graph issue (expected %d nodes, got %d)", len(nodeKeys), len(evalOrder))
	}
	return evalOrder, nil
}

// Activate computes the network's output for a slice of input values.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(net.InputKeys) {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), len(net.InputKeys))
	}

	nodeValues := make(map[int64]float64, len(net.Nodes))
	for i, ik := range net.InputKeys {
		nodeValues[ik] = inputs[i]
	}

	var incInputsBuffer []float64
	for _, nodeKey := range net.NodeEvalOrder {
		node := net.Nodes[nodeKey]

		if cap(incInputsBuffer) < len(node.InputKeys) {
			incInputsBuffer = make([]float64, 0, len(node.InputKeys))
		}
		incInputs := incInputsBuffer[:0]

		for _, connKey := range node.InputKeys {
			conn := net.Connections[connKey]
			incInputs = append(incInputs, nodeValues[connKey.FromID]*conn.Weight)
		}
		incInputsBuffer = incInputs

		aggregated := node.AggregationFn(incInputs)
		activationInput := (aggregated + node.Bias) * node.Response
		nodeValues[nodeKey] = node.ActivationFn(activationInput)
	}

	outputs := make([]float64, len(net.OutputKeys))
	for i, ok := range net.OutputKeys {
		outputs[i] = nodeValues[ok]
	}
	return outputs, nil
}
