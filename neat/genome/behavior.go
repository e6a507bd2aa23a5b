package genome

import (
	"math"

	"github.com/baldhumanity/neatcore/neat"
)

// EvalFunc runs a genome's phenotype across a fixed input grid and
// returns its flattened output vector. OutputBehavior calls it once per
// Acquire; the concrete network construction lives in package nn, kept
// decoupled here to avoid an import cycle (nn already imports genome).
type EvalFunc func(g neat.Genome) []float64

// OutputBehavior is a neat.PhenotypeBehavior that records a genome's
// output vector across a fixed evaluation grid and measures novelty as
// Euclidean distance between output vectors — the same shape as
// MultiNEAT's PhenotypeBehavior (Acquire / Distance_To / Successful),
// specialized to plain output-space novelty.
type OutputBehavior struct {
	Eval      EvalFunc
	Target    []float64
	Tolerance float64

	outputs []float64
}

// NewOutputBehavior builds a behavior descriptor that judges success by
// closeness to target within tolerance (per output component).
func NewOutputBehavior(eval EvalFunc, target []float64, tolerance float64) *OutputBehavior {
	return &OutputBehavior{Eval: eval, Target: target, Tolerance: tolerance}
}

// Acquire records g's output vector. It never signals immediate success
// on its own; Successful is checked separately after acquisition.
func (b *OutputBehavior) Acquire(g neat.Genome) bool {
	b.outputs = b.Eval(g)
	return false
}

// DistanceTo returns the Euclidean distance between two recorded output
// vectors.
func (b *OutputBehavior) DistanceTo(other neat.PhenotypeBehavior) float64 {
	ob, ok := other.(*OutputBehavior)
	if !ok || ob == nil {
		return 0
	}
	n := len(b.outputs)
	if len(ob.outputs) < n {
		n = len(ob.outputs)
	}
	var sumSq float64
	for i := 0; i < n; i++ {
		d := b.outputs[i] - ob.outputs[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq)
}

// Successful reports whether every recorded output is within Tolerance
// of the target vector.
func (b *OutputBehavior) Successful() bool {
	if len(b.outputs) != len(b.Target) {
		return false
	}
	for i, target := range b.Target {
		if math.Abs(b.outputs[i]-target) > b.Tolerance {
			return false
		}
	}
	return true
}
