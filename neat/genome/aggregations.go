package genome

import "sort"

// AggregationFunc combines a node's incoming weighted signals before the
// activation function is applied.
type AggregationFunc func(xs []float64) float64

var aggregationFuncs = map[string]AggregationFunc{
	"sum":     sumAggregation,
	"product": productAggregation,
	"min":     minAggregation,
	"max":     maxAggregation,
	"mean":    meanAggregation,
	"median":  medianAggregation,
}

// Aggregation looks up a named aggregation function. It panics on an
// unknown name for the same reason Activation does.
func Aggregation(name string) AggregationFunc {
	f, ok := aggregationFuncs[name]
	if !ok {
		panic("genome: unknown aggregation function '" + name + "'")
	}
	return f
}

// ValidAggregationName reports whether name is a recognized aggregation.
func ValidAggregationName(name string) bool {
	_, ok := aggregationFuncs[name]
	return ok
}

func sumAggregation(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func productAggregation(xs []float64) float64 {
	p := 1.0
	for _, x := range xs {
		p *= x
	}
	return p
}

func minAggregation(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxAggregation(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func meanAggregation(xs []float64) float64 {
	return sumAggregation(xs) / float64(len(xs))
}

func medianAggregation(xs []float64) float64 {
	cp := make([]float64, len(xs))
	copy(cp, xs)
	sort.Float64s(cp)
	n := len(cp)
	mid := n / 2
	if n%2 == 1 {
		return cp[mid]
	}
	return (cp[mid-1] + cp[mid]) / 2
}
