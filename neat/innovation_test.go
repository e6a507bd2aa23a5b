package neat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterLinkIsIdempotentWithinGeneration(t *testing.T) {
	db := NewInnovationDatabase(0, 0)

	id1 := db.RegisterLink(1, 2)
	id2 := db.RegisterLink(1, 2)
	require.Equal(t, id1, id2, "registering the same link twice must return the same innovation ID")

	id3 := db.RegisterLink(2, 3)
	require.NotEqual(t, id1, id3, "distinct links must receive distinct innovation IDs")
}

func TestRegisterNeuronSplitReusesNodeAndLinkIDs(t *testing.T) {
	db := NewInnovationDatabase(0, 10)

	node1, in1, out1 := db.RegisterNeuronSplit(1, 2)
	node2, in2, out2 := db.RegisterNeuronSplit(1, 2)

	require.Equal(t, node1, node2, "splitting the same link twice must yield the same new node ID")
	require.Equal(t, in1, in2)
	require.Equal(t, out1, out2)
}

func TestFlushForgetsMappingsButKeepsCounters(t *testing.T) {
	db := NewInnovationDatabase(0, 0)

	first := db.RegisterLink(5, 6)
	db.Flush()
	second := db.RegisterLink(5, 6)

	require.NotEqual(t, first, second, "after flush, a previously-seen link must receive a fresh innovation ID")
}

func TestNextNodeIDIsMonotonic(t *testing.T) {
	db := NewInnovationDatabase(0, 100)
	a := db.NextNodeID()
	b := db.NextNodeID()
	require.Equal(t, a+1, b)
}
