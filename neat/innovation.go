package neat

import "sync"

// LinkKey identifies a structural link by its endpoint node IDs, the unit
// of deduplication for innovation numbers (spec.md §4.1).
type LinkKey struct {
	FromID int64
	ToID   int64
}

// InnovationDatabase assigns stable, monotonically increasing IDs to
// structural mutations (new links and new nodes born from splitting a
// link) so that equivalent structural changes made independently in two
// genomes end up sharing the same ID. This is the registry the teacher's
// map-key-as-implicit-ID scheme never had; every mutation operator that
// changes topology must go through it.
type InnovationDatabase struct {
	mu sync.Mutex

	nextNodeID       int64
	nextInnovationID int64

	// links maps an already-seen (from,to) pair to the innovation ID
	// assigned the first time it appeared this "epoch" of the database.
	links map[LinkKey]int64
	// splits maps an already-split link to the node ID created when it was
	// first split, so that splitting the same link in two genomes yields
	// the same new node.
	splits map[LinkKey]int64
}

// NewInnovationDatabase creates a database whose node/innovation ID
// counters start at startNodeID/startInnovationID respectively: the
// first IDs handed out are those values themselves, and only IDs below
// them are treated as already reserved.
func NewInnovationDatabase(startInnovationID, startNodeID int64) *InnovationDatabase {
	return &InnovationDatabase{
		nextNodeID:       startNodeID,
		nextInnovationID: startInnovationID,
		links:            make(map[LinkKey]int64),
		splits:           make(map[LinkKey]int64),
	}
}

// RegisterLink returns the innovation ID for a new connection between
// fromID and toID, reusing a previously assigned ID for the same pair
// when one exists.
func (db *InnovationDatabase) RegisterLink(fromID, toID int64) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := LinkKey{FromID: fromID, ToID: toID}
	if id, ok := db.links[key]; ok {
		return id
	}
	id := db.nextInnovationID
	db.nextInnovationID++
	db.links[key] = id
	return id
}

// RegisterNeuronSplit records that link (fromID,toID) was split by a new
// node, returning the new node's ID and the two innovation IDs for the
// two replacement links (fromID->newNode and newNode->toID). Splitting
// the same link a second time (in a different genome) reuses the same
// node ID and link IDs.
func (db *InnovationDatabase) RegisterNeuronSplit(fromID, toID int64) (newNodeID, inInnovation, outInnovation int64) {
	db.mu.Lock()
	key := LinkKey{FromID: fromID, ToID: toID}
	nodeID, seen := db.splits[key]
	if !seen {
		nodeID = db.nextNodeID
		db.nextNodeID++
		db.splits[key] = nodeID
	}
	db.mu.Unlock()

	inInnovation = db.RegisterLink(fromID, nodeID)
	outInnovation = db.RegisterLink(nodeID, toID)
	return nodeID, inInnovation, outInnovation
}

// NextNodeID reserves and returns a fresh node ID unrelated to any link
// split (used when a genome needs an ID outside the split bookkeeping,
// e.g. seeding the initial input/output nodes).
func (db *InnovationDatabase) NextNodeID() int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.nextNodeID
	db.nextNodeID++
	return id
}

// Flush clears the per-generation dedup tables while leaving the
// counters intact, so that a link reused across generations receives a
// fresh innovation ID instead of being silently merged with an
// unrelated historical mutation. Population.Epoch calls this unless
// Parameters.InnovationsForever keeps history across the whole run.
func (db *InnovationDatabase) Flush() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.links = make(map[LinkKey]int64)
	db.splits = make(map[LinkKey]int64)
}

// Counts returns the current node and innovation counters, primarily for
// checkpointing.
func (db *InnovationDatabase) Counts() (nextNodeID, nextInnovationID int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.nextNodeID, db.nextInnovationID
}
