package optree

// NodeID references a node inside one Tree. IDs are 1-based; 0 is the
// "no node" sentinel so the zero value of any struct holding a NodeID is
// safely invalid.
type NodeID uint32

// NoNodeID is the invalid node reference.
const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }
