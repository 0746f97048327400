package model

// NodeID identifies a logical node a process can be affine to. Migration is a
// logical relocation event: only the affinity changes, no state is moved.
type NodeID string

// LocalNode is the default affinity for processes submitted without one.
const LocalNode = NodeID("local")
