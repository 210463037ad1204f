// Package node defines the node identity type shared by the cluster,
// topology and bootstrap packages.
package node

import (
	"github.com/google/uuid"
)

// NodeId uniquely identifies a node for the life of the cluster. It is
// carried over the wire as raw bytes, backed by a UUID.
type NodeId []byte

// NewNodeId returns a fresh random node identifier.
func NewNodeId() NodeId {
	id := uuid.New()
	return NodeId(id[:])
}

func (n NodeId) String() string {
	id, err := uuid.FromBytes(n)
	if err != nil {
		return ""
	}
	return id.String()
}

// Equal compares two node ids for equality.
func (n NodeId) Equal(o NodeId) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if n[i] != o[i] {
			return false
		}
	}
	return true
}
