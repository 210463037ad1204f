package cluster

import (
	"github.com/kickboxerdb/ringkeeper/node"
	"github.com/kickboxerdb/ringkeeper/partitioner"
	"github.com/kickboxerdb/ringkeeper/topology"
)

// Peer is one other member of the ring as this node knows it: enough
// identity to route to it and enough status to know whether it's
// worth trying. Seeds start as peers with an address and nothing
// else; gossip (out of scope here) is what would normally fill in the
// rest.
type Peer struct {
	Id       node.NodeId
	DCId     topology.DatacenterID
	Token    partitioner.Token
	Name     string
	Endpoint topology.Endpoint
	Status   topology.NodeStatus
}

// NewSeedPeer returns a peer known only by its address, the state a
// seed starts in before anything has been heard from it.
func NewSeedPeer(e topology.Endpoint) Peer {
	return Peer{Endpoint: e, Status: topology.NODE_INITIALIZING}
}
