// Package cluster is the composition root for one ring member: it
// wires the wire transport, token metadata, local store and bootstrap
// subsystem together into a single node, and drives that node's
// startup.
package cluster

import (
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
	logging "github.com/op/go-logging"

	"github.com/kickboxerdb/ringkeeper/bootstrap"
	"github.com/kickboxerdb/ringkeeper/gossip"
	"github.com/kickboxerdb/ringkeeper/loadbalancer"
	"github.com/kickboxerdb/ringkeeper/message"
	"github.com/kickboxerdb/ringkeeper/node"
	"github.com/kickboxerdb/ringkeeper/partitioner"
	"github.com/kickboxerdb/ringkeeper/replication"
	"github.com/kickboxerdb/ringkeeper/store"
	"github.com/kickboxerdb/ringkeeper/topology"
)

var logger *logging.Logger

func init() {
	logger = logging.MustGetLogger("cluster")
}

// Status is this node's own membership state.
type Status string

const (
	StatusInitializing  Status = ""
	StatusBootstrapping Status = "BOOTSTRAPPING"
	StatusNormal        Status = "NORMAL"
)

// Cluster is one node: its identity, its view of the ring, and every
// collaborator the bootstrap subsystem needs to join it. Built by
// NewCluster and driven by Start/Stop.
type Cluster struct {
	store   store.Store
	cfStore store.ColumnFamilyStore

	seeds []Peer

	replicationFactor uint32
	partitioner       partitioner.Partitioner

	name   string
	token  partitioner.Token
	nodeId node.NodeId
	dcId   topology.DatacenterID
	self   topology.Endpoint

	metadata *topology.TokenMetadata
	strategy replication.Strategy

	registry     *message.Registry
	dispatcher   *message.Dispatcher
	transport    message.Transport
	gossip       *gossip.LocalPublisher
	loadBalancer *loadbalancer.GossipLoadBalancer
	bootstrapCtx *bootstrap.Context

	listener net.Listener
	status   Status
}

// NewCluster assembles one node's collaborators and registers its
// bootstrap verb handlers, but does not yet listen or join - that's
// Start's job.
func NewCluster(
	// the local key/value store
	localStore store.Store,
	// the local table store the bootstrap pipeline streams into
	cfStore store.ColumnFamilyStore,
	// the address this node's transport listens on
	addr string,
	// the name of this local node
	name string,
	// the token of this local node, nil to run the token chooser at Start
	token partitioner.Token,
	// the id of this local node
	nodeId node.NodeId,
	// the name of the datacenter this node belongs to
	dcId topology.DatacenterID,
	// the replication factor of the cluster
	replicationFactor uint32,
	// the partitioner used by the cluster
	part partitioner.Partitioner,
	// addresses of existing ring members to join through
	seeds []string,
	stats statsd.Statter,
) (*Cluster, error) {
	if replicationFactor < 1 {
		return nil, fmt.Errorf("cluster: invalid replication factor: %v", replicationFactor)
	}
	if part == nil {
		return nil, fmt.Errorf("cluster: partitioner cannot be nil")
	}

	self, err := topology.ParseEndpoint(addr)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}

	seedPeers := make([]Peer, 0, len(seeds))
	for _, s := range seeds {
		e, err := topology.ParseEndpoint(s)
		if err != nil {
			return nil, fmt.Errorf("cluster: malformed seed: %w", err)
		}
		seedPeers = append(seedPeers, NewSeedPeer(e))
	}

	c := &Cluster{
		store:             localStore,
		cfStore:           cfStore,
		seeds:             seedPeers,
		replicationFactor: replicationFactor,
		partitioner:       part,
		name:              name,
		token:             token,
		nodeId:            nodeId,
		dcId:              dcId,
		self:              self,
		metadata:          topology.NewTokenMetadata(),
		strategy:          replication.NewSimpleStrategy(replicationFactor),
		registry:          message.NewRegistry(),
		dispatcher:        message.NewDispatcher(),
		gossip:            gossip.NewLocalPublisher(),
		loadBalancer:      loadbalancer.NewGossipLoadBalancer(),
		status:            StatusInitializing,
	}

	bootstrap.RegisterMessages(c.registry)
	c.transport = message.NewTCPTransport(c.registry)

	cfg := bootstrap.DefaultConfig()
	cfg.ReplicationFactor = replicationFactor
	cfg.DataDirectory = cfStore.DataDirectory()
	if token != nil {
		cfg.InitialToken = []byte(token)
	}

	c.bootstrapCtx = bootstrap.NewContext(
		c.self, c.metadata, c.loadBalancer, c.transport, c.gossip,
		c.cfStore, c.partitioner, c.strategy, stats, cfg,
	)
	bootstrap.RegisterHandlers(c.bootstrapCtx, c.dispatcher)

	return c, nil
}

// info getters
func (c *Cluster) GetNodeId() node.NodeId             { return c.nodeId }
func (c *Cluster) GetDatacenterId() topology.DatacenterID { return c.dcId }
func (c *Cluster) GetToken() partitioner.Token        { return c.token }
func (c *Cluster) GetName() string                    { return c.name }
func (c *Cluster) GetSelf() topology.Endpoint          { return c.self }
func (c *Cluster) Status() Status                      { return c.status }

// Start opens the listening socket and - if this node has never held a
// ring position before - drives the bootstrap join. The seeds recorded
// by NewCluster are not contacted here. A node restarting with its token already
// in TokenMetadata skips straight to normal, matching a process
// restart rather than a fresh join.
func (c *Cluster) Start() error {
	l, err := net.Listen("tcp", c.self.String())
	if err != nil {
		return fmt.Errorf("cluster: listen %s: %w", c.self, err)
	}
	c.listener = l
	go func() {
		if err := message.Serve(l, c.registry, c.dispatcher); err != nil {
			logger.Warningf("cluster: serve on %s stopped: %v", c.self, err)
		}
	}()

	alreadyJoined := c.metadata.IsNormal(c.self)
	if alreadyJoined {
		c.status = StatusNormal
		logger.Infof("cluster: %s restarting as an existing ring member", c.self)
		return nil
	}

	c.status = StatusBootstrapping
	if _, err := bootstrap.Start(c.bootstrapCtx); err != nil {
		return fmt.Errorf("cluster: bootstrap: %w", err)
	}
	if c.metadata.IsNormal(c.self) {
		c.status = StatusNormal
	}
	return nil
}

func (c *Cluster) Stop() error {
	if c.listener != nil {
		return c.listener.Close()
	}
	return nil
}

/************** key routing **************/

// ReplicasForKey returns the endpoints a key's token maps to, walking
// the sorted ring clockwise from the key's owning token and collecting
// ReplicationFactor distinct endpoints - the same walk SimpleStrategy
// runs per range, specialized to a single key instead of a whole
// range.
func (c *Cluster) ReplicasForKey(key string) []topology.Endpoint {
	t := c.partitioner.GetToken(key)
	sorted := c.metadata.SortedTokens()
	if len(sorted) == 0 {
		return nil
	}

	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].Compare(t) >= 0
	})
	if idx == len(sorted) {
		idx = 0
	}

	rf := int(c.replicationFactor)
	if rf > len(sorted) {
		rf = len(sorted)
	}
	out := make([]topology.Endpoint, 0, rf)
	seen := make(map[string]bool, rf)
	for i := 0; len(out) < rf && i < len(sorted); i++ {
		e, ok := c.metadata.EndpointFor(sorted[(idx+i)%len(sorted)])
		if !ok || seen[e.String()] {
			continue
		}
		seen[e.String()] = true
		out = append(out, e)
	}
	return out
}

/************** local store passthrough **************/

// ExecuteRead and ExecuteWrite serve a key against this node's own
// store only. Cross-node quorum reads/writes during bootstrap are out
// of scope for this node's join logic; a request router sitting in
// front of a cluster of these nodes is where consistency-level
// fan-out would live.
func (c *Cluster) ExecuteRead(cmd, key string, args []string) (store.Value, error) {
	return c.store.ExecuteRead(cmd, key, args)
}

func (c *Cluster) ExecuteWrite(cmd, key string, args []string, timestamp time.Time) (store.Value, error) {
	return c.store.ExecuteWrite(cmd, key, args, timestamp)
}
