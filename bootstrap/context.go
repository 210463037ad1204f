// Package bootstrap is the node bootstrap subsystem: token selection,
// ring delta computation, the newcomer/source streaming state machine,
// and the driver that sequences them. Grounded throughout on the
// teacher's cluster.JoinCluster/streamFromNode/streamToNode and the
// consensus.Manager's fan-out/stats/locking style.
package bootstrap

import (
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
	logging "github.com/op/go-logging"

	"github.com/kickboxerdb/ringkeeper/gossip"
	"github.com/kickboxerdb/ringkeeper/loadbalancer"
	"github.com/kickboxerdb/ringkeeper/message"
	"github.com/kickboxerdb/ringkeeper/partitioner"
	"github.com/kickboxerdb/ringkeeper/replication"
	"github.com/kickboxerdb/ringkeeper/store"
	"github.com/kickboxerdb/ringkeeper/topology"
)

var logger *logging.Logger

func init() {
	logger = logging.MustGetLogger("bootstrap")
}

// Context bundles every collaborator the driver and verb handlers
// need, passed by reference instead of looked up through package level
// singletons.
type Context struct {
	Self        topology.Endpoint
	Metadata    *topology.TokenMetadata
	LoadBalancer loadbalancer.LoadBalancer
	Transport   message.Transport
	Gossip      gossip.Publisher
	Store       store.ColumnFamilyStore
	Writer      *store.SSTableWriter
	Partitioner partitioner.Partitioner
	Strategy    replication.Strategy
	Stats       statsd.Statter
	Config      Config

	streamContexts *StreamContextManager
	streamManager  *StreamManager
}

// NewContext constructs a bootstrap Context with fresh stream
// bookkeeping attached.
func NewContext(
	self topology.Endpoint,
	md *topology.TokenMetadata,
	lb loadbalancer.LoadBalancer,
	transport message.Transport,
	pub gossip.Publisher,
	cfStore store.ColumnFamilyStore,
	part partitioner.Partitioner,
	strategy replication.Strategy,
	stats statsd.Statter,
	cfg Config,
) *Context {
	return &Context{
		Self:         self,
		Metadata:     md,
		LoadBalancer: lb,
		Transport:    transport,
		Gossip:       pub,
		Store:        cfStore,
		Writer:       store.NewSSTableWriter(),
		Partitioner:  part,
		Strategy:     strategy,
		Stats:        stats,
		Config:       cfg,

		streamContexts: NewStreamContextManager(),
		streamManager:  NewStreamManager(),
	}
}

func (c *Context) statsInc(name string, value int64) {
	if c.Stats == nil {
		return
	}
	c.Stats.Inc(strings.Join([]string{"bootstrap", name}, "."), value, 1.0)
}

// RegisterHandlers wires every bootstrap verb handler into d, bound to
// ctx, so a node's startup code has a single call to make.
func RegisterHandlers(ctx *Context, d *message.Dispatcher) {
	d.Register(VerbBootstrapToken, BootstrapTokenVerbHandler(ctx))
	d.Register(VerbBootstrapInitiate, BootstrapInitiateVerbHandler(ctx))
	d.Register(VerbBootstrapInitiateDone, BootstrapInitiateDoneVerbHandler(ctx))
	d.Register(VerbBootstrapTerminate, BootstrapTerminateVerbHandler(ctx))
}

func (c *Context) statsTiming(name string, since time.Time) {
	if c.Stats == nil {
		return
	}
	delta := time.Since(since) / time.Millisecond
	c.Stats.Timing(strings.Join([]string{"bootstrap", name}, "."), int64(delta)+1, 1.0)
}
