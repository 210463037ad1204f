// Package loadbalancer is the node's view of peer load: a blocking
// wait for the first report plus a snapshot getter.
package loadbalancer

import (
	"sync"

	"github.com/kickboxerdb/ringkeeper/topology"
)

// LoadBalancer exposes the per-endpoint load gossip has collected.
type LoadBalancer interface {
	// WaitForLoadInfo blocks until at least one peer has reported
	// load, or the done channel closes.
	WaitForLoadInfo(done <-chan struct{})

	// GetLoadInfo returns a snapshot of endpoint -> load.
	GetLoadInfo() map[topology.Endpoint]float64
}

// GossipLoadBalancer tracks load reports as they arrive over gossip; a
// minimal concrete implementation good enough to drive the token
// chooser against something real under test.
type GossipLoadBalancer struct {
	lock  sync.RWMutex
	loads map[topology.Endpoint]float64
	ready chan struct{}
	once  sync.Once
}

func NewGossipLoadBalancer() *GossipLoadBalancer {
	return &GossipLoadBalancer{
		loads: make(map[topology.Endpoint]float64),
		ready: make(chan struct{}),
	}
}

// ReportLoad records a load figure for an endpoint, as if received
// from the gossip application-state channel.
func (lb *GossipLoadBalancer) ReportLoad(e topology.Endpoint, load float64) {
	lb.lock.Lock()
	lb.loads[e] = load
	lb.lock.Unlock()
	lb.once.Do(func() { close(lb.ready) })
}

func (lb *GossipLoadBalancer) WaitForLoadInfo(done <-chan struct{}) {
	select {
	case <-lb.ready:
	case <-done:
	}
}

func (lb *GossipLoadBalancer) GetLoadInfo() map[topology.Endpoint]float64 {
	lb.lock.RLock()
	defer lb.lock.RUnlock()
	out := make(map[topology.Endpoint]float64, len(lb.loads))
	for k, v := range lb.loads {
		out[k] = v
	}
	return out
}
