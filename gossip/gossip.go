// Package gossip publishes small pieces of process state to the rest
// of the cluster - add/remove/get application state - and defines the
// cluster-visible BOOTSTRAP_MODE flag in particular.
package gossip

import "sync"

// ApplicationStateKey names one piece of cluster-visible process
// state, same role as Cassandra's ApplicationState enum in the system
// this subsystem was distilled from.
type ApplicationStateKey string

// BootstrapModeKey is the process state flag marking "this node is
// currently bootstrapping".
const BootstrapModeKey ApplicationStateKey = "BOOTSTRAP_MODE"

// Publisher is the gossip collaborator surface the bootstrap driver
// and newcomer-side completion handler need.
type Publisher interface {
	AddApplicationState(key ApplicationStateKey, value string)
	RemoveApplicationState(key ApplicationStateKey)
	GetApplicationState(key ApplicationStateKey) (string, bool)
}

// LocalPublisher is an in-process stand-in for the real gossip
// service: it just holds the latest local state, with no propagation
// to peers. Good enough for the bootstrap subsystem's own use, which
// only ever reads its own published state back.
type LocalPublisher struct {
	lock  sync.RWMutex
	state map[ApplicationStateKey]string
}

func NewLocalPublisher() *LocalPublisher {
	return &LocalPublisher{state: make(map[ApplicationStateKey]string)}
}

func (p *LocalPublisher) AddApplicationState(key ApplicationStateKey, value string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.state[key] = value
}

func (p *LocalPublisher) RemoveApplicationState(key ApplicationStateKey) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.state, key)
}

func (p *LocalPublisher) GetApplicationState(key ApplicationStateKey) (string, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	v, ok := p.state[key]
	return v, ok
}
