package bootstrap

import (
	"sync"

	"github.com/kickboxerdb/ringkeeper/topology"
)

// StreamContextManager is the newcomer-side bookkeeping collaborator:
// add a stream context per source, register its completion handler,
// and ask whether a source is done. Internally synchronized; no lock is held across a
// handler invocation.
type StreamContextManager struct {
	lock  sync.Mutex
	peers map[string]*PeerStreamSet // keyed by source endpoint string
}

func NewStreamContextManager() *StreamContextManager {
	return &StreamContextManager{peers: make(map[string]*PeerStreamSet)}
}

// AddStreamContext registers one file as outstanding for source.
func (m *StreamContextManager) AddStreamContext(source topology.Endpoint, ctx StreamContext) {
	m.lock.Lock()
	defer m.lock.Unlock()

	key := source.String()
	set, ok := m.peers[key]
	if !ok {
		set = NewPeerStreamSet(source, nil)
		m.peers[key] = set
	}
	set.Add(ctx)
}

// RegisterStreamCompletionHandler attaches the completion handler that
// fires as each of source's files finishes.
func (m *StreamContextManager) RegisterStreamCompletionHandler(source topology.Endpoint, handler CompletionHandler) {
	m.lock.Lock()
	defer m.lock.Unlock()

	key := source.String()
	set, ok := m.peers[key]
	if !ok {
		set = NewPeerStreamSet(source, handler)
		m.peers[key] = set
		return
	}
	set.Handler = handler
}

// IsDone reports whether source has no outstanding files left.
func (m *StreamContextManager) IsDone(source topology.Endpoint) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	set, ok := m.peers[source.String()]
	if !ok {
		return true
	}
	return set.IsDone()
}

// CompleteFile looks up the StreamContext registered for file under
// source, invokes its completion handler, and - only on a DELETE
// verdict - removes the file from the outstanding set and reports
// whether source is now fully done, the signal the newcomer verb
// handler uses to retire the source from the registry. A STREAM
// verdict leaves the file outstanding: its retry hasn't arrived yet,
// so this node cannot consider itself, or the source, done with it.
func (m *StreamContextManager) CompleteFile(source topology.Endpoint, file string, bytesReceived int64) (StreamStatus, bool, bool) {
	m.lock.Lock()
	set, ok := m.peers[source.String()]
	if !ok {
		m.lock.Unlock()
		return StreamStatus{}, false, false
	}
	ctx, ok := set.Outstanding[file]
	handler := set.Handler
	m.lock.Unlock()

	if !ok {
		return StreamStatus{}, false, false
	}

	status := handler.OnFileComplete(source, ctx, bytesReceived)

	m.lock.Lock()
	defer m.lock.Unlock()
	if status.Action != ActionDelete {
		return status, true, false
	}
	set.Remove(file)
	done := set.IsDone()
	if done {
		delete(m.peers, source.String())
	}
	return status, true, done
}

// ReEnqueue re-registers file as outstanding for source, the effect of
// a STREAM verdict (re-request) hitting this side after a later retry.
func (m *StreamContextManager) ReEnqueue(source topology.Endpoint, ctx StreamContext) {
	m.AddStreamContext(source, ctx)
}

// Sources returns the set of sources with outstanding files, used to
// decide when BOOTSTRAP_MODE can be cleared.
func (m *StreamContextManager) Sources() []topology.Endpoint {
	m.lock.Lock()
	defer m.lock.Unlock()
	out := make([]topology.Endpoint, 0, len(m.peers))
	for _, set := range m.peers {
		out = append(out, set.Source)
	}
	return out
}

// Empty reports whether no source has outstanding work left.
func (m *StreamContextManager) Empty() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.peers) == 0
}
