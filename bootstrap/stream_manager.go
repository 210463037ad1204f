package bootstrap

import (
	"sync"

	"github.com/kickboxerdb/ringkeeper/topology"
)

// StreamManager is the source-side counterpart of StreamContextManager:
// it tracks, per target, which shipped files are still awaiting a
// DELETE/STREAM verdict.
type StreamManager struct {
	lock sync.Mutex
	// keyed by target endpoint string -> file path -> context
	outstanding map[string]map[string]StreamContext
	// retries counts re-streams issued per file, for observability.
	retries map[string]map[string]int
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		outstanding: make(map[string]map[string]StreamContext),
		retries:     make(map[string]map[string]int),
	}
}

// RegisterShipped records that ctx has been handed off to the target
// for transfer, right after the source opens the file.
func (m *StreamManager) RegisterShipped(target topology.Endpoint, ctx StreamContext) {
	m.lock.Lock()
	defer m.lock.Unlock()

	key := target.String()
	if m.outstanding[key] == nil {
		m.outstanding[key] = make(map[string]StreamContext)
		m.retries[key] = make(map[string]int)
	}
	m.outstanding[key][ctx.TargetFile] = ctx
}

// Finalize handles a DELETE verdict: the slot is freed, and the
// boolean return reports whether target now has no files left
// outstanding - the peer is done from the source's perspective once
// every file it was owed has been acknowledged.
func (m *StreamManager) Finalize(target topology.Endpoint, file string) (done bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	key := target.String()
	if files, ok := m.outstanding[key]; ok {
		delete(files, file)
		if len(files) == 0 {
			delete(m.outstanding, key)
			delete(m.retries, key)
			return true
		}
	}
	return false
}

// Repeat handles a STREAM verdict: re-enqueue the file for
// re-transmission to the same peer. The context stays
// registered under RegisterShipped's original entry; the retry counter
// is bumped for observability.
func (m *StreamManager) Repeat(target topology.Endpoint, file string) (StreamContext, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	key := target.String()
	files, ok := m.outstanding[key]
	if !ok {
		return StreamContext{}, false
	}
	ctx, ok := files[file]
	if !ok {
		return StreamContext{}, false
	}
	m.retries[key][file]++
	return ctx, true
}

// RetryCount reports how many times file has been re-streamed to target.
func (m *StreamManager) RetryCount(target topology.Endpoint, file string) int {
	m.lock.Lock()
	defer m.lock.Unlock()
	if counts, ok := m.retries[target.String()]; ok {
		return counts[file]
	}
	return 0
}

// IsDone reports whether target has no files outstanding.
func (m *StreamManager) IsDone(target topology.Endpoint) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	files, ok := m.outstanding[target.String()]
	return !ok || len(files) == 0
}
