package message

import "sync"

// Handler answers one verb. A nil response means "no reply expected",
// the shape sendOneWay verbs (bootstrapInitiateDone, bootstrapTerminate)
// take.
type Handler func(from string, msg Message) (Message, error)

// Dispatcher is a table keyed by verb tag mapping to a handler
// capability. Adding a verb means registering it in the table - no
// inheritance hierarchy to extend.
type Dispatcher struct {
	lock     sync.RWMutex
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(verb string, h Handler) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.handlers[verb] = h
}

func (d *Dispatcher) Dispatch(from string, msg Message) (Message, error) {
	d.lock.RLock()
	h, ok := d.handlers[msg.Verb()]
	d.lock.RUnlock()
	if !ok {
		return nil, &ErrMalformedMessage{Reason: "no handler registered for verb " + msg.Verb()}
	}
	return h(from, msg)
}
