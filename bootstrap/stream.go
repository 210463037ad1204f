package bootstrap

import (
	"bufio"

	"github.com/kickboxerdb/ringkeeper/serializer"
	"github.com/kickboxerdb/ringkeeper/topology"
)

// StreamAction is the post-transfer verdict for one file.
type StreamAction string

const (
	// ActionDelete means the file arrived intact and the source may
	// discard its copy.
	ActionDelete StreamAction = "DELETE"
	// ActionStream requests the source re-send the file.
	ActionStream StreamAction = "STREAM"
)

// StreamContext describes one file to be transferred. TargetFile is
// the source's filename and travels over the wire unchanged - it is
// the identity the source's StreamManager keys its bookkeeping by, so
// a later DELETE/STREAM verdict can be matched back to the shipment
// that caused it. LocalPath is never serialized; the newcomer fills
// it in on receipt with wherever it is actually writing the incoming
// bytes on its own disk.
type StreamContext struct {
	Table         string
	TargetFile    string
	ExpectedBytes int64
	LocalPath     string
}

func (c *StreamContext) Serialize(buf *bufio.Writer) error {
	if err := serializer.WriteFieldBytes(buf, []byte(c.Table)); err != nil {
		return err
	}
	if err := serializer.WriteFieldBytes(buf, []byte(c.TargetFile)); err != nil {
		return err
	}
	return serializer.WriteInt64(buf, c.ExpectedBytes)
}

func (c *StreamContext) Deserialize(buf *bufio.Reader) error {
	table, err := serializer.ReadFieldBytes(buf)
	if err != nil {
		return err
	}
	c.Table = string(table)

	file, err := serializer.ReadFieldBytes(buf)
	if err != nil {
		return err
	}
	c.TargetFile = string(file)

	size, err := serializer.ReadInt64(buf)
	if err != nil {
		return err
	}
	c.ExpectedBytes = size
	return nil
}

// StreamStatus is the post-transfer verdict for one file.
type StreamStatus struct {
	File          string
	BytesReceived int64
	Action        StreamAction
}

func (s *StreamStatus) Serialize(buf *bufio.Writer) error {
	if err := serializer.WriteFieldBytes(buf, []byte(s.File)); err != nil {
		return err
	}
	if err := serializer.WriteInt64(buf, s.BytesReceived); err != nil {
		return err
	}
	return serializer.WriteFieldBytes(buf, []byte(s.Action))
}

func (s *StreamStatus) Deserialize(buf *bufio.Reader) error {
	file, err := serializer.ReadFieldBytes(buf)
	if err != nil {
		return err
	}
	s.File = string(file)

	n, err := serializer.ReadInt64(buf)
	if err != nil {
		return err
	}
	s.BytesReceived = n

	action, err := serializer.ReadFieldBytes(buf)
	if err != nil {
		return err
	}
	s.Action = StreamAction(action)
	return nil
}

// CompletionHandler is the single-method capability a PeerStreamSet
// invokes when one of its files finishes streaming.
type CompletionHandler interface {
	OnFileComplete(source topology.Endpoint, ctx StreamContext, bytesReceived int64) StreamStatus
}

// PeerStreamSet tracks, for one source endpoint, the files still
// outstanding plus the handler to invoke as each completes. The peer
// is done when Outstanding is empty.
type PeerStreamSet struct {
	Source      topology.Endpoint
	Outstanding map[string]StreamContext // keyed by StreamContext.TargetFile
	Handler     CompletionHandler
}

func NewPeerStreamSet(source topology.Endpoint, handler CompletionHandler) *PeerStreamSet {
	return &PeerStreamSet{
		Source:      source,
		Outstanding: make(map[string]StreamContext),
		Handler:     handler,
	}
}

func (p *PeerStreamSet) Add(ctx StreamContext) {
	p.Outstanding[ctx.TargetFile] = ctx
}

func (p *PeerStreamSet) Remove(file string) {
	delete(p.Outstanding, file)
}

func (p *PeerStreamSet) IsDone() bool {
	return len(p.Outstanding) == 0
}
