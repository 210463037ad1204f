package bootstrap

import (
	"bufio"
	"unicode/utf8"

	"github.com/kickboxerdb/ringkeeper/message"
	"github.com/kickboxerdb/ringkeeper/serializer"
)

// Verb tags for the bootstrap wire protocol.
const (
	VerbBootstrapToken         = "bootstrapToken"
	VerbBootstrapTokenResponse = "bootstrapTokenResponse"
	VerbBootstrapInitiate      = "bootstrapInitiate"
	VerbBootstrapInitiateDone  = "bootstrapInitiateDone"
	VerbBootstrapTerminate     = "bootstrapTerminate"
)

// RegisterMessages wires every bootstrap verb's factory into reg, so
// ReadMessage can reconstruct the concrete type for each one.
func RegisterMessages(reg *message.Registry) {
	reg.Register(VerbBootstrapToken, func() message.Message { return &TokenRequest{} })
	reg.Register(VerbBootstrapTokenResponse, func() message.Message { return &TokenResponse{} })
	reg.Register(VerbBootstrapInitiate, func() message.Message { return &InitiateMessage{} })
	reg.Register(VerbBootstrapInitiateDone, func() message.Message { return &InitiateDoneMessage{} })
	reg.Register(VerbBootstrapTerminate, func() message.Message { return &TerminateMessage{} })
}

// TokenRequest asks the most-loaded peer to propose a split point.
// Empty body.
type TokenRequest struct{}

func (*TokenRequest) Verb() string                      { return VerbBootstrapToken }
func (*TokenRequest) Serialize(buf *bufio.Writer) error  { return nil }
func (*TokenRequest) Deserialize(buf *bufio.Reader) error { return nil }

// TokenResponse carries the UTF-8 token string the peer proposes.
type TokenResponse struct {
	Token string
}

func (*TokenResponse) Verb() string { return VerbBootstrapTokenResponse }

func (r *TokenResponse) Serialize(buf *bufio.Writer) error {
	return serializer.WriteFieldBytes(buf, []byte(r.Token))
}

func (r *TokenResponse) Deserialize(buf *bufio.Reader) error {
	b, err := serializer.ReadFieldBytes(buf)
	if err != nil {
		return err
	}
	// network strings are UTF-8 by construction; a decode failure
	// here means bit corruption, not a protocol choice.
	if !utf8.Valid(b) {
		return &message.ErrMalformedMessage{Reason: "bootstrap token reply is not valid UTF-8"}
	}
	r.Token = string(b)
	return nil
}

// InitiateMessage is sent source -> newcomer carrying the StreamContext
// list for every file the source owes.
type InitiateMessage struct {
	Contexts []StreamContext
}

func (*InitiateMessage) Verb() string { return VerbBootstrapInitiate }

func (m *InitiateMessage) Serialize(buf *bufio.Writer) error {
	if err := serializer.WriteInt64(buf, int64(len(m.Contexts))); err != nil {
		return err
	}
	for i := range m.Contexts {
		if err := m.Contexts[i].Serialize(buf); err != nil {
			return err
		}
	}
	return nil
}

func (m *InitiateMessage) Deserialize(buf *bufio.Reader) error {
	n, err := serializer.ReadInt64(buf)
	if err != nil {
		return err
	}
	m.Contexts = make([]StreamContext, n)
	for i := int64(0); i < n; i++ {
		if err := m.Contexts[i].Deserialize(buf); err != nil {
			return err
		}
	}
	return nil
}

// InitiateDoneMessage is the newcomer's one-way ack that files have
// been allocated and streaming may begin.
type InitiateDoneMessage struct{}

func (*InitiateDoneMessage) Verb() string                      { return VerbBootstrapInitiateDone }
func (*InitiateDoneMessage) Serialize(buf *bufio.Writer) error  { return nil }
func (*InitiateDoneMessage) Deserialize(buf *bufio.Reader) error { return nil }

// TerminateMessage carries one file's StreamStatus verdict, sent
// newcomer -> source.
type TerminateMessage struct {
	Status StreamStatus
}

func (*TerminateMessage) Verb() string { return VerbBootstrapTerminate }

func (m *TerminateMessage) Serialize(buf *bufio.Writer) error {
	return m.Status.Serialize(buf)
}

func (m *TerminateMessage) Deserialize(buf *bufio.Reader) error {
	return m.Status.Deserialize(buf)
}
