package bootstrap

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/kickboxerdb/ringkeeper/message"
)

func roundTrip(t *testing.T, reg *message.Registry, m message.Message) message.Message {
	t.Helper()
	var buf bytes.Buffer
	if err := message.WriteMessage(&buf, m); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	got, err := message.ReadMessage(&buf, reg)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return got
}

func TestTokenRequestRoundTrip(t *testing.T) {
	reg := message.NewRegistry()
	RegisterMessages(reg)
	got := roundTrip(t, reg, &TokenRequest{})
	if _, ok := got.(*TokenRequest); !ok {
		t.Fatalf("got %T, want *TokenRequest", got)
	}
}

func TestTokenResponseRoundTrip(t *testing.T) {
	reg := message.NewRegistry()
	RegisterMessages(reg)
	got := roundTrip(t, reg, &TokenResponse{Token: "deadbeef"})
	r, ok := got.(*TokenResponse)
	if !ok {
		t.Fatalf("got %T, want *TokenResponse", got)
	}
	if r.Token != "deadbeef" {
		t.Errorf("Token = %q, want %q", r.Token, "deadbeef")
	}
}

func TestInitiateMessageRoundTrip(t *testing.T) {
	reg := message.NewRegistry()
	RegisterMessages(reg)
	want := &InitiateMessage{
		Contexts: []StreamContext{
			{Table: "users", TargetFile: "users-1-Data.db", ExpectedBytes: 1024},
			{Table: "users", TargetFile: "users-1-Index.db", ExpectedBytes: 256},
		},
	}
	got := roundTrip(t, reg, want)
	m, ok := got.(*InitiateMessage)
	if !ok {
		t.Fatalf("got %T, want *InitiateMessage", got)
	}
	if len(m.Contexts) != len(want.Contexts) {
		t.Fatalf("got %d contexts, want %d", len(m.Contexts), len(want.Contexts))
	}
	for i := range want.Contexts {
		if m.Contexts[i] != want.Contexts[i] {
			t.Errorf("context %d = %v, want %v", i, m.Contexts[i], want.Contexts[i])
		}
	}
}

func TestInitiateMessageRoundTripEmpty(t *testing.T) {
	reg := message.NewRegistry()
	RegisterMessages(reg)
	got := roundTrip(t, reg, &InitiateMessage{})
	m, ok := got.(*InitiateMessage)
	if !ok {
		t.Fatalf("got %T, want *InitiateMessage", got)
	}
	if len(m.Contexts) != 0 {
		t.Errorf("expected no contexts, got %v", m.Contexts)
	}
}

func TestInitiateDoneMessageRoundTrip(t *testing.T) {
	reg := message.NewRegistry()
	RegisterMessages(reg)
	got := roundTrip(t, reg, &InitiateDoneMessage{})
	if _, ok := got.(*InitiateDoneMessage); !ok {
		t.Fatalf("got %T, want *InitiateDoneMessage", got)
	}
}

func TestTerminateMessageRoundTrip(t *testing.T) {
	reg := message.NewRegistry()
	RegisterMessages(reg)
	want := &TerminateMessage{Status: StreamStatus{
		File:          "users-1-Data.db",
		BytesReceived: 1024,
		Action:        ActionDelete,
	}}
	got := roundTrip(t, reg, want)
	m, ok := got.(*TerminateMessage)
	if !ok {
		t.Fatalf("got %T, want *TerminateMessage", got)
	}
	if m.Status != want.Status {
		t.Errorf("Status = %v, want %v", m.Status, want.Status)
	}
}

func TestReadMessageRejectsUnregisteredVerb(t *testing.T) {
	var buf bytes.Buffer
	if err := message.WriteMessage(&buf, &fakeVerbMessage{}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	readerReg := message.NewRegistry()
	RegisterMessages(readerReg)
	if _, err := message.ReadMessage(&buf, readerReg); err == nil {
		t.Fatal("expected ReadMessage to reject an unregistered verb")
	}
}

type fakeVerbMessage struct{}

func (*fakeVerbMessage) Verb() string                       { return "bogusVerb" }
func (*fakeVerbMessage) Serialize(buf *bufio.Writer) error   { return nil }
func (*fakeVerbMessage) Deserialize(buf *bufio.Reader) error { return nil }
