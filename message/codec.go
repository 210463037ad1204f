package message

import (
	"bufio"
	"io"
	"unicode/utf8"

	"github.com/kickboxerdb/ringkeeper/serializer"
)

// WriteMessage writes a verb tag followed by the message body onto w,
// the one envelope every verb in this system shares.
func WriteMessage(w io.Writer, m Message) error {
	writer := bufio.NewWriter(w)
	if err := serializer.WriteFieldBytes(writer, []byte(m.Verb())); err != nil {
		return err
	}
	if err := m.Serialize(writer); err != nil {
		return err
	}
	return writer.Flush()
}

// ReadMessage reads a verb tag then looks up and deserializes the
// concrete message type from reg.
func ReadMessage(r io.Reader, reg *Registry) (Message, error) {
	reader := bufio.NewReader(r)
	verbBytes, err := serializer.ReadFieldBytes(reader)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(verbBytes) {
		return nil, &ErrMalformedMessage{Reason: "verb tag is not valid UTF-8"}
	}
	msg, err := reg.New(string(verbBytes))
	if err != nil {
		return nil, err
	}
	if err := msg.Deserialize(reader); err != nil {
		return nil, err
	}
	return msg, nil
}
