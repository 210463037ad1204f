/**

common serialize/deserialize functions

 */
package serializer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// writes the field length, then the field to the writer
func WriteFieldBytes(buf *bufio.Writer, bytes []byte) error {
	//write field length
	size := uint32(len(bytes))
	if err := binary.Write(buf, binary.LittleEndian, &size); err != nil {
		return err
	}
	// write field
	n, err := buf.Write(bytes);
	if err != nil {
		return err
	}
	if uint32(n) != size {
		return fmt.Errorf("unexpected num bytes written. Expected %v, got %v", size, n)
	}
	return nil
}

// read field bytes
func ReadFieldBytes(buf *bufio.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(buf, binary.LittleEndian, &size); err != nil {
		return nil, err
	}

	bytes := make([]byte, size)
	n, err := io.ReadFull(buf, bytes)
	if err != nil {
		return nil, err
	}
	if uint32(n) != size {
		return nil, fmt.Errorf("unexpected num bytes read. Expected %v, got %v", size, n)
	}
	return bytes, nil
}

// WriteTime writes a timestamp as nanoseconds since the Unix epoch.
func WriteTime(buf *bufio.Writer, t time.Time) error {
	nanos := t.UnixNano()
	return binary.Write(buf, binary.LittleEndian, &nanos)
}

// ReadTime reads a timestamp written by WriteTime.
func ReadTime(buf *bufio.Reader) (time.Time, error) {
	var nanos int64
	if err := binary.Read(buf, binary.LittleEndian, &nanos); err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos).UTC(), nil
}

// WriteInt64 writes a length-independent fixed-width integer field,
// used for byte counts and list lengths in stream bookkeeping.
func WriteInt64(buf *bufio.Writer, v int64) error {
	return binary.Write(buf, binary.LittleEndian, &v)
}

// ReadInt64 reads an integer written by WriteInt64.
func ReadInt64(buf *bufio.Reader) (int64, error) {
	var v int64
	if err := binary.Read(buf, binary.LittleEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}
