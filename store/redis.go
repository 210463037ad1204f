package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

import (
	"github.com/kickboxerdb/ringkeeper/serializer"
)

const (
	SINGLE_VALUE = ValueType("SINGLE")
)

// a single value used for
// key/val types
type singleValue struct {
	data string
	time time.Time
}

// single value constructor
func newSingleValue(data string, time time.Time) *singleValue {
	v := &singleValue{
		data: data,
		time: time,
	}
	return v
}

func (v *singleValue) GetTimestamp() time.Time {
	return v.time
}

func (v *singleValue) GetValueType() ValueType {
	return SINGLE_VALUE
}

func (v *singleValue) Serialize(buf *bufio.Writer) error {
	if err := serializer.WriteFieldBytes(buf, []byte(v.data)); err != nil {
		return err
	}
	if err := serializer.WriteTime(buf, v.time); err != nil {
		return err
	}
	return buf.Flush()
}

func (v *singleValue) Deserialize(buf *bufio.Reader) error {
	if val, err := serializer.ReadFieldBytes(buf); err != nil {
		return err
	} else {
		v.data = string(val)
	}

	if t, err := serializer.ReadTime(buf); err != nil {
		return err
	} else {
		v.time = t
	}
	return nil
}

func (v *singleValue) Equal(o Value) bool {
	other, ok := o.(*singleValue)
	if !ok {
		return false
	}
	return v.data == other.data && v.time.Equal(other.time)
}

func WriteRedisValue(buf io.Writer, v Value) error {
	writer := bufio.NewWriter(buf)

	vtype := v.GetValueType()
	if err := serializer.WriteFieldBytes(writer, []byte(vtype)); err != nil {
		return err
	}
	if err := v.Serialize(writer); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return nil
}

func ReadRedisValue(buf io.Reader) (Value, ValueType, error) {
	reader := bufio.NewReader(buf)
	vstr, err := serializer.ReadFieldBytes(reader)
	if err != nil {
		return nil, "", err
	}

	vtype := ValueType(vstr)
	var value Value
	switch vtype {
	case SINGLE_VALUE:
		value = &singleValue{}
	default:
		return nil, "", fmt.Errorf("Unexpected value type: %v", vtype)
	}

	if err := value.Deserialize(reader); err != nil {
		return nil, "", err
	}
	return value, vtype, nil
}

// read instructions
const (
	GET = "GET"
)

// write instructions
const (
	SET = "SET"
	DEL = "DEL"
)

// Redis is a trivial in-memory key/value Store, the local engine the
// cluster package reads and writes against directly. It is
// independent of the bootstrap subsystem's on-disk SSTable transfer,
// which operates on store.ColumnFamilyStore instead.
type Redis struct {
	lock sync.RWMutex
	data map[string]Value
}

func NewRedis() *Redis {
	return &Redis{data: make(map[string]Value)}
}

func (s *Redis) SerializeValue(v Value) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := WriteRedisValue(buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Redis) DeserializeValue(b []byte) (Value, ValueType, error) {
	buf := bytes.NewBuffer(b)
	val, vtype, err := ReadRedisValue(buf)
	if err != nil {
		return nil, "", err
	}
	return val, vtype, nil
}

func (s *Redis) Start() error {
	return nil
}

func (s *Redis) Stop() error {
	return nil
}

func (s *Redis) ExecuteRead(cmd string, key string, args []string) (Value, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	switch strings.ToUpper(cmd) {
	case GET:
		return s.data[key], nil
	default:
		return nil, fmt.Errorf("Unrecognized read command: %v", cmd)
	}
}

func (s *Redis) ExecuteWrite(cmd string, key string, args []string, timestamp time.Time) (Value, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch strings.ToUpper(cmd) {
	case SET:
		if len(args) < 1 {
			return nil, fmt.Errorf("SET requires a value argument")
		}
		val := newSingleValue(args[0], timestamp)
		s.data[key] = val
		return val, nil
	case DEL:
		delete(s.data, key)
		return nil, nil
	default:
		return nil, fmt.Errorf("Unrecognized write command: %v", cmd)
	}
}

func (s *Redis) ExecuteQuery(cmd string, key string, args []string, timestamp time.Time) (Value, error) {
	if s.IsWriteCommand(cmd) {
		return s.ExecuteWrite(cmd, key, args, timestamp)
	}
	return s.ExecuteRead(cmd, key, args)
}

// Reconcile picks the value with the highest timestamp and issues a
// SET instruction for every node whose value disagrees with it.
func (s *Redis) Reconcile(key string, values map[string]Value) (Value, map[string][]*Instruction, error) {
	var winner Value
	for _, v := range values {
		if v == nil {
			continue
		}
		if winner == nil || v.GetTimestamp().After(winner.GetTimestamp()) {
			winner = v
		}
	}

	instructions := make(map[string][]*Instruction, len(values))
	if winner == nil {
		return nil, instructions, nil
	}

	sv, ok := winner.(*singleValue)
	if !ok {
		return winner, instructions, nil
	}

	for nid, v := range values {
		if v != nil && v.Equal(winner) {
			continue
		}
		instructions[nid] = []*Instruction{
			NewInstruction(SET, key, []string{sv.data}, winner.GetTimestamp()),
		}
	}
	return winner, instructions, nil
}

func (s *Redis) IsReadCommand(cmd string) bool {
	switch strings.ToUpper(cmd) {
	case GET:
		return true
	}
	return false
}

func (s *Redis) IsWriteCommand(cmd string) bool {
	switch strings.ToUpper(cmd) {
	case SET, DEL:
		return true
	}
	return false
}

func (s *Redis) ReturnsValue(cmd string) bool {
	return s.IsReadCommand(cmd)
}

func (s *Redis) GetRawKey(key string) (Value, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("Key not found: %v", key)
	}
	return v, nil
}

func (s *Redis) SetRawKey(key string, val Value) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.data[key] = val
	return nil
}

func (s *Redis) GetKeys() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

func (s *Redis) KeyExists(key string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.data[key]
	return ok
}
