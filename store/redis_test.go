package store

import (
	"testing"
	"time"
)

func setupRedis() *Redis {
	return NewRedis()
}

func TestRedisIsWriteCommand(t *testing.T) {
	cases := []struct {
		cmd   string
		write bool
	}{
		{"GET", false},
		{"SET", true},
		{"DEL", true},
	}
	r := setupRedis()
	for _, c := range cases {
		if got := r.IsWriteCommand(c.cmd); got != c.write {
			t.Errorf("IsWriteCommand(%q) = %v, want %v", c.cmd, got, c.write)
		}
		if got := r.IsReadCommand(c.cmd); got != !c.write {
			t.Errorf("IsReadCommand(%q) = %v, want %v", c.cmd, got, !c.write)
		}
	}
}

func TestRedisExecuteWriteThenRead(t *testing.T) {
	r := setupRedis()
	ts := time.Now()
	if _, err := r.ExecuteWrite("SET", "a", []string{"b"}, ts); err != nil {
		t.Fatalf("ExecuteWrite: %v", err)
	}

	got, err := r.ExecuteRead("GET", "a", nil)
	if err != nil {
		t.Fatalf("ExecuteRead: %v", err)
	}
	sv, ok := got.(*singleValue)
	if !ok {
		t.Fatalf("got %T, want *singleValue", got)
	}
	if sv.data != "b" {
		t.Errorf("data = %q, want %q", sv.data, "b")
	}
}

func TestRedisExecuteWriteDel(t *testing.T) {
	r := setupRedis()
	ts := time.Now()
	r.ExecuteWrite("SET", "a", []string{"b"}, ts)
	if !r.KeyExists("a") {
		t.Fatal("expected key 'a' to exist after SET")
	}

	if _, err := r.ExecuteWrite("DEL", "a", nil, ts); err != nil {
		t.Fatalf("ExecuteWrite DEL: %v", err)
	}
	if r.KeyExists("a") {
		t.Error("expected key 'a' to be gone after DEL")
	}
}

func TestRedisExecuteQueryRoutesByCommand(t *testing.T) {
	r := setupRedis()
	ts := time.Now()
	if _, err := r.ExecuteQuery("SET", "a", []string{"b"}, ts); err != nil {
		t.Fatalf("ExecuteQuery SET: %v", err)
	}
	val, err := r.ExecuteQuery("GET", "a", nil, ts)
	if err != nil {
		t.Fatalf("ExecuteQuery GET: %v", err)
	}
	if val.(*singleValue).data != "b" {
		t.Errorf("ExecuteQuery GET returned %v, want b", val)
	}
}

func TestRedisExecuteReadUnrecognizedCommand(t *testing.T) {
	if _, err := setupRedis().ExecuteRead("BOGUS", "a", nil); err == nil {
		t.Fatal("expected an error for an unrecognized read command")
	}
}

func TestRedisGetSetRawKey(t *testing.T) {
	r := setupRedis()
	v := newSingleValue("hi", time.Now())
	if err := r.SetRawKey("x", v); err != nil {
		t.Fatalf("SetRawKey: %v", err)
	}
	got, err := r.GetRawKey("x")
	if err != nil {
		t.Fatalf("GetRawKey: %v", err)
	}
	if !got.Equal(v) {
		t.Errorf("GetRawKey returned %v, want %v", got, v)
	}
	if _, err := r.GetRawKey("missing"); err == nil {
		t.Fatal("expected an error for a missing key")
	}
}

func TestRedisGetKeys(t *testing.T) {
	r := setupRedis()
	v := newSingleValue("v", time.Now())
	r.SetRawKey("x", v)
	r.SetRawKey("y", v)
	r.SetRawKey("z", v)

	want := map[string]bool{"x": true, "y": true, "z": true}
	keys := r.GetKeys()
	if len(keys) != len(want) {
		t.Fatalf("GetKeys returned %d keys, want %d", len(keys), len(want))
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("unexpected key %q", k)
		}
	}
}

func TestRedisSerializeValueRoundTrip(t *testing.T) {
	r := setupRedis()
	v := newSingleValue("hello", time.Now())

	b, err := r.SerializeValue(v)
	if err != nil {
		t.Fatalf("SerializeValue: %v", err)
	}
	got, vtype, err := r.DeserializeValue(b)
	if err != nil {
		t.Fatalf("DeserializeValue: %v", err)
	}
	if vtype != SINGLE_VALUE {
		t.Errorf("vtype = %v, want %v", vtype, SINGLE_VALUE)
	}
	if !got.Equal(v) {
		t.Errorf("round-tripped value %v, want %v", got, v)
	}
}

func TestRedisReconcileEmptyMap(t *testing.T) {
	winner, adjustments, err := setupRedis().Reconcile("k", map[string]Value{})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if winner != nil {
		t.Errorf("expected a nil winner for an empty map, got %v", winner)
	}
	if len(adjustments) != 0 {
		t.Errorf("expected no adjustments for an empty map, got %v", adjustments)
	}
}

func TestRedisReconcilePicksNewestAndFlagsLaggards(t *testing.T) {
	older := newSingleValue("stale", time.Now().Add(-time.Minute))
	newer := newSingleValue("fresh", time.Now())

	winner, adjustments, err := setupRedis().Reconcile("k", map[string]Value{
		"node-a": older,
		"node-b": newer,
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	sv, ok := winner.(*singleValue)
	if !ok || sv.data != "fresh" {
		t.Fatalf("winner = %v, want the fresher value", winner)
	}

	if _, ok := adjustments["node-b"]; ok {
		t.Error("the node already holding the winning value shouldn't get an adjustment")
	}
	instrs, ok := adjustments["node-a"]
	if !ok || len(instrs) != 1 {
		t.Fatalf("expected exactly one corrective instruction for node-a, got %v", adjustments["node-a"])
	}
	if instrs[0].Cmd != SET || instrs[0].Args[0] != "fresh" {
		t.Errorf("corrective instruction = %v, want a SET of the fresh value", instrs[0])
	}
}
