package bootstrap

import "testing"

func TestShippedFilenameRoundTrip(t *testing.T) {
	name := ShippedFilename("users", 3, DataKind)
	cf, gen, kind, ok := ParseSSTableFilename(name)
	if !ok {
		t.Fatalf("ParseSSTableFilename(%q) failed to parse", name)
	}
	if cf != "users" || gen != 3 || kind != DataKind {
		t.Errorf("got (%q, %d, %q), want (%q, %d, %q)", cf, gen, kind, "users", 3, DataKind)
	}
}

func TestParseSSTableFilenameRejectsMalformed(t *testing.T) {
	cases := []string{"", "nogeneration.db", "a-b", "a-notanumber-Data.db"}
	for _, c := range cases {
		if _, _, _, ok := ParseSSTableFilename(c); ok {
			t.Errorf("ParseSSTableFilename(%q) should have failed", c)
		}
	}
}

func TestDistinctEntryForGroupsByColumnFamilyAndGeneration(t *testing.T) {
	a := ShippedFilename("users", 1, DataKind)
	b := ShippedFilename("users", 1, DataKind)
	c := ShippedFilename("users", 2, DataKind)

	keyA, kindA, ok := DistinctEntryFor("users_table", a)
	if !ok {
		t.Fatalf("DistinctEntryFor(%q) failed to parse", a)
	}
	keyB, _, ok := DistinctEntryFor("users_table", b)
	if !ok {
		t.Fatalf("DistinctEntryFor(%q) failed to parse", b)
	}
	keyC, _, ok := DistinctEntryFor("users_table", c)
	if !ok {
		t.Fatalf("DistinctEntryFor(%q) failed to parse", c)
	}

	if keyA != keyB {
		t.Errorf("identical shipped names should share a grouping key: %v != %v", keyA, keyB)
	}
	if keyA == keyC {
		t.Errorf("different generations should not share a grouping key: %v == %v", keyA, keyC)
	}
	if kindA != DataKind {
		t.Errorf("kind = %q, want %q", kindA, DataKind)
	}
}

func TestDistinctEntryForStripsLeadingDirectory(t *testing.T) {
	name := ShippedFilename("users", 1, DataKind)
	keyFlat, _, _ := DistinctEntryFor("users_table", name)
	keyNested, _, ok := DistinctEntryFor("users_table", "/var/data/"+name)
	if !ok {
		t.Fatalf("DistinctEntryFor with a directory prefix failed to parse")
	}
	if keyFlat != keyNested {
		t.Errorf("a leading directory should not affect the grouping key: %v != %v", keyFlat, keyNested)
	}
}
