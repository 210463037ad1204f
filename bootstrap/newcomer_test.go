package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kickboxerdb/ringkeeper/store"
)

func TestAllocateLocalGroupsSameGenerationUnderOneStem(t *testing.T) {
	cfStore := store.NewLocalColumnFamilyStore(t.TempDir())
	ctx := &Context{Store: cfStore}
	stems := make(map[DistinctEntryKey]string)

	data := StreamContext{Table: "users", TargetFile: ShippedFilename("users", 1, DataKind), ExpectedBytes: 10}
	index := StreamContext{Table: "users", TargetFile: ShippedFilename("users", 1, "Index"), ExpectedBytes: 4}

	gotData := allocateLocal(ctx, data, stems)
	gotIndex := allocateLocal(ctx, index, stems)

	dataDir, dataFile := filepath.Split(gotData.LocalPath)
	indexDir, indexFile := filepath.Split(gotIndex.LocalPath)
	if dataDir != indexDir {
		t.Fatalf("both kinds should land in the same directory, got %q and %q", dataDir, indexDir)
	}

	dataStem := dataFile[:len(dataFile)-len("-Data.db.tmp")]
	indexStem := indexFile[:len(indexFile)-len("-Index.db.tmp")]
	if dataStem != indexStem {
		t.Errorf("kinds of the same generation should share a stem: %q != %q", dataStem, indexStem)
	}

	if gotData.TargetFile != data.TargetFile {
		t.Errorf("TargetFile must survive unchanged: got %q, want %q", gotData.TargetFile, data.TargetFile)
	}
	if gotIndex.TargetFile != index.TargetFile {
		t.Errorf("TargetFile must survive unchanged: got %q, want %q", gotIndex.TargetFile, index.TargetFile)
	}
}

func TestAllocateLocalDifferentGenerationsGetDistinctStems(t *testing.T) {
	cfStore := store.NewLocalColumnFamilyStore(t.TempDir())
	ctx := &Context{Store: cfStore}
	stems := make(map[DistinctEntryKey]string)

	gen1 := allocateLocal(ctx, StreamContext{Table: "users", TargetFile: ShippedFilename("users", 1, DataKind)}, stems)
	gen2 := allocateLocal(ctx, StreamContext{Table: "users", TargetFile: ShippedFilename("users", 2, DataKind)}, stems)

	if gen1.LocalPath == gen2.LocalPath {
		t.Errorf("different generations must not share a local path: both got %q", gen1.LocalPath)
	}
}

func TestAllocateLocalUnparseableFilenameFallsBackToStandaloneStem(t *testing.T) {
	cfStore := store.NewLocalColumnFamilyStore(t.TempDir())
	ctx := &Context{Store: cfStore}
	stems := make(map[DistinctEntryKey]string)

	got := allocateLocal(ctx, StreamContext{Table: "users", TargetFile: "not-a-recognized-name"}, stems)
	if got.LocalPath == "" {
		t.Fatal("expected a local path even for an unparseable shipped filename")
	}
}

func TestOnFileCompleteInstallsDataKindAsTable(t *testing.T) {
	dataDir := t.TempDir()
	cfStore := store.NewLocalColumnFamilyStore(dataDir)
	ctx := &Context{Store: cfStore, Writer: store.NewSSTableWriter()}
	h := &completionHandler{ctx: ctx}

	sc := StreamContext{
		Table:         "users",
		TargetFile:    ShippedFilename("users", 1, DataKind),
		ExpectedBytes: 5,
		LocalPath:     filepath.Join(dataDir, "tmp-1-Data.db.tmp"),
	}
	if err := os.WriteFile(sc.LocalPath, []byte("hello"), 0644); err != nil {
		t.Fatalf("seeding local file: %v", err)
	}

	status := h.OnFileComplete(endpoint(1), sc, 5)
	if status.Action != ActionDelete {
		t.Fatalf("Action = %v, want %v", status.Action, ActionDelete)
	}
	if status.File != sc.TargetFile {
		t.Errorf("status.File = %q, want the source identity %q", status.File, sc.TargetFile)
	}

	tables := cfStore.Tables()
	if len(tables) != 1 {
		t.Fatalf("expected exactly one installed table, got %d", len(tables))
	}
	if tables[0].Path != filepath.Join(dataDir, "tmp-1-Data.db") {
		t.Errorf("installed table path = %q", tables[0].Path)
	}
}

func TestOnFileCompleteInstallsAuxiliaryKindWithoutAddingTable(t *testing.T) {
	dataDir := t.TempDir()
	cfStore := store.NewLocalColumnFamilyStore(dataDir)
	ctx := &Context{Store: cfStore, Writer: store.NewSSTableWriter()}
	h := &completionHandler{ctx: ctx}

	sc := StreamContext{
		Table:         "users",
		TargetFile:    ShippedFilename("users", 1, "Index"),
		ExpectedBytes: 5,
		LocalPath:     filepath.Join(dataDir, "tmp-1-Index.db.tmp"),
	}
	if err := os.WriteFile(sc.LocalPath, []byte("hello"), 0644); err != nil {
		t.Fatalf("seeding local file: %v", err)
	}

	status := h.OnFileComplete(endpoint(1), sc, 5)
	if status.Action != ActionDelete {
		t.Fatalf("Action = %v, want %v", status.Action, ActionDelete)
	}

	finalPath := filepath.Join(dataDir, "tmp-1-Index.db")
	if _, err := os.Stat(finalPath); err != nil {
		t.Errorf("expected the auxiliary kind installed on disk at %s: %v", finalPath, err)
	}
	if tables := cfStore.Tables(); len(tables) != 0 {
		t.Errorf("an auxiliary kind must not become a table entry, got %v", tables)
	}
}
