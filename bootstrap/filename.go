package bootstrap

import (
	"fmt"
	"strconv"
	"strings"
)

// ShippedFilename renders the `<cf>-<generation>-<kind>.db` pattern
// shipped files use within a table's data directory.
func ShippedFilename(columnFamily string, generation int, kind string) string {
	return fmt.Sprintf("%s-%d-%s.db", columnFamily, generation, kind)
}

// ParseSSTableFilename splits a shipped filename back into its column
// family, generation and kind. Returns ok=false for anything that
// doesn't match the pattern.
func ParseSSTableFilename(name string) (columnFamily string, generation int, kind string, ok bool) {
	name = strings.TrimSuffix(name, ".db")
	parts := strings.Split(name, "-")
	if len(parts) < 3 {
		return "", 0, "", false
	}
	kind = parts[len(parts)-1]
	genStr := parts[len(parts)-2]
	gen, err := strconv.Atoi(genStr)
	if err != nil {
		return "", 0, "", false
	}
	columnFamily = strings.Join(parts[:len(parts)-2], "-")
	return columnFamily, gen, kind, true
}

// DistinctEntryKey groups StreamContexts of the same (table, cf,
// generation) triple so they share one locally generated name.
type DistinctEntryKey struct {
	Table         string
	ColumnFamily  string
	Generation    int
}

// DistinctEntryFor derives the grouping key for one StreamContext's
// shipped filename.
func DistinctEntryFor(table, shippedFilename string) (DistinctEntryKey, string, bool) {
	base := shippedFilename
	if idx := strings.LastIndexByte(shippedFilename, '/'); idx >= 0 {
		base = shippedFilename[idx+1:]
	}
	cf, gen, kind, ok := ParseSSTableFilename(base)
	if !ok {
		return DistinctEntryKey{}, "", false
	}
	return DistinctEntryKey{Table: table, ColumnFamily: cf, Generation: gen}, kind, true
}

// DataKind is the suffix kind identifying the primary artifact of a
// column family.
const DataKind = "Data"
